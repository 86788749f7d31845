// internal/models/intent.go
package models

// Intent is the structured representation of one user request for listings.
// It is produced by the model through a tool call and never mutated after
// decoding. Absent fields mean "unconstrained", not zero.
type Intent struct {
	// Location, one of. Free text until resolved against the geo catalog.
	Location    string `json:"location,omitempty"`
	City        string `json:"city,omitempty"`
	Subdivision string `json:"subdivision,omitempty"`
	Zip         string `json:"zip,omitempty"`
	County      string `json:"county,omitempty"`

	// Property filters
	PropertyType    string   `json:"propertyType,omitempty"` // sale (default), rental, multifamily, land
	PropertySubType string   `json:"propertySubType,omitempty"`
	MinBeds         *float64 `json:"minBeds,omitempty"`
	MaxBeds         *float64 `json:"maxBeds,omitempty"`
	MinBaths        *float64 `json:"minBaths,omitempty"`
	MaxBaths        *float64 `json:"maxBaths,omitempty"`
	MinSqft         *float64 `json:"minSqft,omitempty"`
	MaxSqft         *float64 `json:"maxSqft,omitempty"`
	MinYear         *float64 `json:"minYear,omitempty"`
	MaxYear         *float64 `json:"maxYear,omitempty"`
	MinLotSize      *float64 `json:"minLotSize,omitempty"`
	MaxLotSize      *float64 `json:"maxLotSize,omitempty"`

	// Price filters
	MinPrice *float64 `json:"minPrice,omitempty"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`

	// Amenity flags. Omitted flags compile to no clause, never to "false".
	Pool   *bool `json:"pool,omitempty"`
	Spa    *bool `json:"spa,omitempty"`
	View   *bool `json:"view,omitempty"`
	Golf   *bool `json:"golf,omitempty"`
	Gated  *bool `json:"gated,omitempty"`
	Senior *bool `json:"senior,omitempty"`

	MinGarages *float64 `json:"minGarages,omitempty"`

	// Time filters
	MaxDaysOnMarket *float64 `json:"maxDaysOnMarket,omitempty"`
	ListedAfter     string   `json:"listedAfter,omitempty"` // calendar date, YYYY-MM-DD

	// Pagination & sorting
	Limit int    `json:"limit,omitempty"`
	Sort  string `json:"sort,omitempty"` // price-asc, price-desc, newest, oldest, sqft-asc, sqft-desc
}

// WantsRentals reports whether the intent explicitly asks for rentals.
func (i Intent) WantsRentals() bool {
	return i.PropertyType == "rental"
}
