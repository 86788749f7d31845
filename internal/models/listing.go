// internal/models/listing.go
package models

// ListingSummary is the trimmed listing shape returned by search tools and
// rendered in carousel and map blocks. Bed, bath, and lot values are already
// reconciled across source aliases by the index layer.
type ListingSummary struct {
	ListingID       string   `json:"listingId"`
	ListingKey      string   `json:"listingKey,omitempty"`
	ListPrice       float64  `json:"listPrice"`
	Address         string   `json:"address,omitempty"`
	SlugAddress     string   `json:"slugAddress,omitempty"`
	Beds            float64  `json:"beds,omitempty"`
	Baths           float64  `json:"baths,omitempty"`
	YearBuilt       int      `json:"yearBuilt,omitempty"`
	LivingArea      float64  `json:"livingArea,omitempty"`
	LotSize         float64  `json:"lotSize,omitempty"`
	PropertyType    string   `json:"propertyType,omitempty"`
	PropertySubType string   `json:"propertySubType,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	PhotoURL        string   `json:"photoUrl,omitempty"`
	MLSSource       string   `json:"mlsSource,omitempty"`
}

// PriceStats summarizes prices across every listing a query matched, not
// just the returned page.
type PriceStats struct {
	TotalListings int     `json:"totalListings"`
	AvgPrice      float64 `json:"avgPrice"`
	MedianPrice   float64 `json:"medianPrice"`
	MinPrice      float64 `json:"minPrice"`
	MaxPrice      float64 `json:"maxPrice"`
}
