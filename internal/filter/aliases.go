// internal/filter/aliases.go
package filter

// Logical field names used to tag clauses. Storage-layer names never leak
// past this table.
const (
	FieldPrice        = "price"
	FieldLocation     = "location"
	FieldPropertyType = "propertyType"
	FieldSubType      = "propertySubType"
	FieldBeds         = "beds"
	FieldBaths        = "baths"
	FieldSqft         = "sqft"
	FieldLot          = "lot"
	FieldYear         = "year"
	FieldGarages      = "garages"
	FieldPool         = "pool"
	FieldSpa          = "spa"
	FieldView         = "view"
	FieldGolf         = "golf"
	FieldGated        = "gated"
	FieldSenior       = "senior"
	FieldDOM          = "daysOnMarket"
	FieldListedAfter  = "listedAfter"
)

// fieldAliases maps each logical field to every storage name it is known
// under across MLS sources. One intent field always compiles to one clause,
// OR'd over these aliases, so heterogeneous schemas are covered without
// runtime probing.
var fieldAliases = map[string][]string{
	FieldPrice:       {"listPrice"},
	FieldBeds:        {"bedsTotal", "bedroomsTotal"},
	FieldBaths:       {"bathsTotal", "bathroomsTotalInteger", "bathroomsFull"},
	FieldSqft:        {"livingArea"},
	FieldLot:         {"lotSizeSquareFeet", "lotSizeSqft"},
	FieldYear:        {"yearBuilt"},
	FieldGarages:     {"garageSpaces"},
	FieldPool:        {"poolYn"},
	FieldSpa:         {"spaYn"},
	FieldView:        {"viewYn"},
	FieldGolf:        {"golfCourseYn"},
	FieldGated:       {"gatedCommunityYn"},
	FieldSenior:      {"seniorCommunityYn"},
	FieldDOM:         {"daysOnMarket"},
	FieldListedAfter: {"listDate", "onMarketDate"},
}

// locationStorageField maps an intent location kind to its storage name.
var locationStorageField = map[string]string{
	"city":        "city",
	"subdivision": "subdivisionName",
	"zip":         "postalCode",
	"county":      "countyOrParish",
}

// Aliases returns the storage names for a logical field. The returned slice
// must not be mutated.
func Aliases(field string) []string {
	return fieldAliases[field]
}
