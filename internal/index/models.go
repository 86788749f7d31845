// internal/index/models.go
package index

import "listing-search/internal/models"

// SearchResult carries one page of listings plus stats computed across
// every matching document, not just the returned page.
type SearchResult struct {
	Listings  []models.ListingSummary `json:"listings"`
	Stats     models.PriceStats       `json:"stats"`
	TotalHits int                     `json:"totalHits"`
	Took      int                     `json:"took"`
}

// listingSource is the raw document shape in the unified listings index.
// Bed, bath, and lot counts appear under different names depending on the
// originating MLS feed; reconcile() folds them down.
type listingSource struct {
	ListingID              string   `json:"listingId"`
	ListingKey             string   `json:"listingKey"`
	ListPrice              float64  `json:"listPrice"`
	UnparsedAddress        string   `json:"unparsedAddress"`
	SlugAddress            string   `json:"slugAddress"`
	BedsTotal              *float64 `json:"bedsTotal"`
	BedroomsTotal          *float64 `json:"bedroomsTotal"`
	BathsTotal             *float64 `json:"bathsTotal"`
	BathroomsTotalInteger  *float64 `json:"bathroomsTotalInteger"`
	BathroomsFull          *float64 `json:"bathroomsFull"`
	YearBuilt              int      `json:"yearBuilt"`
	LivingArea             float64  `json:"livingArea"`
	LotSizeSquareFeet      *float64 `json:"lotSizeSquareFeet"`
	LotSizeSqft            *float64 `json:"lotSizeSqft"`
	PropertyType           string   `json:"propertyType"`
	PropertySubType        string   `json:"propertySubType"`
	Latitude               *float64 `json:"latitude"`
	Longitude              *float64 `json:"longitude"`
	MLSSource              string   `json:"mlsSource"`
	PrimaryPhotoURL        string   `json:"primaryPhotoUrl"`
	PrimaryPhoto           *photo   `json:"primaryPhoto"`
	Coordinates            *coords  `json:"coordinates"`
}

type photo struct {
	URI1600  string `json:"uri1600"`
	URI1280  string `json:"uri1280"`
	URI1024  string `json:"uri1024"`
	URI800   string `json:"uri800"`
	URI640   string `json:"uri640"`
	URI300   string `json:"uri300"`
	URILarge string `json:"uriLarge"`
}

type coords struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// reconcile folds source aliases into the canonical summary shape.
func (s listingSource) reconcile() models.ListingSummary {
	summary := models.ListingSummary{
		ListingID:       s.ListingID,
		ListingKey:      s.ListingKey,
		ListPrice:       s.ListPrice,
		Address:         s.UnparsedAddress,
		SlugAddress:     s.SlugAddress,
		Beds:            firstValue(s.BedsTotal, s.BedroomsTotal),
		Baths:           firstValue(s.BathsTotal, s.BathroomsTotalInteger, s.BathroomsFull),
		YearBuilt:       s.YearBuilt,
		LivingArea:      s.LivingArea,
		LotSize:         firstValue(s.LotSizeSquareFeet, s.LotSizeSqft),
		PropertyType:    s.PropertyType,
		PropertySubType: s.PropertySubType,
		Latitude:        s.Latitude,
		Longitude:       s.Longitude,
		MLSSource:       s.MLSSource,
		PhotoURL:        s.pickPhoto(),
	}

	if summary.Latitude == nil && s.Coordinates != nil {
		summary.Latitude = s.Coordinates.Latitude
		summary.Longitude = s.Coordinates.Longitude
	}
	if summary.MLSSource == "" {
		summary.MLSSource = "UNKNOWN"
	}

	return summary
}

// pickPhoto prefers the dedicated primary photo URL, then falls back down
// the resolution ladder of the primaryPhoto object.
func (s listingSource) pickPhoto() string {
	if s.PrimaryPhotoURL != "" {
		return s.PrimaryPhotoURL
	}
	if p := s.PrimaryPhoto; p != nil {
		for _, uri := range []string{p.URI1600, p.URI1280, p.URI1024, p.URI800, p.URI640, p.URI300, p.URILarge} {
			if uri != "" {
				return uri
			}
		}
	}
	return ""
}

func firstValue(values ...*float64) float64 {
	for _, v := range values {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return 0
}

// selectedFields keeps index queries narrow: only what the search tools
// and blocks actually render.
var selectedFields = []string{
	"listingId", "listingKey", "listPrice", "unparsedAddress", "slugAddress",
	"bedsTotal", "bedroomsTotal", "bathsTotal", "bathroomsTotalInteger", "bathroomsFull",
	"yearBuilt", "livingArea", "lotSizeSquareFeet", "lotSizeSqft",
	"propertyType", "propertySubType", "coordinates", "latitude", "longitude",
	"mlsSource", "primaryPhotoUrl", "primaryPhoto",
}
