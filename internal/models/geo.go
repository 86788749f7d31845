// internal/models/geo.go
package models

// GeoKind classifies a canonical place.
type GeoKind string

const (
	GeoKindCity        GeoKind = "city"
	GeoKindSubdivision GeoKind = "subdivision"
	GeoKindCounty      GeoKind = "county"
)

// GeoEntity is a canonical place loaded from the property index's
// aggregated location values. Read-only reference data.
type GeoEntity struct {
	Kind      GeoKind  `json:"kind"`
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	City      string   `json:"city,omitempty"` // parent city for subdivisions
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Listings  int      `json:"listings,omitempty"` // active listing count behind this entity
}

// Resolution is the outcome of resolving a free-text location string.
// Exactly one of Match, Candidates, or Unresolved is meaningful.
type Resolution struct {
	Match      *GeoEntity   `json:"match,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
	Candidates []*GeoEntity `json:"candidates,omitempty"`
	Unresolved bool         `json:"unresolved,omitempty"`
}

// Ambiguous reports whether the resolver declined to pick a single entity.
func (r *Resolution) Ambiguous() bool {
	return len(r.Candidates) > 1
}
