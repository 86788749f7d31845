// internal/filter/compiler.go
package filter

import (
	"time"

	"listing-search/internal/models"
)

// Property type codes in the unified index.
const (
	typeRental      = "B"
	typeMultifamily = "C"
	typeLand        = "D"
)

// Compile converts a structured intent into a predicate tree. It is pure:
// the intent is never mutated, and compiling the same intent twice yields
// structurally identical output. Unconstrained fields produce no clause.
func Compile(intent models.Intent) CompiledQuery {
	clauses := []Clause{}

	// Base clause, always present: a listing without a positive price is
	// not a listing worth returning.
	clauses = append(clauses, Clause{
		Field: FieldPrice,
		Any:   []Predicate{{StorageField: "listPrice", Op: OpGt, Value: float64(0)}},
	})

	clauses = append(clauses, propertyTypeClause(intent))

	if loc := locationClause(intent); loc != nil {
		clauses = append(clauses, *loc)
	}

	if intent.PropertySubType != "" {
		clauses = append(clauses, Clause{
			Field: FieldSubType,
			Any: []Predicate{{
				StorageField: "propertySubType",
				Op:           OpMatchName,
				Value:        intent.PropertySubType,
			}},
		})
	}

	clauses = appendRange(clauses, FieldBeds, intent.MinBeds, intent.MaxBeds)
	clauses = appendRange(clauses, FieldBaths, intent.MinBaths, intent.MaxBaths)
	clauses = appendRange(clauses, FieldSqft, intent.MinSqft, intent.MaxSqft)
	clauses = appendRange(clauses, FieldLot, intent.MinLotSize, intent.MaxLotSize)
	clauses = appendRange(clauses, FieldYear, intent.MinYear, intent.MaxYear)
	clauses = appendRange(clauses, FieldPrice+"Range", intent.MinPrice, intent.MaxPrice)
	clauses = appendRange(clauses, FieldGarages, intent.MinGarages, nil)

	clauses = appendFlag(clauses, FieldPool, intent.Pool)
	clauses = appendFlag(clauses, FieldSpa, intent.Spa)
	clauses = appendFlag(clauses, FieldView, intent.View)
	clauses = appendFlag(clauses, FieldGolf, intent.Golf)
	clauses = appendFlag(clauses, FieldGated, intent.Gated)
	clauses = appendFlag(clauses, FieldSenior, intent.Senior)

	if intent.MaxDaysOnMarket != nil {
		clauses = append(clauses, Clause{
			Field: FieldDOM,
			Any: []Predicate{{
				StorageField: "daysOnMarket",
				Op:           OpLte,
				Value:        *intent.MaxDaysOnMarket,
			}},
		})
	}

	if intent.ListedAfter != "" {
		if ts, ok := NormalizeListedAfter(intent.ListedAfter); ok {
			aliases := Aliases(FieldListedAfter)
			preds := make([]Predicate, 0, len(aliases))
			for _, storage := range aliases {
				preds = append(preds, Predicate{StorageField: storage, Op: OpOnOrAfter, Value: ts})
			}
			clauses = append(clauses, Clause{Field: FieldListedAfter, Any: preds})
		}
	}

	return CompiledQuery{
		Clauses: clauses,
		Sort:    intent.Sort,
		Limit:   intent.Limit,
	}
}

// NormalizeListedAfter converts a calendar date to a start-of-day timestamp
// with an explicit UTC offset. The stored listing timestamps carry
// time-of-day precision, so a bare calendar string must never reach a
// comparison: lexicographic order would silently drop every listing from
// the boundary day itself.
func NormalizeListedAfter(date string) (string, bool) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		// Already a full timestamp: re-anchor to the same day's start.
		full, ferr := time.Parse(time.RFC3339, date)
		if ferr != nil {
			return "", false
		}
		t = full.UTC().Truncate(24 * time.Hour)
	}
	return t.UTC().Format(time.RFC3339), true
}

// propertyTypeClause excludes rentals unless the intent explicitly asks for
// them. Multifamily and land are opt-in the same way.
func propertyTypeClause(intent models.Intent) Clause {
	switch intent.PropertyType {
	case "rental":
		return equalityClause(FieldPropertyType, "propertyType", typeRental)
	case "multifamily":
		return equalityClause(FieldPropertyType, "propertyType", typeMultifamily)
	case "land":
		return equalityClause(FieldPropertyType, "propertyType", typeLand)
	default:
		c := equalityClause(FieldPropertyType, "propertyType", typeRental)
		c.Exclude = true
		return c
	}
}

// locationClause prefers the most specific location the intent carries.
// The value is expected to be a resolved canonical name; the match is
// anchored and case-insensitive, never substring.
func locationClause(intent models.Intent) *Clause {
	kind, value := "", ""
	switch {
	case intent.Subdivision != "":
		kind, value = "subdivision", intent.Subdivision
	case intent.City != "":
		kind, value = "city", intent.City
	case intent.Zip != "":
		kind, value = "zip", intent.Zip
	case intent.County != "":
		kind, value = "county", intent.County
	default:
		return nil
	}

	return &Clause{
		Field: FieldLocation,
		Any: []Predicate{{
			StorageField: locationStorageField[kind],
			Op:           OpMatchName,
			Value:        value,
		}},
	}
}

func equalityClause(field, storage string, value interface{}) Clause {
	return Clause{
		Field: field,
		Any:   []Predicate{{StorageField: storage, Op: OpEq, Value: value}},
	}
}

func appendRange(clauses []Clause, field string, min, max *float64) []Clause {
	if min == nil && max == nil {
		return clauses
	}

	logical := field
	aliases := Aliases(field)
	if field == FieldPrice+"Range" {
		logical = FieldPrice
		aliases = Aliases(FieldPrice)
	}

	preds := make([]Predicate, 0, len(aliases))
	for _, storage := range aliases {
		if min != nil && max != nil {
			// Both bounds must hold on the same alias.
			preds = append(preds, Predicate{StorageField: storage, Op: OpGte, Value: *min})
		} else if min != nil {
			preds = append(preds, Predicate{StorageField: storage, Op: OpGte, Value: *min})
		} else {
			preds = append(preds, Predicate{StorageField: storage, Op: OpLte, Value: *max})
		}
	}

	clauses = append(clauses, Clause{Field: logical + rangeSuffix(min, max), Any: preds})

	// A closed range needs a second clause for the upper bound so each
	// bound stays a flat disjunction over aliases.
	if min != nil && max != nil {
		upper := make([]Predicate, 0, len(aliases))
		for _, storage := range aliases {
			upper = append(upper, Predicate{StorageField: storage, Op: OpLte, Value: *max})
		}
		clauses = append(clauses, Clause{Field: logical + ":max", Any: upper})
	}

	return clauses
}

func rangeSuffix(min, max *float64) string {
	if min != nil {
		return ":min"
	}
	if max != nil {
		return ":max"
	}
	return ""
}

func appendFlag(clauses []Clause, field string, flag *bool) []Clause {
	if flag == nil {
		return clauses
	}
	storage := Aliases(field)[0]
	return append(clauses, Clause{
		Field: field,
		Any:   []Predicate{{StorageField: storage, Op: OpEq, Value: *flag}},
	})
}
