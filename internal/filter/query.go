// internal/filter/query.go
package filter

import (
	"strings"
	"time"
)

// Op is the comparison a predicate applies to one storage field.
type Op string

const (
	OpGt        Op = "gt"
	OpGte       Op = "gte"
	OpLte       Op = "lte"
	OpEq        Op = "eq"
	OpMatchName Op = "match_name"   // anchored, case-insensitive, whole value
	OpOnOrAfter Op = "on_or_after"  // timestamp lower bound, inclusive
)

// Predicate compares one storage field against a value.
type Predicate struct {
	StorageField string      `json:"storageField"`
	Op           Op          `json:"op"`
	Value        interface{} `json:"value"`
}

// Clause constrains one logical field. Any holds one predicate per storage
// alias, OR'd together. An Exclude clause rejects documents any of its
// predicates match.
type Clause struct {
	Field   string      `json:"field"`
	Any     []Predicate `json:"any"`
	Exclude bool        `json:"exclude,omitempty"`
}

// CompiledQuery is the predicate tree the compiler produces: a conjunction
// of clauses plus result shaping. It is a pure value; building and
// rendering it have no side effects.
type CompiledQuery struct {
	Clauses []Clause `json:"clauses"`
	Sort    string   `json:"sort,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Clause returns the clause tagged with the given logical field, if present.
func (q CompiledQuery) Clause(field string) (Clause, bool) {
	for _, c := range q.Clauses {
		if c.Field == field {
			return c, true
		}
	}
	return Clause{}, false
}

// ==========================
// Elasticsearch rendering
// ==========================

// Build renders the predicate tree as an Elasticsearch bool query body.
// Rendering is pure; executing the body is the index layer's job.
func (q CompiledQuery) Build() map[string]interface{} {
	filterClauses := []interface{}{}
	mustNotClauses := []interface{}{}

	for _, clause := range q.Clauses {
		rendered := renderClause(clause)
		if rendered == nil {
			continue
		}
		if clause.Exclude {
			mustNotClauses = append(mustNotClauses, rendered)
		} else {
			filterClauses = append(filterClauses, rendered)
		}
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}},
	}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}
	if len(mustNotClauses) > 0 {
		boolQuery["must_not"] = mustNotClauses
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	if sort := sortOrder(q.Sort); sort != nil {
		body["sort"] = sort
	}

	return body
}

func renderClause(clause Clause) interface{} {
	if len(clause.Any) == 0 {
		return nil
	}
	if len(clause.Any) == 1 {
		return renderPredicate(clause.Any[0])
	}

	should := make([]interface{}, 0, len(clause.Any))
	for _, pred := range clause.Any {
		should = append(should, renderPredicate(pred))
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}

func renderPredicate(pred Predicate) map[string]interface{} {
	switch pred.Op {
	case OpGt:
		return rangePredicate(pred.StorageField, "gt", pred.Value)
	case OpGte:
		return rangePredicate(pred.StorageField, "gte", pred.Value)
	case OpLte:
		return rangePredicate(pred.StorageField, "lte", pred.Value)
	case OpOnOrAfter:
		return rangePredicate(pred.StorageField, "gte", pred.Value)
	case OpMatchName:
		// Whole-value keyword match. case_insensitive keeps it anchored
		// without falling back to substring matching.
		return map[string]interface{}{
			"term": map[string]interface{}{
				pred.StorageField + ".keyword": map[string]interface{}{
					"value":            pred.Value,
					"case_insensitive": true,
				},
			},
		}
	default: // OpEq
		return map[string]interface{}{
			"term": map[string]interface{}{pred.StorageField: pred.Value},
		}
	}
}

func rangePredicate(field, bound string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"range": map[string]interface{}{
			field: map[string]interface{}{bound: value},
		},
	}
}

func sortOrder(sort string) []map[string]interface{} {
	switch sort {
	case "price-asc":
		return []map[string]interface{}{{"listPrice": "asc"}}
	case "price-desc":
		return []map[string]interface{}{{"listPrice": "desc"}}
	case "sqft-asc":
		return []map[string]interface{}{{"livingArea": "asc"}}
	case "sqft-desc":
		return []map[string]interface{}{{"livingArea": "desc"}}
	case "newest":
		return []map[string]interface{}{{"onMarketDate": "desc"}}
	case "oldest":
		return []map[string]interface{}{{"onMarketDate": "asc"}}
	case "dom-asc":
		return []map[string]interface{}{{"daysOnMarket": "asc"}}
	case "dom-desc":
		return []map[string]interface{}{{"daysOnMarket": "desc"}}
	}
	return nil
}

// ==========================
// Direct evaluation
// ==========================

// Matches evaluates the predicate tree against one decoded document. The
// index layer normally executes the rendered query server-side; direct
// evaluation backs fixture verification and keeps the tree honest as a
// plain value.
func (q CompiledQuery) Matches(doc map[string]interface{}) bool {
	for _, clause := range q.Clauses {
		matched := clauseMatches(clause, doc)
		if clause.Exclude {
			if matched {
				return false
			}
			continue
		}
		if !matched {
			return false
		}
	}
	return true
}

func clauseMatches(clause Clause, doc map[string]interface{}) bool {
	for _, pred := range clause.Any {
		if predicateMatches(pred, doc) {
			return true
		}
	}
	return false
}

func predicateMatches(pred Predicate, doc map[string]interface{}) bool {
	raw, ok := doc[pred.StorageField]
	if !ok || raw == nil {
		return false
	}

	switch pred.Op {
	case OpGt, OpGte, OpLte:
		docVal, ok1 := toFloat(raw)
		bound, ok2 := toFloat(pred.Value)
		if !ok1 || !ok2 {
			return false
		}
		switch pred.Op {
		case OpGt:
			return docVal > bound
		case OpGte:
			return docVal >= bound
		default:
			return docVal <= bound
		}
	case OpOnOrAfter:
		docTime, ok1 := toTime(raw)
		bound, ok2 := toTime(pred.Value)
		if !ok1 || !ok2 {
			return false
		}
		return !docTime.Before(bound)
	case OpMatchName:
		docStr, ok1 := raw.(string)
		want, ok2 := pred.Value.(string)
		if !ok1 || !ok2 {
			return false
		}
		return strings.EqualFold(docStr, want)
	default: // OpEq
		return raw == pred.Value
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// toTime accepts the timestamp shapes the unified index is known to hold:
// RFC 3339, date-time without zone, and bare calendar dates.
func toTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
