// internal/tools/schemas.go
package tools

import (
	"encoding/json"

	"listing-search/internal/common/validation"
	"listing-search/internal/llm"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

var sortEnum = []string{"price-asc", "price-desc", "newest", "oldest", "sqft-asc", "sqft-desc"}

// searchHomesSchema accepts the full intent vocabulary. Every field is
// optional: an empty call is a valid "show me homes" search.
var searchHomesSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"location":        {Type: "string", Description: "Free-text place name: city, subdivision, or county", MaxLength: intPtr(120)},
		"zip":             {Type: "string", Description: "5-digit postal code", Pattern: strPtr(`^\d{5}$`)},
		"propertyType":    {Type: "string", Enum: []string{"sale", "rental", "multifamily", "land"}},
		"propertySubType": {Type: "string", MaxLength: intPtr(60)},
		"minBeds":         {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(20)},
		"maxBeds":         {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(20)},
		"minBaths":        {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(20)},
		"maxBaths":        {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(20)},
		"minPrice":        {Type: "number", Minimum: floatPtr(0)},
		"maxPrice":        {Type: "number", Minimum: floatPtr(0)},
		"minSqft":         {Type: "number", Minimum: floatPtr(0)},
		"maxSqft":         {Type: "number", Minimum: floatPtr(0)},
		"minLotSize":      {Type: "number", Minimum: floatPtr(0)},
		"maxLotSize":      {Type: "number", Minimum: floatPtr(0)},
		"minYear":         {Type: "integer", Minimum: floatPtr(1800), Maximum: floatPtr(2100)},
		"maxYear":         {Type: "integer", Minimum: floatPtr(1800), Maximum: floatPtr(2100)},
		"minGarages":      {Type: "number", Minimum: floatPtr(0)},
		"pool":            {Type: "boolean"},
		"spa":             {Type: "boolean"},
		"view":            {Type: "boolean"},
		"golf":            {Type: "boolean"},
		"gated":           {Type: "boolean"},
		"senior":          {Type: "boolean"},
		"maxDaysOnMarket": {Type: "number", Minimum: floatPtr(0)},
		"listedAfter":     {Type: "string", Description: "Calendar date, YYYY-MM-DD", Pattern: strPtr(`^\d{4}-\d{2}-\d{2}$`)},
		"limit":           {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(200)},
		"sort":            {Type: "string", Enum: sortEnum},
	},
}

var lookupSubdivisionSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"name": {Type: "string", Description: "Subdivision or community name", MinLength: intPtr(1), MaxLength: intPtr(120)},
	},
	Required: []string{"name"},
}

var marketStatsSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"location":     {Type: "string", Description: "City, subdivision, or county", MinLength: intPtr(1), MaxLength: intPtr(120)},
		"propertyType": {Type: "string", Enum: []string{"sale", "rental", "multifamily", "land"}},
	},
	Required: []string{"location"},
}

var appreciationSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"location": {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(120)},
		"years":    {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(30), Default: 5},
	},
	Required: []string{"location"},
}

var searchArticlesSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"query": {Type: "string", Description: "Topic to search articles for", MinLength: intPtr(1), MaxLength: intPtr(300)},
		"limit": {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(20), Default: 5},
	},
	Required: []string{"query"},
}

var neighborhoodLinkSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"name": {Type: "string", Description: "Neighborhood, subdivision, or city name", MinLength: intPtr(1), MaxLength: intPtr(120)},
	},
	Required: []string{"name"},
}

func strPtr(s string) *string { return &s }

// definition renders a schema into the completion service's tool format.
// The two formats are structurally identical, so a JSON round-trip keeps
// them from drifting apart.
func definition(name, description string, schema validation.JSONSchema) llm.Tool {
	raw, _ := json.Marshal(schema)
	var params map[string]interface{}
	_ = json.Unmarshal(raw, &params)

	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}
