// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	min := 1
	zero := 0.0
	twenty := 20.0
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"location": {Type: "string", MinLength: &min},
			"minBeds":  {Type: "number", Minimum: &zero, Maximum: &twenty},
			"limit":    {Type: "integer"},
			"pool":     {Type: "boolean"},
			"sort":     {Type: "string", Enum: []string{"price-asc", "price-desc"}},
		},
		Required: []string{"location"},
	}
}

func TestValidateInputAccepts(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"location": "Palm Desert",
		"minBeds":  3.0,
		"limit":    10.0, // decoded JSON numbers arrive as float64
		"pool":     true,
		"sort":     "price-asc",
	}, testSchema())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateInputRejections(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
		field string
		code  string
	}{
		{"missing required", map[string]interface{}{}, "location", "REQUIRED_FIELD_MISSING"},
		{"wrong type", map[string]interface{}{"location": 5.0}, "location", "INVALID_TYPE"},
		{"below minimum", map[string]interface{}{"location": "x", "minBeds": -1.0}, "minBeds", "MINIMUM_VIOLATION"},
		{"above maximum", map[string]interface{}{"location": "x", "minBeds": 99.0}, "minBeds", "MAXIMUM_VIOLATION"},
		{"fractional integer", map[string]interface{}{"location": "x", "limit": 2.5}, "limit", "INVALID_TYPE"},
		{"bad enum", map[string]interface{}{"location": "x", "sort": "shuffle"}, "sort", "INVALID_ENUM_VALUE"},
		{"unknown field", map[string]interface{}{"location": "x", "page": 1.0}, "page", "EXTRA_FIELD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, testSchema())
			require.False(t, result.Valid)
			require.True(t, result.HasErrors(tt.field))

			fieldErrors := result.GetErrorsForField(tt.field)
			require.NotEmpty(t, fieldErrors)
			assert.Equal(t, tt.code, fieldErrors[0].Code)
		})
	}
}

func TestGetSchemaFromJSON(t *testing.T) {
	schema, err := GetSchemaFromJSON(`{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"]
	}`)
	require.NoError(t, err)
	assert.Equal(t, "object", schema.Type)
	assert.Contains(t, schema.Properties, "name")
	assert.Equal(t, []string{"name"}, schema.Required)
}
