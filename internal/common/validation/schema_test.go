package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

var testSchema = JSONSchema{
	Type:     "object",
	Required: []string{"entendimento"},
	Properties: map[string]Property{
		"entendimento":       {Type: "string"},
		"campos_necessarios": {Type: "array", Items: &Property{Type: "string"}},
		"filtros_identificados": {
			Type: "object",
			Properties: map[string]Property{
				"periodo": {Type: "string", Nullable: true},
				"status":  {Type: "string", Enum: []string{"fechados", "perdidos", "em_andamento", "todos"}},
			},
		},
		"precisa_esclarecimento": {Type: "boolean"},
		"limite":                 {Type: "integer"},
	},
	AdditionalProperties: true,
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		valid       bool
		failedField string
	}{
		{
			name:  "valid analysis",
			raw:   `{"entendimento":"perdas","campos_necessarios":["win"],"filtros_identificados":{"periodo":null,"status":"perdidos"},"precisa_esclarecimento":false}`,
			valid: true,
		},
		{
			name:        "status outside enum",
			raw:         `{"entendimento":"x","filtros_identificados":{"status":"ganhos"}}`,
			failedField: "filtros_identificados.status",
		},
		{
			name:        "missing required",
			raw:         `{"campos_necessarios":["*"]}`,
			failedField: "entendimento",
		},
		{
			name:        "wrong array item type",
			raw:         `{"entendimento":"x","campos_necessarios":[1]}`,
			failedField: "campos_necessarios",
		},
		{
			name:        "fractional integer",
			raw:         `{"entendimento":"x","limite":2.5}`,
			failedField: "limite",
		},
		{
			name:  "whole float is an integer",
			raw:   `{"entendimento":"x","limite":5}`,
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(decode(t, tt.raw), testSchema)
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
			if tt.failedField != "" {
				assert.True(t, result.HasErrors(tt.failedField), result.GetErrorMessages())
			}
		})
	}
}

func TestValidateInput_RejectsExtraFields(t *testing.T) {
	strict := testSchema
	strict.AdditionalProperties = false

	result := ValidateInput(decode(t, `{"entendimento":"x","sql":"DROP"}`), strict)
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("sql"))
}
