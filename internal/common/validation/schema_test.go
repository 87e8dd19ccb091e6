package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["plan"],
	"properties": {
		"plan": {"type": "string", "enum": ["explorer", "connoisseur"]},
		"vibes": {"type": "array", "items": {"type": "string"}, "maxItems": 2}
	}
}`

func TestSchema_Validate(t *testing.T) {
	s := MustCompileSchema(testSchema)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		valid     bool
		errField  string
		errorCode string
	}{
		{"valid", map[string]interface{}{"plan": "explorer", "vibes": []interface{}{"lively"}}, true, "", ""},
		{"missing plan", map[string]interface{}{}, false, "plan", "REQUIRED"},
		{"bad enum", map[string]interface{}{"plan": "gold"}, false, "plan", "ENUM"},
		{"too many vibes", map[string]interface{}{"plan": "explorer", "vibes": []interface{}{"a", "b", "c"}}, false, "vibes", "ARRAY_MAX_ITEMS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Validate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.Empty(t, res.Errors)
				return
			}
			require.NotEmpty(t, res.Errors)
			assert.True(t, res.HasErrors(tt.errField), res.GetErrorMessages())
			assert.Equal(t, tt.errorCode, res.GetErrorsForField(tt.errField)[0].Code)
		})
	}
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompileSchema(`not json`) })
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("guest@example.jp"))
	assert.False(t, ValidateEmail("guest@"))
}
