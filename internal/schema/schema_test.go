package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "age": {"type": "integer", "minimum": 0}
  },
  "required": ["name"]
}`

const sampleYAML = `
$schema: "https://json-schema.org/draft/2020-12/schema"
type: object
required:
  - name
properties:
  age:
    type: integer
    minimum: 0
  name:
    type: string
`

func TestNormalize_Idempotent(t *testing.T) {
	once, err := Normalize([]byte(sampleJSON), NormalizeOptions{})
	require.NoError(t, err)

	twice, err := Normalize(once, NormalizeOptions{})
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}

func TestNormalize_YAMLAndJSONAgree(t *testing.T) {
	fromJSON, err := Normalize([]byte(sampleJSON), NormalizeOptions{})
	require.NoError(t, err)

	fromYAML, err := Normalize([]byte(sampleYAML), NormalizeOptions{})
	require.NoError(t, err)

	assert.Equal(t, string(fromJSON), string(fromYAML))
}

func TestCompileAndValidateData(t *testing.T) {
	validator, err := CompileSchema([]byte(sampleJSON))
	require.NoError(t, err)

	result := ValidateData(map[string]any{"name": "Ada"}, validator)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Diagnostics)

	result = ValidateData(map[string]any{"age": -1}, validator)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Diagnostics)
}

func TestFormatDiagnostics_Empty(t *testing.T) {
	assert.Equal(t, "No validation issues found.", FormatDiagnostics(nil))
}

func TestDetectFormat(t *testing.T) {
	f, ok := DetectFormat("signals.schema.json")
	assert.True(t, ok)
	assert.Equal(t, FormatJSON, f)

	f, ok = DetectFormat("signals.schema.yaml")
	assert.True(t, ok)
	assert.Equal(t, FormatYAML, f)

	_, ok = DetectFormat("signals.schema.txt")
	assert.False(t, ok)
}
