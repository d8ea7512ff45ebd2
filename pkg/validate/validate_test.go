package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altshiftab/jsonschema-decode/pkg/jsonschema"
	"github.com/altshiftab/jsonschema-decode/pkg/validate"
)

func build(t *testing.T, schema string) (*jsonschema.Arena, jsonschema.NodeID) {
	t.Helper()
	a, root, err := jsonschema.Build([]byte(schema))
	require.NoError(t, err)
	return a, root
}

func TestValidDocumentPasses(t *testing.T) {
	a, root := build(t, `{
		"type": "object",
		"properties": {"name": {"type": "string"}, "age": {"type": "number"}},
		"required": ["name"]
	}`)
	err := validate.JSON([]byte(`{"name": "Ada", "age": 36}`), a, root)
	assert.NoError(t, err)
}

func TestMissingRequiredPropertyFails(t *testing.T) {
	a, root := build(t, `{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"]
	}`)
	err := validate.JSON([]byte(`{}`), a, root)
	require.Error(t, err)
	errs, ok := err.(validate.Errors)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "missing_required", errs[0].Code)
}

func TestTypeMismatchFails(t *testing.T) {
	a, root := build(t, `{"type": "string"}`)
	err := validate.JSON([]byte(`42`), a, root)
	require.Error(t, err)
	errs, ok := err.(validate.Errors)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "type_mismatch", errs[0].Code)
}

func TestMalformedJSONReturnsDocumentError(t *testing.T) {
	a, root := build(t, `{"type": "object"}`)
	err := validate.JSON([]byte(`{not json`), a, root)
	require.Error(t, err)
	_, ok := err.(*validate.Error)
	assert.True(t, ok)
}

func TestEnumMismatchFails(t *testing.T) {
	a, root := build(t, `{"type": "string", "enum": ["red", "green", "blue"]}`)
	err := validate.JSON([]byte(`"purple"`), a, root)
	require.Error(t, err)
	errs, ok := err.(validate.Errors)
	require.True(t, ok)
	assert.Equal(t, "enum_mismatch", errs[0].Code)
}

func TestEnumMatchPasses(t *testing.T) {
	a, root := build(t, `{"type": "string", "enum": ["red", "green", "blue"]}`)
	err := validate.JSON([]byte(`"green"`), a, root)
	assert.NoError(t, err)
}

func TestConstMismatchFails(t *testing.T) {
	a, root := build(t, `{"type": "number", "const": 7}`)
	err := validate.JSON([]byte(`8`), a, root)
	require.Error(t, err)
	errs, ok := err.(validate.Errors)
	require.True(t, ok)
	assert.Equal(t, "const_mismatch", errs[0].Code)
}

func TestNestedArrayOfObjectsValidatesEachElement(t *testing.T) {
	a, root := build(t, `{
		"type": "array",
		"items": {
			"type": "object",
			"properties": {"id": {"type": "number"}},
			"required": ["id"]
		}
	}`)
	err := validate.JSON([]byte(`[{"id": 1}, {}]`), a, root)
	require.Error(t, err)
	errs, ok := err.(validate.Errors)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "$[1]", errs[0].Path)
}

func TestAnyTypeAcceptsAnything(t *testing.T) {
	a, root := build(t, `{}`)
	assert.NoError(t, validate.JSON([]byte(`{"whatever": [1,2,3]}`), a, root))
	assert.NoError(t, validate.JSON([]byte(`"hello"`), a, root))
}
