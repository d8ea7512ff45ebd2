package jsonschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altshiftab/jsonschema-decode/pkg/jsonschema"
)

func TestBuildObjectWithNestedPropertiesAndRequired(t *testing.T) {
	data := []byte(`{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"address": {
				"type": "object",
				"properties": {"city": {"type": "string"}},
				"required": ["city"]
			}
		},
		"required": ["name"]
	}`)

	a, root, err := jsonschema.Build(data)
	require.NoError(t, err)
	assert.Equal(t, jsonschema.KindObject, a.Kind(root))
	assert.Equal(t, []string{"address", "name"}, a.ObjectKeys(root))

	_, required := a.Required(root)["name"]
	assert.True(t, required)
	_, notRequired := a.Required(root)["address"]
	assert.False(t, notRequired)

	addrID, ok := a.Property(root, "address")
	require.True(t, ok)
	assert.Equal(t, jsonschema.KindObject, a.Kind(addrID))

	cityID, ok := a.Property(addrID, "city")
	require.True(t, ok)
	assert.Equal(t, jsonschema.KindString, a.Kind(cityID))
}

func TestBuildArrayWithItems(t *testing.T) {
	data := []byte(`{"type": "array", "items": {"type": "number"}}`)

	a, root, err := jsonschema.Build(data)
	require.NoError(t, err)
	assert.Equal(t, jsonschema.KindArray, a.Kind(root))
	assert.Equal(t, jsonschema.KindNumber, a.Kind(a.Items(root)))
}

func TestBuildArrayWithoutItemsMatchesAnything(t *testing.T) {
	data := []byte(`{"type": "array"}`)

	a, root, err := jsonschema.Build(data)
	require.NoError(t, err)
	assert.Equal(t, jsonschema.NoNode, a.Items(root))
}

func TestBuildUntypedSchemaIsAny(t *testing.T) {
	a, root, err := jsonschema.Build([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, jsonschema.KindAny, a.Kind(root))
}

func TestBuildTypeUnionCollapsesToAny(t *testing.T) {
	a, root, err := jsonschema.Build([]byte(`{"type": ["string", "number"]}`))
	require.NoError(t, err)
	assert.Equal(t, jsonschema.KindAny, a.Kind(root))
}

func TestBuildRejectsUnrecognizedType(t *testing.T) {
	_, _, err := jsonschema.Build([]byte(`{"type": "not-a-type"}`))
	require.Error(t, err)

	var buildErr *jsonschema.BuildError
	assert.ErrorAs(t, err, &buildErr)
}

func TestBuildEnumAndConstAreRecordedButDoNotAffectKind(t *testing.T) {
	a, root, err := jsonschema.Build([]byte(`{"type": "string", "enum": ["a", "b"], "const": "a"}`))
	require.NoError(t, err)
	assert.Equal(t, jsonschema.KindString, a.Kind(root))
	assert.Equal(t, []any{"a", "b"}, a.Enum(root))

	constVal, hasConst := a.Const(root)
	assert.True(t, hasConst)
	assert.Equal(t, "a", constVal)
}

func TestWalkVisitsEveryReachableNodeOnce(t *testing.T) {
	data := []byte(`{
		"type": "object",
		"properties": {
			"tags": {"type": "array", "items": {"type": "string"}},
			"name": {"type": "string"}
		}
	}`)

	a, root, err := jsonschema.Build(data)
	require.NoError(t, err)

	var visited []jsonschema.NodeID
	a.Walk(root, func(id jsonschema.NodeID) {
		visited = append(visited, id)
	})

	assert.Len(t, visited, 4) // root, tags, tags.items, name
}
