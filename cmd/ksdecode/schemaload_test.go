package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchemaPassesThroughJSON(t *testing.T) {
	data := []byte(`{"type": "string"}`)
	out, err := loadSchema("schema.json", data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestLoadSchemaConvertsYAMLToJSON(t *testing.T) {
	yamlDoc := []byte("type: object\nproperties:\n  name:\n    type: string\nrequired:\n  - name\n")
	out, err := loadSchema("schema.yaml", yamlDoc)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(out, &parsed))
	assert.Equal(t, "object", parsed["type"])
}

func TestLoadSchemaRejectsMalformedYAML(t *testing.T) {
	_, err := loadSchema("schema.yml", []byte("type: [unterminated"))
	assert.Error(t, err)
}
