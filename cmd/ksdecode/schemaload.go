package main

import (
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// loadSchema returns data, the schema document already read from
// path, as JSON: it converts YAML to JSON first if path's extension
// calls for it, since schema authors commonly write these documents
// by hand in YAML.
func loadSchema(path string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("ksdecode: parsing YAML schema: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("ksdecode: converting schema to JSON: %w", err)
		}
		return converted, nil
	default:
		return data, nil
	}
}
