package jsonschema

import (
	"fmt"
	"sort"

	motmedelErrors "github.com/Motmedel/utils_go/pkg/errors"
	json "github.com/goccy/go-json"
)

// BuildError reports a failure to interpret some part of a JSON
// Schema document as a node in this core's closed type model.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("jsonschema: build error at %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

type rawSchema struct {
	Type       any                  `json:"type"`
	Properties map[string]rawSchema `json:"properties"`
	Required   []string             `json:"required"`
	Items      *rawSchema           `json:"items"`
	Enum       []any                `json:"enum"`
	Const      *any                 `json:"const"`
}

// Build parses a JSON Schema document into an Arena and returns the
// NodeID of its root node. Only type, properties, required, and
// items shape the node tree; enum and const are recorded on the node
// for the post-hoc validator (pkg/validate) but never narrow the
// decode-time grammar. Every other keyword is ignored.
func Build(data []byte) (*Arena, NodeID, error) {
	var raw rawSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NoNode, motmedelErrors.NewWithTrace(fmt.Errorf("jsonschema: unmarshal: %w", err))
	}

	a := NewArena()
	root, err := a.build(&raw, "#")
	if err != nil {
		return nil, NoNode, err
	}
	return a, root, nil
}

func (a *Arena) build(raw *rawSchema, path string) (NodeID, error) {
	kind, err := kindOf(raw.Type, path)
	if err != nil {
		return NoNode, err
	}

	n := nodeData{kind: kind, items: NoNode, enum: raw.Enum}
	if raw.Const != nil {
		n.hasConst = true
		n.constVal = *raw.Const
	}

	switch kind {
	case KindObject:
		keys := make([]string, 0, len(raw.Properties))
		for k := range raw.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		if len(keys) > 0 {
			n.properties = make(map[string]NodeID, len(keys))
		}
		for _, k := range keys {
			child := raw.Properties[k]
			childID, err := a.build(&child, path+"/properties/"+k)
			if err != nil {
				return NoNode, err
			}
			n.properties[k] = childID
		}
		n.objectKeys = keys

		if len(raw.Required) > 0 {
			n.required = make(map[string]struct{}, len(raw.Required))
			for _, k := range raw.Required {
				n.required[k] = struct{}{}
			}
		}

	case KindArray:
		if raw.Items != nil {
			itemID, err := a.build(raw.Items, path+"/items")
			if err != nil {
				return NoNode, err
			}
			n.items = itemID
		}
	}

	return a.alloc(n), nil
}

func kindOf(t any, path string) (Kind, error) {
	switch v := t.(type) {
	case nil:
		return KindAny, nil
	case string:
		switch v {
		case "object":
			return KindObject, nil
		case "array":
			return KindArray, nil
		case "string":
			return KindString, nil
		case "number", "integer":
			return KindNumber, nil
		case "boolean":
			return KindBoolean, nil
		case "null":
			return KindNull, nil
		default:
			return 0, &BuildError{Path: path, Err: fmt.Errorf("unrecognized type %q", v)}
		}
	case []any:
		// A type union disables key-level structural narrowing (it
		// still validates post-hoc via enum/const); see SPEC_FULL.md
		// §6.
		return KindAny, nil
	default:
		return 0, &BuildError{Path: path, Err: fmt.Errorf("type field has unexpected shape %T", t)}
	}
}
