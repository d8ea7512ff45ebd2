// Package validate performs a post-hoc structural check of a
// completed document against a pkg/jsonschema Arena: type,
// properties, required, items, plus the enum/const constraints the
// decode-time grammar intentionally does not narrow on (see
// SPEC_FULL.md §6). It never runs during generation — only once a
// stream has finished, to confirm the sampled document actually
// satisfies constraints the token-level constraint engine cannot
// enforce live.
package validate

import (
	"embed"
	"fmt"
	"reflect"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/kaptinlin/go-i18n"
	"github.com/tidwall/gjson"

	"github.com/altshiftab/jsonschema-decode/pkg/jsonschema"
)

//go:embed locales/*.json
var localesFS embed.FS

var bundle *i18n.I18n

func init() {
	b := i18n.NewBundle(
		i18n.WithDefaultLocale("en"),
		i18n.WithLocales("en"),
	)
	if err := b.LoadFS(localesFS, "locales/*.json"); err != nil {
		panic(fmt.Errorf("validate: loading embedded locales: %w", err))
	}
	bundle = b
}

// Error is a single structural violation found by JSON, located by a
// dotted/bracketed path into the document rooted at "$" (e.g.
// "$.items[2].name").
type Error struct {
	Path    string
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Errors collects every Error found in one pass over a document.
type Errors []*Error

func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// JSON validates data against the schema rooted at root in a, using
// the "en" locale for messages. It returns nil if data is valid, an
// *Error for a document-level failure (malformed JSON), or an Errors
// collecting every structural violation found.
func JSON(data []byte, a *jsonschema.Arena, root jsonschema.NodeID) error {
	return JSONLocalized(data, a, root, "en")
}

// JSONLocalized is JSON with an explicit locale for error messages.
func JSONLocalized(data []byte, a *jsonschema.Arena, root jsonschema.NodeID, locale string) error {
	localizer := bundle.NewLocalizer(locale)

	if !gjson.ValidBytes(data) {
		return &Error{
			Code:    "invalid_json",
			Message: localizer.Get("invalid_json", i18n.Vars{"error": "malformed JSON syntax"}),
		}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &Error{
			Code:    "invalid_json",
			Message: localizer.Get("invalid_json", i18n.Vars{"error": err.Error()}),
		}
	}

	v := &validator{arena: a, localizer: localizer}
	v.walk("$", doc, root)

	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

type validator struct {
	arena     *jsonschema.Arena
	localizer *i18n.Localizer
	errs      Errors
}

func (v *validator) fail(path, code string, vars i18n.Vars) {
	v.errs = append(v.errs, &Error{Path: path, Code: code, Message: v.localizer.Get(code, vars)})
}

func (v *validator) walk(path string, value any, node jsonschema.NodeID) {
	if node == jsonschema.NoNode {
		return
	}

	kind := v.arena.Kind(node)
	if kind != jsonschema.KindAny && !kindMatches(kind, value) {
		v.fail(path, "type_mismatch", i18n.Vars{
			"expected": kind.String(),
			"actual":   kindName(value),
		})
		return
	}

	if enum := v.arena.Enum(node); len(enum) > 0 {
		if !matchesAny(value, enum) {
			v.fail(path, "enum_mismatch", nil)
		}
	}
	if constVal, ok := v.arena.Const(node); ok {
		if !deepEqualJSON(value, constVal) {
			v.fail(path, "const_mismatch", nil)
		}
	}

	switch kind {
	case jsonschema.KindObject:
		obj, _ := value.(map[string]any)
		for name := range v.arena.Required(node) {
			if _, present := obj[name]; !present {
				v.fail(path, "missing_required", i18n.Vars{"property": name})
			}
		}
		for _, key := range v.arena.ObjectKeys(node) {
			child, ok := v.arena.Property(node, key)
			if !ok {
				continue
			}
			fieldVal, present := obj[key]
			if !present {
				continue
			}
			v.walk(path+"."+key, fieldVal, child)
		}

	case jsonschema.KindArray:
		items := v.arena.Items(node)
		if items == jsonschema.NoNode {
			return
		}
		arr, _ := value.([]any)
		for i, elem := range arr {
			v.walk(fmt.Sprintf("%s[%d]", path, i), elem, items)
		}
	}
}

func kindMatches(k jsonschema.Kind, value any) bool {
	switch k {
	case jsonschema.KindObject:
		_, ok := value.(map[string]any)
		return ok
	case jsonschema.KindArray:
		_, ok := value.([]any)
		return ok
	case jsonschema.KindString:
		_, ok := value.(string)
		return ok
	case jsonschema.KindNumber:
		_, ok := value.(float64)
		return ok
	case jsonschema.KindBoolean:
		_, ok := value.(bool)
		return ok
	case jsonschema.KindNull:
		return value == nil
	default:
		return true
	}
}

func kindName(value any) string {
	switch value.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func matchesAny(value any, candidates []any) bool {
	for _, c := range candidates {
		if deepEqualJSON(value, c) {
			return true
		}
	}
	return false
}

func deepEqualJSON(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
