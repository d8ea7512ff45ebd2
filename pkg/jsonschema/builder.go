package jsonschema

import "sort"

// Builder constructs an Arena node by node, in the chainable style of
// the teacher's generic JSON-Schema builder, generalized down to this
// core's closed set of kinds: object, array, string, number, boolean,
// null, any.
type Builder struct {
	a *Arena
}

// NewBuilder returns a Builder backed by a fresh Arena.
func NewBuilder() *Builder {
	return &Builder{a: NewArena()}
}

// Arena returns the Arena the Builder is filling in.
func (b *Builder) Arena() *Arena { return b.a }

// ObjectBuilder accumulates the properties and required set of an
// object node before it is allocated.
type ObjectBuilder struct {
	b          *Builder
	properties map[string]NodeID
	required   map[string]struct{}
}

// Object starts building an object node.
func (b *Builder) Object() *ObjectBuilder {
	return &ObjectBuilder{b: b, properties: make(map[string]NodeID)}
}

// Property adds a property to the object under construction.
func (ob *ObjectBuilder) Property(name string, id NodeID) *ObjectBuilder {
	ob.properties[name] = id
	return ob
}

// Require marks the given property names as required.
func (ob *ObjectBuilder) Require(names ...string) *ObjectBuilder {
	if ob.required == nil {
		ob.required = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		ob.required[n] = struct{}{}
	}
	return ob
}

// Done allocates the object node and returns its id.
func (ob *ObjectBuilder) Done() NodeID {
	keys := make([]string, 0, len(ob.properties))
	for k := range ob.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return ob.b.a.alloc(nodeData{
		kind:       KindObject,
		properties: ob.properties,
		required:   ob.required,
		items:      NoNode,
		objectKeys: keys,
	})
}

// Array allocates an array node with the given item schema (NoNode
// for "items: true", i.e. unconstrained items).
func (b *Builder) Array(items NodeID) NodeID {
	return b.a.alloc(nodeData{kind: KindArray, items: items})
}

// String allocates a string-typed leaf node.
func (b *Builder) String() NodeID { return b.a.alloc(nodeData{kind: KindString, items: NoNode}) }

// Number allocates a number-typed leaf node.
func (b *Builder) Number() NodeID { return b.a.alloc(nodeData{kind: KindNumber, items: NoNode}) }

// Boolean allocates a boolean-typed leaf node.
func (b *Builder) Boolean() NodeID { return b.a.alloc(nodeData{kind: KindBoolean, items: NoNode}) }

// Null allocates a null-typed leaf node.
func (b *Builder) Null() NodeID { return b.a.alloc(nodeData{kind: KindNull, items: NoNode}) }

// Any allocates an untyped leaf node, matching any JSON value.
func (b *Builder) Any() NodeID { return b.a.alloc(nodeData{kind: KindAny, items: NoNode}) }

// Enum attaches an enum constraint to an already-allocated node,
// consulted only by the post-hoc validator (pkg/validate).
func (b *Builder) Enum(id NodeID, values ...any) NodeID {
	b.a.nodes[id].enum = values
	return id
}

// Const attaches a const constraint to an already-allocated node,
// consulted only by the post-hoc validator (pkg/validate).
func (b *Builder) Const(id NodeID, value any) NodeID {
	b.a.nodes[id].hasConst = true
	b.a.nodes[id].constVal = value
	return id
}
