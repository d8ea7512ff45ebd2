// Package jsonschema models the closed subset of JSON Schema this
// core honors (type, properties, required, items, plus enum/const
// recorded for the post-hoc validator) as a flat arena of nodes
// addressed by integer id, rather than a graph of pointers. An arena
// is built once per request from the input schema document and is
// immutable and safe for concurrent read-only use thereafter.
package jsonschema

// NodeID identifies a Node within an Arena. It is stable for the
// lifetime of the Arena and is the identity the trie index
// (pkg/trieindex) keys its per-object tries on.
type NodeID int

// NoNode is the sentinel NodeID signaling "no such node" — an any-typed
// value position, an array with no items schema, or an unresolved
// property lookup.
const NoNode NodeID = -1

type nodeData struct {
	kind       Kind
	properties map[string]NodeID
	required   map[string]struct{}
	items      NodeID
	objectKeys []string // sorted, derived from properties
	enum       []any
	hasConst   bool
	constVal   any
}

// Arena owns a tree of schema nodes, addressed by NodeID.
type Arena struct {
	nodes []nodeData
}

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) alloc(n nodeData) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// Kind returns the kind of node id.
func (a *Arena) Kind(id NodeID) Kind { return a.nodes[id].kind }

// Properties returns the direct property map of an object node, keyed
// by property name. Returns nil for non-object nodes.
func (a *Arena) Properties(id NodeID) map[string]NodeID { return a.nodes[id].properties }

// Required returns the set of required property names of an object
// node. Returns nil if there is none.
func (a *Arena) Required(id NodeID) map[string]struct{} { return a.nodes[id].required }

// Items returns the item schema of an array node, or NoNode if the
// array has none (matches anything).
func (a *Arena) Items(id NodeID) NodeID { return a.nodes[id].items }

// ObjectKeys returns the sorted property names of an object node.
func (a *Arena) ObjectKeys(id NodeID) []string { return a.nodes[id].objectKeys }

// Enum returns the enum constraint recorded on id, if any.
func (a *Arena) Enum(id NodeID) []any { return a.nodes[id].enum }

// Const returns the const constraint recorded on id, if any.
func (a *Arena) Const(id NodeID) (any, bool) {
	n := a.nodes[id]
	return n.constVal, n.hasConst
}

// Property looks up a direct child of an object node by key.
func (a *Arena) Property(id NodeID, key string) (NodeID, bool) {
	if id == NoNode {
		return NoNode, false
	}
	c, ok := a.nodes[id].properties[key]
	return c, ok
}

// Walk invokes fn once for id and every node reachable from it
// through properties and items.
func (a *Arena) Walk(id NodeID, fn func(NodeID)) {
	seen := make(map[NodeID]bool)
	var rec func(NodeID)
	rec = func(cur NodeID) {
		if cur == NoNode || seen[cur] {
			return
		}
		seen[cur] = true
		fn(cur)
		n := a.nodes[cur]
		for _, c := range n.properties {
			rec(c)
		}
		rec(n.items)
	}
	rec(id)
}
