// Package tokentrie implements a token-level trie over a set of
// schema object keys, built against a specific tokenizer's Encode. It
// lets the processor track, token by token, whether the model is
// still producing a valid key and which tokens may legally extend it.
package tokentrie

type node struct {
	children map[int32]*node
	terminal bool
	keyName  string
}

// Trie is an immutable (after Build) tree whose edges are token ids
// and whose terminal nodes carry the schema key they complete.
type Trie struct {
	root    *node
	allKeys []string
}

// Build inserts the token-id sequence for each key, as produced by
// encode(key). Keys that tokenize to an empty sequence are skipped;
// keys that tokenize identically collapse onto the same terminal.
func Build(keys []string, encode func(string) []int32) *Trie {
	t := &Trie{root: &node{children: map[int32]*node{}}}

	for _, k := range keys {
		ids := encode(k)
		if len(ids) == 0 {
			continue
		}

		cur := t.root
		for _, id := range ids {
			next, ok := cur.children[id]
			if !ok {
				next = &node{children: map[int32]*node{}}
				cur.children[id] = next
			}
			cur = next
		}

		if !cur.terminal {
			t.allKeys = append(t.allKeys, k)
		}
		cur.terminal = true
		cur.keyName = k
	}

	return t
}

// AllKeys returns every key inserted into the trie, in insertion
// order (schema nodes insert their ObjectKeys, which are already
// sorted).
func (t *Trie) AllKeys() []string { return t.allKeys }

// Path is a cursor into a Trie, tracking the tokens consumed so far.
type Path struct {
	cur    *node
	tokens []int32
}

// NewPath returns a path positioned at the trie root.
func (t *Trie) NewPath() *Path {
	return &Path{cur: t.root}
}

// Append advances the path by one token id. It reports false, leaving
// the path unchanged, if id is not a valid child of the current node.
func (p *Path) Append(id int32) bool {
	next, ok := p.cur.children[id]
	if !ok {
		return false
	}
	p.cur = next
	p.tokens = append(p.tokens, id)
	return true
}

// AllowedTokens returns the token ids that can legally extend the
// current path.
func (p *Path) AllowedTokens() map[int32]struct{} {
	out := make(map[int32]struct{}, len(p.cur.children))
	for id := range p.cur.children {
		out[id] = struct{}{}
	}
	return out
}

// IsAtTerminal reports whether the current position completes a key.
func (p *Path) IsAtTerminal() bool { return p.cur.terminal }

// KeyName returns the key recorded at the current terminal node. It
// is only meaningful when IsAtTerminal is true.
func (p *Path) KeyName() string { return p.cur.keyName }

// Reset returns the path to t's root, discarding tokens consumed so far.
func (p *Path) Reset(t *Trie) {
	p.cur = t.root
	p.tokens = p.tokens[:0]
}

// Tokens returns a copy of the token ids consumed so far.
func (p *Path) Tokens() []int32 {
	return append([]int32(nil), p.tokens...)
}
