// Package trieindex builds, and caches across requests, the set of
// token tries a schema needs: one per object-kind node reachable from
// its root. This generalizes the teacher's per-(schemaID, path)
// schema cache to a trie-index cache keyed by (tokenizer fingerprint,
// schema hash).
package trieindex

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/altshiftab/jsonschema-decode/pkg/jsonschema"
	"github.com/altshiftab/jsonschema-decode/pkg/tokentrie"
)

// Index maps every object-kind node reachable from a schema's root to
// its token trie. Built once per (tokenizer, schema) pair and safe
// for concurrent read-only use afterward.
type Index struct {
	tries map[jsonschema.NodeID]*tokentrie.Trie
}

// Build walks arena from root and constructs a trie for every
// object-kind node it finds, including nested objects and
// array-item objects.
func Build(a *jsonschema.Arena, root jsonschema.NodeID, encode func(string) []int32) *Index {
	idx := &Index{tries: make(map[jsonschema.NodeID]*tokentrie.Trie)}
	a.Walk(root, func(id jsonschema.NodeID) {
		if a.Kind(id) != jsonschema.KindObject {
			return
		}
		idx.tries[id] = tokentrie.Build(a.ObjectKeys(id), encode)
	})
	return idx
}

// Trie returns the token trie built for schema node id, or nil if id
// is not an object-kind node this index covers.
func (idx *Index) Trie(id jsonschema.NodeID) *tokentrie.Trie {
	return idx.tries[id]
}

// DefaultCapacity is the default number of (tokenizer, schema) entries
// the Cache retains.
const DefaultCapacity = 100

type cacheKey struct {
	tokenizerFingerprint string
	schemaHash           string
}

// Cache is an LRU of Index values. It wraps hashicorp/golang-lru/v2
// the way the teacher's ConcurrentCache wraps its own map: the
// critical section is only ever the cache lookup/insert, never the
// (expensive) trie build itself.
type Cache struct {
	lru *lru.Cache[cacheKey, *Index]
}

// NewCache returns a Cache bounded to capacity entries (DefaultCapacity
// if capacity <= 0).
func NewCache(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l, err := lru.New[cacheKey, *Index](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Get returns the cached Index for (tokenizerFingerprint, schemaHash),
// if present.
func (c *Cache) Get(tokenizerFingerprint, schemaHash string) (*Index, bool) {
	return c.lru.Get(cacheKey{tokenizerFingerprint, schemaHash})
}

// Put stores idx under the given key, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *Cache) Put(tokenizerFingerprint, schemaHash string, idx *Index) {
	c.lru.Add(cacheKey{tokenizerFingerprint, schemaHash}, idx)
}
