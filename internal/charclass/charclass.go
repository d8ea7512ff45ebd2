// Package charclass discovers and memoizes, per tokenizer, the sets
// of token ids whose decoded text carries each JSON structural
// character. This is the "scan the vocabulary once" side of
// SpecialTokens; a Tokenizer that already knows its own special
// tokens can skip the scan by implementing
// tokenizer.SpecialTokenProvider.
package charclass

import (
	"strings"
	"sync"

	"github.com/altshiftab/jsonschema-decode/pkg/tokenizer"
)

// Cache memoizes each tokenizer's special-token sets, guarded the way
// the teacher's schema cache guards its map: the critical section is
// only the map lookup/insert, never the scan itself.
type Cache struct {
	mu sync.Mutex
	m  map[string]tokenizer.SpecialTokens
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{m: make(map[string]tokenizer.SpecialTokens)}
}

// Resolve returns the special-token sets for tok, computing and
// caching them on first use for this tokenizer's fingerprint.
func (c *Cache) Resolve(tok tokenizer.Tokenizer, searchLimit int) tokenizer.SpecialTokens {
	fp := tok.Fingerprint()

	c.mu.Lock()
	st, ok := c.m[fp]
	c.mu.Unlock()
	if ok {
		return st
	}

	st = resolveUncached(tok, searchLimit)

	c.mu.Lock()
	c.m[fp] = st
	c.mu.Unlock()

	return st
}

func resolveUncached(tok tokenizer.Tokenizer, searchLimit int) tokenizer.SpecialTokens {
	if p, ok := tok.(tokenizer.SpecialTokenProvider); ok {
		return p.SpecialTokens()
	}

	st := tokenizer.SpecialTokens{
		Quote:        map[int32]struct{}{},
		BraceOpen:    map[int32]struct{}{},
		BraceClose:   map[int32]struct{}{},
		BracketOpen:  map[int32]struct{}{},
		BracketClose: map[int32]struct{}{},
		Comma:        map[int32]struct{}{},
		Colon:        map[int32]struct{}{},
		Backslash:    map[int32]struct{}{},
		Whitespace:   map[int32]struct{}{},
	}

	limit := searchLimit
	if vs, ok := tok.VocabSize(); ok && vs < limit {
		limit = vs
	}

	for id := int32(0); id < int32(limit); id++ {
		text := tok.DecodeToken(id)
		if text == "" {
			continue
		}

		if strings.Contains(text, `"`) {
			st.Quote[id] = struct{}{}
		}
		if strings.Contains(text, "{") {
			st.BraceOpen[id] = struct{}{}
		}
		if strings.Contains(text, "}") {
			st.BraceClose[id] = struct{}{}
		}
		if strings.Contains(text, "[") {
			st.BracketOpen[id] = struct{}{}
		}
		if strings.Contains(text, "]") {
			st.BracketClose[id] = struct{}{}
		}
		if strings.Contains(text, ",") {
			st.Comma[id] = struct{}{}
		}
		if strings.Contains(text, ":") {
			st.Colon[id] = struct{}{}
		}
		if strings.Contains(text, `\`) {
			st.Backslash[id] = struct{}{}
		}
		if text != "" && strings.TrimSpace(text) == "" {
			st.Whitespace[id] = struct{}{}
		}
	}

	return st
}
