// Package testtok provides a small in-memory tokenizer.Tokenizer
// implementation for tests across this module, so each package's
// tests do not need to hand-roll one.
package testtok

import (
	"fmt"
	"strings"
)

// Fake is a greedy longest-match tokenizer good enough to exercise
// this core's packages without a real BPE vocabulary. Its vocabulary
// is whatever strings are registered via Register, plus a fallback
// one-token-per-rune scheme for unregistered text.
type Fake struct {
	fingerprint string
	byID        []string
	byText      map[string]int32
	eos         int32
	hasEOS      bool
}

// New returns an empty Fake tokenizer with no EOS token; call SetEOS
// to register one.
func New(fingerprint string) *Fake {
	f := &Fake{fingerprint: fingerprint, byText: make(map[string]int32)}
	return f
}

// Register assigns the next free token id to text, returning that id.
// If text is already registered its existing id is returned.
func (f *Fake) Register(text string) int32 {
	if id, ok := f.byText[text]; ok {
		return id
	}
	id := int32(len(f.byID))
	f.byID = append(f.byID, text)
	f.byText[text] = id
	return id
}

// SetEOS registers eos (if not already present) and marks it as the
// end-of-sequence token.
func (f *Fake) SetEOS(eos string) int32 {
	id := f.Register(eos)
	f.eos = id
	f.hasEOS = true
	return id
}

// Encode splits text into the longest registered tokens it can find,
// greedily, falling back to one token per rune for anything
// unregistered (registering it on the fly).
func (f *Fake) Encode(text string) []int32 {
	var out []int32
	runes := []rune(text)
	for i := 0; i < len(runes); {
		matched := false
		for l := len(runes) - i; l > 0; l-- {
			cand := string(runes[i : i+l])
			if id, ok := f.byText[cand]; ok {
				out = append(out, id)
				i += l
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, f.Register(string(runes[i])))
			i++
		}
	}
	return out
}

// Decode concatenates the decoded text of each token id.
func (f *Fake) Decode(ids []int32) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(f.DecodeToken(id))
	}
	return b.String()
}

// DecodeToken returns the registered text for id.
func (f *Fake) DecodeToken(id int32) string {
	if int(id) < 0 || int(id) >= len(f.byID) {
		return ""
	}
	return f.byID[id]
}

// VocabSize returns the current vocabulary size.
func (f *Fake) VocabSize() (int, bool) { return len(f.byID), true }

// EOSTokenID returns the registered EOS token id, if any.
func (f *Fake) EOSTokenID() (int32, bool) { return f.eos, f.hasEOS }

// Fingerprint returns the fingerprint passed to New.
func (f *Fake) Fingerprint() string { return f.fingerprint }

// String is for debugging only.
func (f *Fake) String() string {
	return fmt.Sprintf("testtok.Fake{vocab=%d}", len(f.byID))
}
