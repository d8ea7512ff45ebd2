// Package tokenizer declares the narrow seam this core consumes from
// a model's vocabulary and encode/decode pipeline. It never loads a
// model or a vocabulary file itself.
package tokenizer

// Tokenizer is the interface a caller supplies to drive constrained
// decoding. Implementations wrap whatever tokenizer library backs the
// model in use; this core only ever calls these methods.
type Tokenizer interface {
	// Encode returns the token ids for text, using whatever
	// tokenization algorithm (BPE, unigram, ...) the implementation
	// wraps. Used to build token tries from schema property names.
	Encode(text string) []int32

	// Decode renders a full sequence of token ids back to text.
	Decode(ids []int32) string

	// DecodeToken renders a single token id to the text fragment it
	// represents in isolation. May differ from indexing into
	// Decode([]int32{id}) when a tokenizer's decode merges adjacent
	// byte-pair boundaries; implementations should return the same
	// fragment a one-token Decode call would.
	DecodeToken(id int32) string

	// VocabSize returns the size of the vocabulary, if known. Used to
	// bound special-token and type-preferred-token scans.
	VocabSize() (int, bool)

	// EOSTokenID returns the end-of-sequence token id, if the
	// tokenizer has one.
	EOSTokenID() (int32, bool)

	// Fingerprint returns a stable identifier for this tokenizer
	// (e.g. a hash of its vocabulary), used as half of the trie-index
	// cache key (pkg/trieindex) and the special-token cache key
	// (internal/charclass).
	Fingerprint() string
}

// SpecialTokens is the set of token ids whose decoded text contains
// each JSON structural character, computed once per tokenizer fingerprint.
type SpecialTokens struct {
	Quote        map[int32]struct{}
	BraceOpen    map[int32]struct{}
	BraceClose   map[int32]struct{}
	BracketOpen  map[int32]struct{}
	BracketClose map[int32]struct{}
	Comma        map[int32]struct{}
	Colon        map[int32]struct{}
	Backslash    map[int32]struct{}
	Whitespace   map[int32]struct{}
}

// SpecialTokenProvider is an optional interface a Tokenizer may
// implement to report its own special-token sets directly, skipping
// the O(vocab size) scan in internal/charclass.
type SpecialTokenProvider interface {
	SpecialTokens() SpecialTokens
}
