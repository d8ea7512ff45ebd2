package main

import (
	"strings"

	"github.com/altshiftab/jsonschema-decode/pkg/tokenizer"
)

// asciiTokenizer is a one-byte-per-token tokenizer.Tokenizer used by
// this demo harness in place of a real model's vocabulary: each ASCII
// byte is its own token id, plus a dedicated EOS id one past the
// byte range. It exists only to give ksdecode something concrete to
// drive pkg/engine with; production callers supply their own
// tokenizer.Tokenizer wrapping whatever vocabulary their model uses.
type asciiTokenizer struct{}

const asciiEOS = int32(256)

func (asciiTokenizer) Encode(text string) []int32 {
	ids := make([]int32, 0, len(text))
	for i := 0; i < len(text); i++ {
		ids = append(ids, int32(text[i]))
	}
	return ids
}

func (t asciiTokenizer) Decode(ids []int32) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(t.DecodeToken(id))
	}
	return b.String()
}

func (asciiTokenizer) DecodeToken(id int32) string {
	if id < 0 || id > 255 {
		return ""
	}
	return string([]byte{byte(id)})
}

func (asciiTokenizer) VocabSize() (int, bool) { return 257, true }

func (asciiTokenizer) EOSTokenID() (int32, bool) { return asciiEOS, true }

func (asciiTokenizer) Fingerprint() string { return "ascii-byte-v1" }

var _ tokenizer.Tokenizer = asciiTokenizer{}
