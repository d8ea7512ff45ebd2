// Package keyrecover implements closest-key recovery for a decoded
// object key that failed to match the token trie exactly: normalize
// the raw text and the candidate keys, then snap to the best
// candidate by exact match, prefix match, or bounded edit distance.
package keyrecover

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the maximum Levenshtein distance a normalized
// candidate may be from the raw text and still be snapped to.
const DefaultThreshold = 2

// Normalize canonicalizes a key candidate: NFC-normalize (so
// combining-mark variants of the same text compare equal), trim
// surrounding whitespace, lowercase, and strip '_' and '-'.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// Levenshtein returns the edit distance (insertion, deletion, and
// substitution each cost 1) between a and b.
func Levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	cur := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		cur[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost

			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}

	return prev[len(br)]
}

// Snap finds the schema key that best matches raw among candidates.
// Candidate order is not significant here: ties are broken by
// sorting candidates first, for determinism. Callers that already
// have a meaningful candidate order (e.g. a schema's declared
// property order) should use SnapOrdered instead.
func Snap(raw string, candidates map[string]struct{}, threshold int) (string, bool) {
	ordered := make([]string, 0, len(candidates))
	for k := range candidates {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)
	return SnapOrdered(raw, ordered, threshold)
}

// SnapOrdered is like Snap but takes an explicitly ordered candidate
// list, so Levenshtein ties break by first occurrence in candidates.
func SnapOrdered(raw string, candidates []string, threshold int) (string, bool) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return snapOrdered(Normalize(raw), candidates, threshold)
}

func snapOrdered(normRaw string, candidates []string, threshold int) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	for _, c := range candidates {
		if Normalize(c) == normRaw {
			return c, true
		}
	}

	for _, c := range candidates {
		nc := Normalize(c)
		if nc == "" || normRaw == "" {
			continue
		}
		if strings.HasPrefix(nc, normRaw) || strings.HasPrefix(normRaw, nc) {
			return c, true
		}
	}

	best := ""
	bestDist := threshold + 1
	for _, c := range candidates {
		d := Levenshtein(normRaw, Normalize(c))
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	if best != "" && bestDist <= threshold {
		return best, true
	}

	return "", false
}
