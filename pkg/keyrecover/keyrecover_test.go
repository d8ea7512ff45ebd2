package keyrecover_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/altshiftab/jsonschema-decode/pkg/keyrecover"
)

func TestNormalizeLowercasesStripsSeparatorsAndTrims(t *testing.T) {
	assert.Equal(t, "firstname", keyrecover.Normalize("  First_Name  "))
	assert.Equal(t, "firstname", keyrecover.Normalize("first-name"))
}

func TestLevenshteinKnownDistances(t *testing.T) {
	assert.Equal(t, 0, keyrecover.Levenshtein("abc", "abc"))
	assert.Equal(t, 1, keyrecover.Levenshtein("abc", "abd"))
	assert.Equal(t, 3, keyrecover.Levenshtein("", "abc"))
	assert.Equal(t, 1, keyrecover.Levenshtein("kitten", "sitten"))
}

func TestSnapExactNormalizedMatchWins(t *testing.T) {
	got, ok := keyrecover.Snap("First_Name", map[string]struct{}{"firstName": {}, "lastName": {}}, 2)
	assert.True(t, ok)
	assert.Equal(t, "firstName", got)
}

func TestSnapPrefixMatch(t *testing.T) {
	got, ok := keyrecover.SnapOrdered("addr", []string{"address", "addressee"}, 2)
	assert.True(t, ok)
	assert.Equal(t, "address", got)
}

func TestSnapEditDistanceWithinThreshold(t *testing.T) {
	got, ok := keyrecover.SnapOrdered("naem", []string{"name", "email"}, 2)
	assert.True(t, ok)
	assert.Equal(t, "name", got)
}

func TestSnapBeyondThresholdFails(t *testing.T) {
	_, ok := keyrecover.SnapOrdered("xyz123completely", []string{"name", "email"}, 2)
	assert.False(t, ok)
}

func TestSnapNoCandidatesFails(t *testing.T) {
	_, ok := keyrecover.Snap("name", map[string]struct{}{}, 2)
	assert.False(t, ok)
}

func TestSnapOrderedTiesBreakByFirstOccurrence(t *testing.T) {
	// Both "cat" and "car" are distance 1 from "cab"; "cat" is listed
	// first so it wins the tie.
	got, ok := keyrecover.SnapOrdered("cab", []string{"cat", "car"}, 2)
	assert.True(t, ok)
	assert.Equal(t, "cat", got)
}
