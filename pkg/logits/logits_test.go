package logits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/altshiftab/jsonschema-decode/pkg/logits"
)

func TestMaskKeepsAllowedAndEOS(t *testing.T) {
	v := logits.Vector{1, 2, 3, 4}
	allowed := map[int32]struct{}{1: {}}
	logits.Mask(v, allowed, 3, true)

	assert.Equal(t, logits.NegInf, v[0])
	assert.Equal(t, float32(2), v[1])
	assert.Equal(t, logits.NegInf, v[2])
	assert.Equal(t, float32(4), v[3]) // eos, never masked
}

func TestMaskWithoutEOSMasksEverythingElse(t *testing.T) {
	v := logits.Vector{1, 2}
	logits.Mask(v, map[int32]struct{}{0: {}}, 0, false)
	assert.Equal(t, float32(1), v[0])
	assert.Equal(t, logits.NegInf, v[1])
}

func TestBiasAddsToEachPreferredPosition(t *testing.T) {
	v := logits.Vector{1, 1, 1}
	logits.Bias(v, map[int32]struct{}{0: {}, 2: {}}, float32(2.5))
	assert.Equal(t, float32(3.5), v[0])
	assert.Equal(t, float32(1), v[1])
	assert.Equal(t, float32(3.5), v[2])
}

func TestBiasOneIgnoresOutOfRange(t *testing.T) {
	v := logits.Vector{1}
	logits.BiasOne(v, 5, 10)
	assert.Equal(t, float32(1), v[0])
}
