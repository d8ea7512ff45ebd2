// Package logits provides the small set of operations the processor
// performs on a step's logit vector: hard masking of disallowed
// token ids and additive biasing of preferred ones.
package logits

// Vector is a dense logit tensor indexed by token id.
type Vector []float32

// NegInf is the value used to hard-mask a disallowed position. It is
// a large finite negative rather than math.Inf(-1) so that
// downstream softmax/sampling code that might do arithmetic on it
// (e.g. temperature scaling) does not produce NaN.
const NegInf = float32(-1e30)

// Mask sets every position not in allowed to NegInf, except eos
// (when hasEOS is true), which is never masked: the generator must
// always be able to stop.
func Mask(v Vector, allowed map[int32]struct{}, eos int32, hasEOS bool) {
	for id := range v {
		if _, ok := allowed[int32(id)]; ok {
			continue
		}
		if hasEOS && int32(id) == eos {
			continue
		}
		v[id] = NegInf
	}
}

// Bias adds amount to every position in preferred.
func Bias(v Vector, preferred map[int32]struct{}, amount float32) {
	for id := range preferred {
		if int(id) >= 0 && int(id) < len(v) {
			v[id] += amount
		}
	}
}

// BiasOne adds amount to a single token id.
func BiasOne(v Vector, id int32, amount float32) {
	if int(id) >= 0 && int(id) < len(v) {
		v[id] += amount
	}
}
