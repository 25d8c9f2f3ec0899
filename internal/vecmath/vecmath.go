// Package vecmath holds the vector arithmetic shared by the vector stores
// and the keyword extractor.
package vecmath

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b.
// Mismatched lengths and zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Scored pairs an index into the candidate list with its score.
type Scored struct {
	Index int
	Score float64
}

// TopK returns the k highest scores, descending. Equal scores keep their
// input order, so callers passing candidates in insertion order get
// insertion-order tie breaking. k <= 0 returns all.
func TopK(scores []float64, k int) []Scored {
	out := make([]Scored, len(scores))
	for i, s := range scores {
		out[i] = Scored{Index: i, Score: s}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}
