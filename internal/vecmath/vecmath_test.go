package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestCosine_Degenerate(t *testing.T) {
	assert.Zero(t, Cosine([]float32{1, 2}, []float32{1}))
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestTopK(t *testing.T) {
	got := TopK([]float64{0.2, 0.9, 0.5, 0.9}, 3)

	assert.Equal(t, []Scored{{1, 0.9}, {3, 0.9}, {2, 0.5}}, got)
}

func TestTopK_AllWhenKNotPositive(t *testing.T) {
	assert.Len(t, TopK([]float64{1, 2, 3}, 0), 3)
	assert.Len(t, TopK([]float64{1, 2, 3}, 10), 3)
	assert.Empty(t, TopK(nil, 5))
}
