package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cifarLabels = []string{"airplane", "automobile", "bird", "cat", "deer"}

func TestSoftmaxSumsToOne(t *testing.T) {
	tests := []struct {
		name   string
		logits []float32
	}{
		{"small positive", []float32{0.1, 0.2, 0.3, 5.0, 0.4}},
		{"negative", []float32{-3.5, -0.1, -7.2}},
		{"uniform", []float32{1, 1, 1, 1}},
		{"single", []float32{42}},
		{"large magnitude", []float32{1000, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs := Softmax(tt.logits)
			require.Len(t, probs, len(tt.logits))

			var sum float64
			for _, p := range probs {
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
		})
	}
}

func TestSoftmaxLargeLogitsAreFinite(t *testing.T) {
	for _, logits := range [][]float32{
		{1000, 1, 1},
		{-1000, 0, 1000},
		{88, 89, 90}, // near float32 exp overflow if unshifted
	} {
		for _, p := range Softmax(logits) {
			assert.False(t, math.IsNaN(p), "logits %v produced NaN", logits)
			assert.False(t, math.IsInf(p, 0), "logits %v produced Inf", logits)
		}
	}
}

func TestSoftmaxEmpty(t *testing.T) {
	assert.Nil(t, Softmax(nil))
}

func TestRankLengthClamping(t *testing.T) {
	logits := []float32{0.1, 0.2, 0.3, 5.0, 0.4}

	tests := []struct {
		topK int
		want int
	}{
		{0, 0},
		{-1, 0},
		{3, 3},
		{5, 5},
		{100, 5},
	}

	for _, tt := range tests {
		assert.Len(t, Rank(logits, cifarLabels, tt.topK), tt.want, "topK=%d", tt.topK)
	}
}

func TestRankDescendingOrder(t *testing.T) {
	result := Rank([]float32{0.7, -1.2, 3.3, 0.0, 2.1}, cifarLabels, 5)
	require.Len(t, result, 5)

	for i := 1; i < len(result); i++ {
		assert.GreaterOrEqual(t, result[i-1].Confidence, result[i].Confidence)
	}
}

func TestRankTopResult(t *testing.T) {
	// Index 3 ("cat") has the dominant logit.
	result := Rank([]float32{0.1, 0.2, 0.3, 5.0, 0.4}, cifarLabels, 5)
	require.Len(t, result, 5)

	assert.Equal(t, "cat", result[0].Label)
	assert.InDelta(t, 0.9663, result[0].Confidence, 1e-3)

	var sum float64
	for _, p := range result {
		sum += p.Confidence
	}
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestRankTruncatedSubsetSumsBelowOne(t *testing.T) {
	result := Rank([]float32{1, 2, 3, 4, 5}, cifarLabels, 2)
	require.Len(t, result, 2)

	var sum float64
	for _, p := range result {
		sum += p.Confidence
	}
	assert.LessOrEqual(t, sum, 1.0+1e-9)
}

func TestRankTiesKeepIndexOrder(t *testing.T) {
	result := Rank([]float32{2, 2, 2, 2, 2}, cifarLabels, 5)
	require.Len(t, result, 5)

	for i, p := range result {
		assert.Equal(t, cifarLabels[i], p.Label)
	}
}

func TestRankConfidenceRoundedToFourDecimals(t *testing.T) {
	result := Rank([]float32{0.13, 1.7, -0.2, 0.99, 2.4}, cifarLabels, 5)
	for _, p := range result {
		scaled := p.Confidence * 10000
		assert.InDelta(t, math.Round(scaled), scaled, 1e-9, "confidence %v is not rounded", p.Confidence)
	}
}
