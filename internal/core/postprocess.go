package core

import (
	"math"
	"sort"

	"vision-backend/pkg/api"
)

// Softmax converts raw logits into a probability distribution. The max
// logit is subtracted before exponentiating so that large-magnitude
// logits cannot overflow into Inf/NaN.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := float64(logits[0])
	for _, v := range logits[1:] {
		if float64(v) > maxLogit {
			maxLogit = float64(v)
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v) - maxLogit)
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// Rank applies Softmax to logits and returns the topK highest-probability
// labels in descending order. topK is clamped to [0, len(logits)]. Ties
// keep the lower index first so output is deterministic. Ranking uses
// full-precision probabilities; rounding to 4 decimal places happens only
// on the returned values.
func Rank(logits []float32, labels []string, topK int) []api.Prediction {
	probs := Softmax(logits)

	if topK > len(probs) {
		topK = len(probs)
	}
	if topK < 0 {
		topK = 0
	}

	indices := make([]int, len(probs))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return probs[indices[a]] > probs[indices[b]]
	})

	result := make([]api.Prediction, 0, topK)
	for _, i := range indices[:topK] {
		result = append(result, api.Prediction{
			Label:      labels[i],
			Confidence: math.Round(probs[i]*10000) / 10000,
		})
	}
	return result
}
