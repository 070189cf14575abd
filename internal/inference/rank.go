package inference

import (
	"math"
	"sort"

	"github.com/Brownie44l1/classify-api/internal/errs"
	"github.com/Brownie44l1/classify-api/internal/model"
	"github.com/Brownie44l1/classify-api/internal/vocab"
)

// Prediction is one ranked class.
type Prediction struct {
	Class  string  `json:"class"`
	Output float64 `json:"output"`
	Prob   float64 `json:"prob"`
}

// Result is the classification payload.
type Result struct {
	// Class is the model's own arg-max label. It is reported as-is and may
	// differ from Predictions[0] when outputs are close.
	Class       string       `json:"class"`
	Predictions []Prediction `json:"predictions"`
}

// Rank normalizes scores and returns the n best predictions. labels must
// be in model index order and as long as scores.Raw.
//
// Every score must be finite and non-negative; raw logits are rejected
// rather than normalized.
//
// Ordering uses the unrounded outputs, descending, with ties kept in
// vocabulary order. Output is rounded to one decimal and Prob to two after
// ordering.
func Rank(labels []string, scores model.Scores, n int) (*Result, error) {
	if len(labels) == 0 || len(labels) != len(scores.Raw) {
		return nil, errs.New(errs.Internal, "%d scores for %d labels", len(scores.Raw), len(labels))
	}
	if n <= 0 {
		return nil, errs.New(errs.InvalidInput, "n must be positive, got %d", n)
	}

	var sum float64
	for i, v := range scores.Raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errs.New(errs.DegenerateScore, "score %d (%s) is not finite", i, labels[i])
		}
		if v < 0 {
			return nil, errs.New(errs.DegenerateScore, "score %d (%s) is negative: %g", i, labels[i], v)
		}
		sum += v
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return nil, errs.New(errs.DegenerateScore, "scores sum to %g, probabilities are undefined", sum)
	}

	order := make([]int, len(scores.Raw))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores.Raw[order[a]] > scores.Raw[order[b]]
	})

	if n > len(order) {
		n = len(order)
	}
	preds := make([]Prediction, n)
	for i, idx := range order[:n] {
		raw := scores.Raw[idx]
		preds[i] = Prediction{
			Class:  vocab.DisplayName(labels[idx]),
			Output: roundTo(raw, 1),
			Prob:   roundTo(raw/sum, 2),
		}
	}

	return &Result{Class: labels[scores.Top], Predictions: preds}, nil
}

// roundTo rounds half away from zero to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
