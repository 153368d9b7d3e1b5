package features

import (
	"fmt"
	"math"

	"CrossBot/internal/domain/models"
)

// ShiftedMean returns the mean of the `window` values ending at index t-1,
// so the value at t never sees x[t]. ok is false while fewer than `window`
// prior values exist. Each window is summed afresh so the result does not
// depend on how the caller walked the series.
func ShiftedMean(x []float64, t, window int) (mean float64, ok bool) {
	if window <= 0 || t < window || t > len(x) {
		return 0, false
	}
	var sum float64
	for i := t - window; i < t; i++ {
		sum += x[i]
	}
	return sum / float64(window), true
}

// ShiftedSMA aligns ShiftedMean to the input; warm-up slots are NaN.
func ShiftedSMA(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	for t := range x {
		if m, ok := ShiftedMean(x, t, window); ok {
			out[t] = m
			continue
		}
		out[t] = math.NaN()
	}
	return out
}

// ValidatePrices fails with ErrInvalidPrice on any non-positive or non-finite close.
func ValidatePrices(closes []float64) error {
	for i, c := range closes {
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: close %v at bar %d", models.ErrInvalidPrice, c, i)
		}
	}
	return nil
}

// LogReturn computes ln(cur) - ln(prev). Both prices must be positive.
func LogReturn(prev, cur float64) float64 {
	return math.Log(cur) - math.Log(prev)
}

// ComputeLogReturns returns the bar-to-bar log returns of closes: element
// i-1 is the return earned over bar i. Prices are validated first, so a
// single bad close fails even when there is nothing to difference.
func ComputeLogReturns(closes []float64) ([]float64, error) {
	if err := ValidatePrices(closes); err != nil {
		return nil, err
	}
	if len(closes) < 2 {
		return []float64{}, nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = LogReturn(closes[i-1], closes[i])
	}
	return out, nil
}
