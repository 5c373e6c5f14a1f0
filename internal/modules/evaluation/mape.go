package evaluation

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateActuals is returned when the held-out actuals do not sum to a
// positive value, which would make the percentage error undefined.
var ErrDegenerateActuals = errors.New("held-out actuals must sum to a positive value")

// MAPE returns the mean absolute percentage error of predicted against actual
// as a ratio of sums: sum(|predicted-actual|) / sum(actual).
//
// This is not the mean of per-point ratios, and the result is not scaled by
// 100. Scaling to a percentage is left to presentation.
func MAPE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("predicted has %d values, actual has %d", len(predicted), len(actual))
	}
	if len(actual) == 0 {
		return 0, fmt.Errorf("no values to compare")
	}

	var absErr, total float64
	for i := range actual {
		absErr += math.Abs(predicted[i] - actual[i])
		total += actual[i]
	}

	if !(total > 0) || math.IsInf(total, 0) {
		return 0, fmt.Errorf("%w: got %v", ErrDegenerateActuals, total)
	}
	return absErr / total, nil
}
