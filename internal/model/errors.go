package model

import (
	"fmt"
	"math"
)

// FitError reports a numerical or shape failure while fitting a model.
type FitError struct {
	Model string
	Err   error
}

func (e *FitError) Error() string { return fmt.Sprintf("fit %s: %v", e.Model, e.Err) }

func (e *FitError) Unwrap() error { return e.Err }

func fitErr(model, format string, args ...any) error {
	return &FitError{Model: model, Err: fmt.Errorf(format, args...)}
}

// checkXY validates a design matrix and response: same length, no empty input,
// equal row widths and no missing values.
func checkXY(model string, X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fitErr(model, "empty training set")
	}
	if len(X) != len(y) {
		return fitErr(model, "X has %d rows, y has %d", len(X), len(y))
	}
	p := len(X[0])
	for i, row := range X {
		if len(row) != p {
			return fitErr(model, "row %d has %d features, want %d", i, len(row), p)
		}
		for j, v := range row {
			if math.IsNaN(v) {
				return fitErr(model, "missing value at row %d feature %d", i, j)
			}
		}
		if math.IsNaN(y[i]) {
			return fitErr(model, "missing response at row %d", i)
		}
	}
	return nil
}
