package ml

import (
	fmath "github.com/drakos74/free-ml/internal/math"
)

const (
	damping     = 1e-6
	ridgeLambda = 1.0
)

// Linear is an ordinary least squares regressor.
// A positive lambda turns it into ridge regression.
type Linear struct {
	lambda float64
	coef   []float64
}

func NewLinear(seed int64) Estimator {
	return &Linear{}
}

func NewRidge(seed int64) Estimator {
	return &Linear{lambda: ridgeLambda}
}

func (m *Linear) Fit(x [][]float64, y []float64) error {
	if err := check(x, y); err != nil {
		return err
	}
	var coef []float64
	var err error
	if m.lambda > 0 {
		coef, err = fmath.Ridge(x, y, m.lambda)
	} else {
		coef, err = fmath.LeastSquares(x, y, damping)
	}
	if err != nil {
		return err
	}
	m.coef = coef
	return nil
}

func (m *Linear) Predict(x [][]float64) ([]float64, error) {
	if m.coef == nil {
		return nil, ErrNotFitted
	}
	y := make([]float64, len(x))
	for i, row := range x {
		y[i] = fmath.Linear(m.coef, row)
	}
	return y, finite(y)
}

// Coefficients returns the intercept followed by one weight per feature.
func (m *Linear) Coefficients() []float64 {
	return m.coef
}
