package ml

import (
	"fmt"
	"io"

	gomlbase "github.com/cdipaolo/goml/base"
	"github.com/cdipaolo/goml/linear"
	fmath "github.com/drakos74/free-ml/internal/math"
)

const (
	logisticRate       = 0.01
	logisticReg        = 1e-4
	logisticIterations = 500
)

// Logistic is a one-vs-rest logistic regression classifier.
type Logistic struct {
	models []*linear.Logistic
}

func NewLogistic(seed int64) Estimator {
	return &Logistic{}
}

func (m *Logistic) Fit(x [][]float64, y []float64) error {
	if err := check(x, y); err != nil {
		return err
	}
	yy, k := classes(y)
	// a binary problem needs a single model
	n := k
	if k == 2 {
		n = 1
	}
	models := make([]*linear.Logistic, n)
	for c := 0; c < n; c++ {
		target := make([]float64, len(yy))
		pos := c
		if k == 2 {
			pos = 1
		}
		for i, v := range yy {
			if v == pos {
				target[i] = 1
			}
		}
		model := linear.NewLogistic(gomlbase.BatchGA, logisticRate, logisticReg, logisticIterations, x, target)
		model.Output = io.Discard
		if err := model.Learn(); err != nil {
			return fmt.Errorf("could not fit logistic model for class %d: %w", c, err)
		}
		models[c] = model
	}
	m.models = models
	return nil
}

func (m *Logistic) Predict(x [][]float64) ([]float64, error) {
	if m.models == nil {
		return nil, ErrNotFitted
	}
	y := make([]float64, len(x))
	for i, row := range x {
		scores := make([]float64, len(m.models))
		for c, model := range m.models {
			p, err := model.Predict(row)
			if err != nil {
				return nil, fmt.Errorf("could not predict logistic model for class %d: %w", c, err)
			}
			scores[c] = p[0]
		}
		if len(m.models) == 1 {
			if scores[0] >= 0.5 {
				y[i] = 1
			}
			continue
		}
		if c := fmath.ArgMax(scores); c >= 0 {
			y[i] = float64(c)
		}
	}
	return y, finite(y)
}
