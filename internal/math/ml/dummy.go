package ml

import (
	"github.com/montanaflynn/stats"
)

// Majority predicts the most frequent class of the training data.
type Majority struct {
	class  float64
	fitted bool
}

func NewMajority(seed int64) Estimator {
	return &Majority{}
}

func (m *Majority) Fit(x [][]float64, y []float64) error {
	if err := check(x, y); err != nil {
		return err
	}
	yy, k := classes(y)
	counts := make([]int, k)
	for _, c := range yy {
		counts[c]++
	}
	best := 0
	for c, n := range counts {
		if n > counts[best] {
			best = c
		}
	}
	m.class = float64(best)
	m.fitted = true
	return nil
}

func (m *Majority) Predict(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	y := make([]float64, len(x))
	for i := range y {
		y[i] = m.class
	}
	return y, nil
}

// Mean predicts the average target of the training data.
type Mean struct {
	mean   float64
	fitted bool
}

func NewMean(seed int64) Estimator {
	return &Mean{}
}

func (m *Mean) Fit(x [][]float64, y []float64) error {
	if err := check(x, y); err != nil {
		return err
	}
	mean, err := stats.Mean(y)
	if err != nil {
		return err
	}
	m.mean = mean
	m.fitted = true
	return nil
}

func (m *Mean) Predict(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	y := make([]float64, len(x))
	for i := range y {
		y[i] = m.mean
	}
	return y, nil
}
