package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
)

var (
	// ErrNotFitted is returned when predicting with an estimator that has not been fitted.
	ErrNotFitted = errors.New("estimator is not fitted")
	// ErrNoSamples is returned when fitting on an empty data set.
	ErrNoSamples = errors.New("no samples to fit")
	// ErrDiverged is returned when an estimator produces non-finite predictions.
	ErrDiverged = errors.New("estimator diverged")
)

// Estimator defines a supervised model over a numeric design matrix.
// Classifiers receive and return class indices as floats.
type Estimator interface {
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) ([]float64, error)
}

// Construct creates a new estimator for the given seed.
type Construct func(seed int64) Estimator

// seedMu guards the global rand source for the libraries that draw from it.
var seedMu sync.Mutex

// seeded runs the given func with the global rand source seeded.
func seeded(seed int64, f func() error) error {
	seedMu.Lock()
	defer seedMu.Unlock()
	rand.Seed(seed)
	return f()
}

func check(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return ErrNoSamples
	}
	if len(x) != len(y) {
		return fmt.Errorf("mismatched samples [%d | %d]", len(x), len(y))
	}
	return nil
}

// classes converts the class indices to ints and returns the number of classes.
func classes(y []float64) ([]int, int) {
	yy := make([]int, len(y))
	k := 0
	for i, v := range y {
		c := int(math.Round(v))
		yy[i] = c
		if c+1 > k {
			k = c + 1
		}
	}
	return yy, k
}

func finite(y []float64) error {
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrDiverged
		}
	}
	return nil
}
