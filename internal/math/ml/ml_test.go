package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs creates two well separated classes around (0,0) and (4,4).
func blobs(n int) ([][]float64, []float64) {
	x := make([][]float64, 0, 2*n)
	y := make([]float64, 0, 2*n)
	for i := 0; i < n; i++ {
		dx := float64(i%5) * 0.2
		dy := float64(i%7) * 0.1
		x = append(x, []float64{dx, dy})
		y = append(y, 0)
		x = append(x, []float64{4 - dx, 4 - dy})
		y = append(y, 1)
	}
	return x, y
}

// line creates samples of y = 1 + 2a - b.
func line(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := float64(i) / 10
		b := float64(i%3) - 1
		x[i] = []float64{a, b}
		y[i] = 1 + 2*a - b
	}
	return x, y
}

func accuracy(t *testing.T, y, p []float64) float64 {
	require.Equal(t, len(y), len(p))
	var ok float64
	for i := range y {
		if y[i] == p[i] {
			ok++
		}
	}
	return ok / float64(len(y))
}

func TestClassifiers(t *testing.T) {

	type test struct {
		construct Construct
		accuracy  float64
	}

	tests := map[string]test{
		"majority": {
			construct: NewMajority,
			accuracy:  0.5,
		},
		"logistic": {
			construct: NewLogistic,
			accuracy:  0.95,
		},
		"knn": {
			construct: NewKNN,
			accuracy:  0.95,
		},
		"forest": {
			construct: NewForest(20),
			accuracy:  0.95,
		},
	}

	x, y := blobs(20)
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m := tt.construct(1)
			_, err := m.Predict(x)
			assert.ErrorIs(t, err, ErrNotFitted)

			require.NoError(t, m.Fit(x, y))
			p, err := m.Predict(x)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, accuracy(t, y, p), tt.accuracy)
			for _, c := range p {
				assert.Contains(t, []float64{0, 1}, c)
			}
		})
	}
}

func TestLogistic_MultiClass(t *testing.T) {
	x := [][]float64{}
	y := []float64{}
	centres := [][]float64{{0, 0}, {5, 0}, {0, 5}}
	for c, centre := range centres {
		for i := 0; i < 10; i++ {
			x = append(x, []float64{centre[0] + float64(i%3)*0.1, centre[1] + float64(i%4)*0.1})
			y = append(y, float64(c))
		}
	}
	m := NewLogistic(0)
	require.NoError(t, m.Fit(x, y))
	p, err := m.Predict([][]float64{{0.1, 0.1}, {5.1, 0.1}, {0.1, 5.1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, p)
}

func TestDecisionTree(t *testing.T) {
	x, y := blobs(30)
	m := NewDecisionTree(1)
	require.NoError(t, m.Fit(x, y))
	p, err := m.Predict(x)
	require.NoError(t, err)
	require.Len(t, p, len(x))
	for _, c := range p {
		assert.Contains(t, []float64{0, 1}, c)
	}
	assert.GreaterOrEqual(t, accuracy(t, y, p), 0.9)
}

func TestRegressors(t *testing.T) {

	type test struct {
		construct Construct
		mae       float64
	}

	tests := map[string]test{
		"mean": {
			construct: NewMean,
			mae:       10,
		},
		"linear": {
			construct: NewLinear,
			mae:       1e-6,
		},
		"ridge": {
			construct: NewRidge,
			mae:       0.1,
		},
		"neighbours": {
			construct: NewNeighbours,
			mae:       0.5,
		},
	}

	x, y := line(60)
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m := tt.construct(1)
			_, err := m.Predict(x)
			assert.ErrorIs(t, err, ErrNotFitted)

			require.NoError(t, m.Fit(x, y))
			p, err := m.Predict(x)
			require.NoError(t, err)
			require.Len(t, p, len(y))
			var mae float64
			for i := range y {
				mae += math.Abs(y[i]-p[i]) / float64(len(y))
			}
			assert.Less(t, mae, tt.mae)
		})
	}
}

func TestNetwork(t *testing.T) {

	type test struct {
		construct Construct
		x         [][]float64
		y         []float64
	}

	bx, by := blobs(10)
	lx, ly := line(20)
	tests := map[string]test{
		"classifier": {
			construct: NewNetworkClassifier,
			x:         bx,
			y:         by,
		},
		"regressor": {
			construct: NewNetworkRegressor,
			x:         lx,
			y:         ly,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m := tt.construct(7)
			err := m.Fit(tt.x, tt.y)
			if err != nil {
				// a diverging network is excluded from comparisons
				assert.ErrorIs(t, err, ErrDiverged)
				return
			}
			p, err := m.Predict(tt.x)
			if err != nil {
				assert.ErrorIs(t, err, ErrDiverged)
				return
			}
			assert.Len(t, p, len(tt.y))
		})
	}
}

func TestFit_NoSamples(t *testing.T) {
	for name, construct := range map[string]Construct{
		"majority": NewMajority,
		"mean":     NewMean,
		"linear":   NewLinear,
		"knn":      NewKNN,
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, construct(0).Fit(nil, nil), ErrNoSamples)
		})
	}
}

// steps creates one feature 0..n-1 where the class switches at n/2.
func steps(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = []float64{float64(i)}
		if i >= n/2 {
			y[i] = 1
		}
	}
	return x, y
}

func TestKNN(t *testing.T) {

	type test struct {
		x, y     [][]float64
		classes  []float64
		expected []float64
	}

	x, y := steps(40)
	tests := map[string]test{
		"boundary": {
			x:        x,
			classes:  y,
			y:        x,
			expected: y,
		},
		"query": {
			x:        x,
			classes:  y,
			y:        [][]float64{{-5}, {19.4}, {19.6}, {100}},
			expected: []float64{0, 0, 1, 1},
		},
		"tie": {
			x:        [][]float64{{0}, {1}, {3}, {4}},
			classes:  []float64{0, 0, 1, 1},
			y:        [][]float64{{2}, {2.5}},
			expected: []float64{0, 1},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m := NewKNN(1)
			require.NoError(t, m.Fit(tt.x, tt.classes))
			first, err := m.Predict(tt.y)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, first)
			for i := 0; i < 5; i++ {
				p, err := m.Predict(tt.y)
				require.NoError(t, err)
				assert.Equal(t, first, p)
			}
		})
	}
}
