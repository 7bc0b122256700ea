package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {

	type test struct {
		input  float64
		output string
	}

	tests := map[string]test{
		"0": {
			input:  0,
			output: "0.0000",
		},
		"-1": {
			input:  -1,
			output: "-1.0000",
		},
		"5": {
			input:  1.55555,
			output: "1.5556",
		},
		"nan": {
			input:  math.NaN(),
			output: "-",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := Format(tt.input)
			assert.Equal(t, tt.output, s)
		})
	}

}

func TestArgMax(t *testing.T) {
	assert.Equal(t, -1, ArgMax(nil))
	assert.Equal(t, 1, ArgMax([]float64{0.1, 0.7, 0.2}))
	assert.Equal(t, 0, ArgMax([]float64{0.5, 0.5}))
}

func TestLeastSquares(t *testing.T) {
	// y = 1 + 2a - 3b
	xx := [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 3}}
	y := make([]float64, len(xx))
	for i, x := range xx {
		y[i] = 1 + 2*x[0] - 3*x[1]
	}
	c, err := LeastSquares(xx, y, 1e-6)
	require.NoError(t, err)
	require.Len(t, c, 3)
	assert.InDelta(t, 1, c[0], 1e-6)
	assert.InDelta(t, 2, c[1], 1e-6)
	assert.InDelta(t, -3, c[2], 1e-6)
	assert.InDelta(t, -1, Linear(c, []float64{1, 1}), 1e-6)
}

func TestLeastSquares_Collinear(t *testing.T) {
	// the second column duplicates the first
	xx := [][]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}}
	y := []float64{2, 4, 6, 8}
	c, err := LeastSquares(xx, y, 1e-6)
	require.NoError(t, err)
	for i, x := range xx {
		assert.InDelta(t, y[i], Linear(c, x), 1e-3)
	}
}

func TestLeastSquares_Shape(t *testing.T) {
	_, err := LeastSquares([][]float64{{1}}, []float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrShape)
}
