package math

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when the design matrix and the target disagree.
var ErrShape = errors.New("inconsistent dimensions")

// maxCondition is the condition number above which the design counts as rank deficient.
const maxCondition = 1e10

// LeastSquares fits y = c[0] + c[1]x[1] + ... + c[n]x[n] on the given rows.
// Rank deficient designs fall back to a ridge solution with the given damping.
func LeastSquares(xx [][]float64, y []float64, damping float64) ([]float64, error) {
	if len(xx) == 0 || len(xx) != len(y) {
		return nil, fmt.Errorf("%d rows for %d targets: %w", len(xx), len(y), ErrShape)
	}
	a := design(xx)
	r, c := a.Dims()
	if r > c && mat.Cond(a, 2) < maxCondition {
		if cc, err := solve(a, y); err == nil {
			return cc, nil
		}
	}
	return Ridge(xx, y, damping)
}

// Ridge solves (A'A + λI)c = A'y for the design with an intercept column.
// The intercept is not penalised.
func Ridge(xx [][]float64, y []float64, lambda float64) ([]float64, error) {
	if len(xx) == 0 || len(xx) != len(y) {
		return nil, fmt.Errorf("%d rows for %d targets: %w", len(xx), len(y), ErrShape)
	}
	a := design(xx)
	_, c := a.Dims()
	var ata mat.Dense
	ata.Mul(a.T(), a)
	for j := 1; j < c; j++ {
		ata.Set(j, j, ata.At(j, j)+lambda)
	}
	b := mat.NewVecDense(len(y), y)
	var aty mat.VecDense
	aty.MulVec(a.T(), b)

	var coef mat.VecDense
	err := coef.SolveVec(&ata, &aty)
	var condition mat.Condition
	if err != nil && !errors.As(err, &condition) {
		return nil, fmt.Errorf("could not solve normal equations: %w", err)
	}
	return vec(&coef), nil
}

func solve(a *mat.Dense, y []float64) ([]float64, error) {
	_, c := a.Dims()
	b := mat.NewDense(len(y), 1, y)
	x := mat.NewDense(c, 1, nil)

	qr := new(mat.QR)
	qr.Factorize(a)

	if err := qr.SolveTo(x, false, b); err != nil {
		return nil, err
	}
	v := x.ColView(0)
	cc := make([]float64, v.Len())
	for i := 0; i < v.Len(); i++ {
		cc[i] = v.AtVec(i)
	}
	return cc, nil
}

func vec(v *mat.VecDense) []float64 {
	cc := make([]float64, v.Len())
	for i := range cc {
		cc[i] = v.AtVec(i)
	}
	return cc
}

// Linear evaluates c[0] + c[1]x[0] + ... for a single row.
func Linear(c []float64, x []float64) float64 {
	y := c[0]
	for j, v := range x {
		y += c[j+1] * v
	}
	return y
}

func design(xx [][]float64) *mat.Dense {
	a := mat.NewDense(len(xx), len(xx[0])+1, nil)
	for i, row := range xx {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	return a
}
