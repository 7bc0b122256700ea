package profile

import (
	"sort"

	"github.com/drakos74/free-ml/internal/frame"
	"gonum.org/v1/gonum/stat"
)

// correlations computes the pearson and spearman matrices over the numeric columns.
// Each pair uses the rows where both values are present.
func correlations(f *frame.Frame) Correlations {
	numeric := make([]*frame.Column, 0)
	for _, c := range f.Columns() {
		if c.Numeric() {
			numeric = append(numeric, c)
		}
	}
	cc := Correlations{
		Columns:  make([]string, len(numeric)),
		Pearson:  square(len(numeric)),
		Spearman: square(len(numeric)),
	}
	for i, a := range numeric {
		cc.Columns[i] = a.Name
		cc.Pearson[i][i] = 1
		cc.Spearman[i][i] = 1
		for j := i + 1; j < len(numeric); j++ {
			x, y := pairs(a, numeric[j])
			p, s := 0.0, 0.0
			if len(x) > 1 {
				p = finite(stat.Correlation(x, y, nil))
				s = finite(stat.Correlation(rank(x), rank(y), nil))
			}
			cc.Pearson[i][j], cc.Pearson[j][i] = p, p
			cc.Spearman[i][j], cc.Spearman[j][i] = s, s
		}
	}
	return cc
}

func square(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func pairs(a, b *frame.Column) ([]float64, []float64) {
	x := make([]float64, 0, a.Len())
	y := make([]float64, 0, a.Len())
	for i := 0; i < a.Len(); i++ {
		va, ok := a.Float(i)
		if !ok {
			continue
		}
		vb, ok := b.Float(i)
		if !ok {
			continue
		}
		x = append(x, va)
		y = append(y, vb)
	}
	return x, y
}

// rank returns the 1-based ranks of the values, ties get their average rank.
func rank(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})
	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		r := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = r
		}
		i = j + 1
	}
	return ranks
}
