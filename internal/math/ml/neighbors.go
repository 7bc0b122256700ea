package ml

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

const defaultNeighbours = 5

// neighbour is a training row and its distance to the query.
type neighbour struct {
	row  int
	dist float64
}

// nearest returns the k training rows closest to the query.
// Rows at equal distance keep their training order.
func nearest(train [][]float64, query []float64, k int) []neighbour {
	nn := make([]neighbour, len(train))
	for j, row := range train {
		nn[j] = neighbour{row: j, dist: floats.Distance(query, row, 2)}
	}
	sort.SliceStable(nn, func(a, b int) bool {
		return nn[a].dist < nn[b].dist
	})
	if k > len(nn) {
		k = len(nn)
	}
	return nn[:k]
}

// Neighbours is a k-nearest-neighbours regressor averaging the targets of the closest rows.
type Neighbours struct {
	k int
	x [][]float64
	y []float64
}

func NewNeighbours(seed int64) Estimator {
	return &Neighbours{k: defaultNeighbours}
}

func (m *Neighbours) Fit(x [][]float64, y []float64) error {
	if err := check(x, y); err != nil {
		return err
	}
	m.x = x
	m.y = y
	return nil
}

func (m *Neighbours) Predict(x [][]float64) ([]float64, error) {
	if m.x == nil {
		return nil, ErrNotFitted
	}
	y := make([]float64, len(x))
	for i, row := range x {
		nn := nearest(m.x, row, m.k)
		var sum float64
		for _, n := range nn {
			sum += m.y[n.row]
		}
		y[i] = sum / float64(len(nn))
	}
	return y, nil
}
