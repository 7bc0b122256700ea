package ml

// KNN is a k-nearest-neighbours classifier voting over the closest rows.
// Ties go to the class with the smaller summed distance, then to the lower class.
type KNN struct {
	k int
	x [][]float64
	y []int
	n int
}

// NewKNN creates a knn classifier with the default number of neighbours.
func NewKNN(seed int64) Estimator {
	return &KNN{k: defaultNeighbours}
}

func (m *KNN) Fit(x [][]float64, y []float64) error {
	if err := check(x, y); err != nil {
		return err
	}
	m.x = x
	m.y, m.n = classes(y)
	return nil
}

func (m *KNN) Predict(x [][]float64) ([]float64, error) {
	if m.x == nil {
		return nil, ErrNotFitted
	}
	votes := make([]int, m.n)
	dist := make([]float64, m.n)
	y := make([]float64, len(x))
	for i, row := range x {
		for c := range votes {
			votes[c] = 0
			dist[c] = 0
		}
		for _, n := range nearest(m.x, row, m.k) {
			c := m.y[n.row]
			votes[c]++
			dist[c] += n.dist
		}
		best := 0
		for c := 1; c < m.n; c++ {
			if votes[c] > votes[best] || (votes[c] == votes[best] && votes[c] > 0 && dist[c] < dist[best]) {
				best = c
			}
		}
		y[i] = float64(best)
	}
	return y, nil
}
