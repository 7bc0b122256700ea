package automl

import (
	"math/rand"
	"sort"
)

// Fold is a train and test split of the row positions.
type Fold struct {
	Train []int
	Test  []int
}

// kfold shuffles the rows and splits them into k folds of near equal size.
func kfold(n, k int, rng *rand.Rand) []Fold {
	assign := make([]int, n)
	for pos, i := range rng.Perm(n) {
		assign[i] = pos % k
	}
	return folds(assign, k)
}

// stratified splits the rows into k folds keeping the class proportions.
func stratified(y []float64, k int, rng *rand.Rand) []Fold {
	byClass := make(map[float64][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	labels := make([]float64, 0, len(byClass))
	for c := range byClass {
		labels = append(labels, c)
	}
	sort.Float64s(labels)

	assign := make([]int, len(y))
	next := 0
	for _, c := range labels {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(a, b int) {
			rows[a], rows[b] = rows[b], rows[a]
		})
		for _, i := range rows {
			assign[i] = next % k
			next++
		}
	}
	return folds(assign, k)
}

func folds(assign []int, k int) []Fold {
	ff := make([]Fold, k)
	for i, f := range assign {
		for j := range ff {
			if j == f {
				ff[j].Test = append(ff[j].Test, i)
			} else {
				ff[j].Train = append(ff[j].Train, i)
			}
		}
	}
	return ff
}

func rows(xx [][]float64, idx []int) [][]float64 {
	sub := make([][]float64, len(idx))
	for r, i := range idx {
		sub[r] = xx[i]
	}
	return sub
}

func values(y []float64, idx []int) []float64 {
	sub := make([]float64, len(idx))
	for r, i := range idx {
		sub[r] = y[i]
	}
	return sub
}
