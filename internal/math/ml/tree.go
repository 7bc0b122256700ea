package ml

import (
	"fmt"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/filters"
	"github.com/sjwhitworth/golearn/trees"
)

// prune is the share of rows held out to prune the tree, none since the folds already validate it.
const prune = 0

// DecisionTree is an ID3 decision tree over chi-merge discretised features.
type DecisionTree struct {
	lazy
}

func NewDecisionTree(seed int64) Estimator {
	return &DecisionTree{
		lazy: lazy{seed: seed},
	}
}

func (m *DecisionTree) Fit(x [][]float64, y []float64) error {
	return m.fit(x, y)
}

// discretise bins the float attributes with chi-merge, trained on the given rows.
func discretise(src, train base.FixedDataGrid) (base.FixedDataGrid, error) {
	filt := filters.NewChiMergeFilter(train, 0.999)
	for _, a := range base.NonClassFloatAttributes(train) {
		filt.AddAttribute(a)
	}
	err := filt.Train()
	if err != nil {
		return nil, err
	}
	return base.NewLazilyFilteredInstances(src, filt), nil
}

func (m *DecisionTree) Predict(x [][]float64) ([]float64, error) {
	if m.x == nil {
		return nil, ErrNotFitted
	}
	if len(x) == 0 {
		return []float64{}, nil
	}
	all, err := grid(m.x, m.y, x)
	if err != nil {
		return nil, err
	}
	train, _ := split(all, len(m.x), len(x))
	filtered, err := discretise(all, train)
	if err != nil {
		return nil, fmt.Errorf("could not discretise: %w", err)
	}
	train, test := split(filtered, len(m.x), len(x))

	var predictions base.FixedDataGrid
	err = seeded(m.seed, func() error {
		tree := trees.NewID3DecisionTree(prune)
		if err := tree.Fit(train); err != nil {
			return fmt.Errorf("could not fit tree: %w", err)
		}
		p, err := tree.Predict(test)
		if err != nil {
			return fmt.Errorf("could not predict tree: %w", err)
		}
		predictions = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return labels(predictions, len(x), m.majority), nil
}
