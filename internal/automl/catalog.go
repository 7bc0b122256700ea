package automl

import (
	"fmt"

	"github.com/drakos74/free-ml/internal/math/ml"
)

// Candidate is a model family taking part in the comparison.
type Candidate struct {
	ID        string
	Name      string
	Construct ml.Construct
}

var classifiers = []Candidate{
	{ID: "lr", Name: "Logistic Regression", Construct: ml.NewLogistic},
	{ID: "knn", Name: "K Neighbors Classifier", Construct: ml.NewKNN},
	{ID: "dt", Name: "Decision Tree Classifier", Construct: ml.NewDecisionTree},
	{ID: "rf", Name: "Random Forest Classifier", Construct: ml.NewDefaultForest},
	{ID: "mlp", Name: "MLP Classifier", Construct: ml.NewNetworkClassifier},
	{ID: "dummy", Name: "Dummy Classifier", Construct: ml.NewMajority},
}

var regressors = []Candidate{
	{ID: "lr", Name: "Linear Regression", Construct: ml.NewLinear},
	{ID: "ridge", Name: "Ridge Regression", Construct: ml.NewRidge},
	{ID: "knn", Name: "K Neighbors Regressor", Construct: ml.NewNeighbours},
	{ID: "mlp", Name: "MLP Regressor", Construct: ml.NewNetworkRegressor},
	{ID: "dummy", Name: "Dummy Regressor", Construct: ml.NewMean},
}

// Catalog returns the model families of the task, restricted to include when not empty and without exclude.
func Catalog(task Task, include, exclude []string) ([]Candidate, error) {
	var all []Candidate
	switch task {
	case Classification:
		all = classifiers
	case Regression:
		all = regressors
	default:
		return nil, fmt.Errorf("'%s': %w", task, ErrUnknownTask)
	}
	in := set(include)
	out := set(exclude)
	candidates := make([]Candidate, 0, len(all))
	for _, c := range all {
		if len(in) > 0 {
			if _, ok := in[c.ID]; !ok {
				continue
			}
		}
		if _, ok := out[c.ID]; ok {
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s with include %v and exclude %v: %w", task, include, exclude, ErrNoCandidates)
	}
	return candidates, nil
}

// Lookup finds a model family by id.
func Lookup(task Task, id string) (Candidate, bool) {
	all := classifiers
	if task == Regression {
		all = regressors
	}
	for _, c := range all {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

func set(ss []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		if s != "" {
			m[s] = struct{}{}
		}
	}
	return m
}
