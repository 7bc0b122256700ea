package ml

import (
	fmath "github.com/drakos74/free-ml/internal/math"
	randomforest "github.com/malaschitz/randomForest"
	"github.com/rs/zerolog/log"
)

const defaultTrees = 100

// RandomForest is a random forest classifier.
type RandomForest struct {
	trees  int
	seed   int64
	forest *randomforest.Forest
}

// NewForest creates a new random forest with the given number of trees.
func NewForest(n int) Construct {
	return func(seed int64) Estimator {
		return &RandomForest{
			trees: n,
			seed:  seed,
		}
	}
}

// NewDefaultForest creates a random forest with the default number of trees.
func NewDefaultForest(seed int64) Estimator {
	return NewForest(defaultTrees)(seed)
}

func (rf *RandomForest) Fit(x [][]float64, y []float64) error {
	if err := check(x, y); err != nil {
		return err
	}
	yy, _ := classes(y)
	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: x, Class: yy}
	err := seeded(rf.seed, func() error {
		forest.Train(rf.trees)
		return nil
	})
	if err != nil {
		return err
	}
	rf.forest = forest
	log.Debug().
		Int("trees", rf.trees).
		Int("samples", len(x)).
		Floats64("importance", forest.FeatureImportance).
		Msg("trained random forest")
	return nil
}

func (rf *RandomForest) Predict(x [][]float64) ([]float64, error) {
	if rf.forest == nil {
		return nil, ErrNotFitted
	}
	y := make([]float64, len(x))
	for i, row := range x {
		votes := rf.forest.Vote(row)
		if c := fmath.ArgMax(votes); c >= 0 {
			y[i] = float64(c)
		}
	}
	return y, nil
}

// Importance returns the feature importance of the trained forest.
func (rf *RandomForest) Importance() []float64 {
	if rf.forest == nil {
		return nil
	}
	return rf.forest.FeatureImportance
}
