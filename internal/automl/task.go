package automl

import (
	"errors"
	"fmt"

	"github.com/drakos74/free-ml/internal/frame"
)

var (
	// ErrUnknownTarget is returned when the target is not a column of the dataset.
	ErrUnknownTarget = errors.New("unknown target column")
	// ErrEmptyTarget is returned when no row has a target value.
	ErrEmptyTarget = errors.New("target column has no values")
	// ErrSingleClass is returned for classification targets with less than two classes.
	ErrSingleClass = errors.New("target column has a single class")
	// ErrNonNumericTarget is returned for regression on a non numeric target.
	ErrNonNumericTarget = errors.New("regression target is not numeric")
	// ErrNoCandidates is returned when no model family could be evaluated.
	ErrNoCandidates = errors.New("no candidate models")
	// ErrTooFewRows is returned when the data cannot be split into folds.
	ErrTooFewRows = errors.New("not enough rows to train")
	// ErrUnknownTask is returned for task names other than classification, regression or auto.
	ErrUnknownTask = errors.New("unknown task")
)

// Task is the kind of supervised problem.
type Task string

const (
	Auto           Task = "auto"
	Classification Task = "classification"
	Regression     Task = "regression"
)

// maxClassLevels is the number of distinct integer values still read as classes.
const maxClassLevels = 20

// ParseTask reads a task name, empty means Auto.
func ParseTask(s string) (Task, error) {
	switch Task(s) {
	case "", Auto:
		return Auto, nil
	case Classification, Regression:
		return Task(s), nil
	}
	return "", fmt.Errorf("'%s': %w", s, ErrUnknownTask)
}

// InferTask picks the task for the given target column.
func InferTask(c *frame.Column) Task {
	switch c.Dtype {
	case frame.Object, frame.Bool:
		return Classification
	case frame.Int64:
		seen := make(map[float64]struct{})
		for _, v := range c.Floats() {
			seen[v] = struct{}{}
			if len(seen) > maxClassLevels {
				return Regression
			}
		}
		return Classification
	}
	return Regression
}
