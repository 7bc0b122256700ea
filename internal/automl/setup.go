package automl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/drakos74/free-ml/internal/frame"
	"github.com/rs/zerolog/log"
)

// Config defines the experiment parameters.
type Config struct {
	Name          string   `json:"name"`
	Folds         int      `json:"folds"`
	Seed          int64    `json:"seed"`
	Sort          string   `json:"sort"`
	Include       []string `json:"include"`
	Exclude       []string `json:"exclude"`
	MaxCategories int      `json:"max_categories"`
}

// DefaultConfig returns the default experiment parameters.
func DefaultConfig() Config {
	return Config{
		Name:          "free-ml",
		Folds:         5,
		Seed:          123,
		MaxCategories: 25,
	}
}

// Setting is one row of the experiment settings table.
type Setting struct {
	Description string `json:"Description"`
	Value       string `json:"Value"`
}

// Experiment holds the transformed data of one training run.
type Experiment struct {
	Config      Config
	Pipeline    *Pipeline
	X           [][]float64
	Y           []float64
	Settings    []Setting
	Fingerprint uint64
	Task        Task
	catalog     []Candidate
}

// Setup validates the target, fits the preprocessing pipeline and transforms the frame.
func Setup(f *frame.Frame, target string, task Task, cfg Config) (*Experiment, error) {
	if cfg.Folds == 0 {
		cfg.Folds = DefaultConfig().Folds
	}
	if cfg.MaxCategories == 0 {
		cfg.MaxCategories = DefaultConfig().MaxCategories
	}
	c, ok := f.Column(target)
	if !ok {
		return nil, fmt.Errorf("'%s': %w", target, ErrUnknownTarget)
	}
	if task == "" || task == Auto {
		task = InferTask(c)
	}
	if task != Classification && task != Regression {
		return nil, fmt.Errorf("'%s': %w", task, ErrUnknownTask)
	}

	rows := make([]int, 0, f.Rows())
	for i := 0; i < f.Rows(); i++ {
		if !c.IsMissing(i) && !c.IsInfinite(i) {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("'%s': %w", target, ErrEmptyTarget)
	}
	dropped := f.Rows() - len(rows)

	p := &Pipeline{
		Target: target,
		Task:   task,
	}
	y, err := p.fitTarget(c, rows)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%d rows: %w", len(rows), ErrTooFewRows)
	}

	var numeric, categorical int
	for _, col := range f.Columns() {
		if col.Name == target {
			continue
		}
		ft := fitFeature(col, rows, cfg.MaxCategories)
		if ft.Kind == Numeric {
			numeric++
		} else {
			categorical++
		}
		p.Features = append(p.Features, ft)
	}
	x, err := p.encode(f, rows)
	if err != nil {
		return nil, err
	}
	p.fitScale(x)
	p.scale(x)

	catalog, err := Catalog(task, cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		Config:      cfg,
		Pipeline:    p,
		X:           x,
		Y:           y,
		Fingerprint: f.Fingerprint(),
		Task:        task,
		catalog:     catalog,
	}
	rowCount, colCount := f.Shape()
	e.Settings = []Setting{
		{"Session id", strconv.FormatInt(cfg.Seed, 10)},
		{"Target", target},
		{"Target type", e.targetType()},
	}
	if task == Classification {
		e.Settings = append(e.Settings, Setting{"Target mapping", e.mapping()})
	}
	e.Settings = append(e.Settings,
		Setting{"Original data shape", fmt.Sprintf("(%d, %d)", rowCount, colCount)},
		Setting{"Transformed data shape", fmt.Sprintf("(%d, %d)", len(x), p.Width()+1)},
		Setting{"Numeric features", strconv.Itoa(numeric)},
		Setting{"Categorical features", strconv.Itoa(categorical)},
		Setting{"Rows with missing target", strconv.Itoa(dropped)},
		Setting{"Numeric imputation", "mean"},
		Setting{"Categorical imputation", "mode"},
		Setting{"Maximum one-hot encoding", strconv.Itoa(cfg.MaxCategories)},
		Setting{"Normalize", "True"},
		Setting{"Normalize method", "zscore"},
		Setting{"Fold Generator", e.foldGenerator()},
		Setting{"Fold Number", strconv.Itoa(cfg.Folds)},
		Setting{"Experiment Name", cfg.Name},
	)

	log.Info().
		Str("target", target).
		Str("task", string(task)).
		Int("rows", len(x)).
		Int("features", p.Width()).
		Int("dropped", dropped).
		Msg("setup experiment")
	return e, nil
}

func (e *Experiment) targetType() string {
	if e.Task == Regression {
		return "Regression"
	}
	if len(e.Pipeline.Labels) == 2 {
		return "Binary"
	}
	return "Multiclass"
}

func (e *Experiment) mapping() string {
	pairs := make([]string, len(e.Pipeline.Labels))
	for k, l := range e.Pipeline.Labels {
		pairs[k] = fmt.Sprintf("%s: %d", l, k)
	}
	return strings.Join(pairs, ", ")
}

func (e *Experiment) foldGenerator() string {
	if e.Task == Classification {
		return "StratifiedKFold"
	}
	return "KFold"
}
