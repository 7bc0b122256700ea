package automl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/drakos74/free-ml/internal/frame"
	"github.com/drakos74/free-ml/internal/math/ml"
	"github.com/rs/zerolog/log"
	"github.com/ulikunitz/xz"
)

// ArtifactVersion is the version of the artifact encoding.
const ArtifactVersion = 1

// ErrIncompatible is returned when loading an artifact of another version or an unknown model.
var ErrIncompatible = errors.New("incompatible artifact")

// Artifact is the persisted form of a trained model.
// It carries the training matrix and seed, the model is fitted again when loading.
type Artifact struct {
	Version     int         `json:"version"`
	Task        Task        `json:"task"`
	Target      string      `json:"target"`
	ModelID     string      `json:"model_id"`
	ModelName   string      `json:"model_name"`
	Features    []string    `json:"features"`
	Pipeline    *Pipeline   `json:"pipeline"`
	X           [][]float64 `json:"x"`
	Y           []float64   `json:"y"`
	Seed        int64       `json:"seed"`
	Metrics     Scores      `json:"metrics"`
	Fingerprint uint64      `json:"fingerprint"`
	Created     time.Time   `json:"created"`
}

// Meta describes which dataset and run produced an artifact.
type Meta struct {
	Target      string    `json:"target"`
	Task        Task      `json:"task"`
	ModelID     string    `json:"model_id"`
	ModelName   string    `json:"model_name"`
	Rows        int       `json:"rows"`
	Fingerprint string    `json:"fingerprint"`
	Metrics     Scores    `json:"metrics"`
	Created     time.Time `json:"created"`
}

// Meta returns the description of the artifact.
func (a *Artifact) Meta() Meta {
	return Meta{
		Target:      a.Target,
		Task:        a.Task,
		ModelID:     a.ModelID,
		ModelName:   a.ModelName,
		Rows:        len(a.X),
		Fingerprint: fmt.Sprintf("%016x", a.Fingerprint),
		Metrics:     a.Metrics,
		Created:     a.Created,
	}
}

// Model is a fitted estimator together with the pipeline preparing its input.
type Model struct {
	Artifact  *Artifact
	estimator ml.Estimator
}

func fit(a *Artifact) (*Model, error) {
	c, ok := Lookup(a.Task, a.ModelID)
	if !ok {
		return nil, fmt.Errorf("model '%s' for %s: %w", a.ModelID, a.Task, ErrIncompatible)
	}
	estimator := c.Construct(a.Seed)
	if err := estimator.Fit(a.X, a.Y); err != nil {
		return nil, fmt.Errorf("could not fit '%s': %w", a.ModelID, err)
	}
	return &Model{
		Artifact:  a,
		estimator: estimator,
	}, nil
}

// Finalize fits the given leaderboard entry on all rows of the experiment.
func (e *Experiment) Finalize(best Entry) (*Model, error) {
	c, ok := Lookup(e.Task, best.ID)
	if !ok {
		return nil, fmt.Errorf("'%s': %w", best.ID, ErrNoCandidates)
	}
	a := &Artifact{
		Version:     ArtifactVersion,
		Task:        e.Task,
		Target:      e.Pipeline.Target,
		ModelID:     c.ID,
		ModelName:   c.Name,
		Features:    make([]string, len(e.Pipeline.Features)),
		Pipeline:    e.Pipeline,
		X:           e.X,
		Y:           e.Y,
		Seed:        e.Config.Seed,
		Metrics:     best.Scores,
		Fingerprint: e.Fingerprint,
		Created:     time.Now().UTC(),
	}
	for j, ft := range e.Pipeline.Features {
		a.Features[j] = ft.Name
	}
	m, err := fit(a)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("model", c.ID).
		Str("target", a.Target).
		Int("rows", len(a.X)).
		Msg("finalized model")
	return m, nil
}

// Predict runs the pipeline and the model over the frame.
// Classification predictions are mapped back to the original labels.
func (m *Model) Predict(f *frame.Frame) ([]string, error) {
	x, err := m.Artifact.Pipeline.Transform(f)
	if err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return []string{}, nil
	}
	y, err := m.estimator.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("could not predict: %w", err)
	}
	labels := make([]string, len(y))
	for i, v := range y {
		labels[i] = m.Artifact.Pipeline.Label(v)
	}
	return labels, nil
}

// Save writes the artifact as xz compressed json.
func Save(w io.Writer, a *Artifact) error {
	zw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create compressor: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		zw.Close()
		return fmt.Errorf("could not encode artifact: %w", err)
	}
	return zw.Close()
}

// Load reads an artifact written by Save and fits its model.
func Load(r io.Reader) (*Model, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not read artifact: %w", err)
	}
	var a Artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("could not decode artifact: %w", err)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("version %d: %w", a.Version, ErrIncompatible)
	}
	if a.Pipeline == nil {
		return nil, fmt.Errorf("no pipeline: %w", ErrIncompatible)
	}
	return fit(&a)
}
