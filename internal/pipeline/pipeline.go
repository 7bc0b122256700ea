package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/drakos74/free-ml/internal/automl"
	"github.com/drakos74/free-ml/internal/frame"
	"github.com/drakos74/free-ml/internal/metrics"
	"github.com/drakos74/free-ml/internal/profile"
	"github.com/drakos74/free-ml/internal/session"
	"github.com/drakos74/free-ml/internal/storage"
	"github.com/drakos74/free-ml/internal/storage/sqlite"
	"github.com/rs/zerolog/log"
)

// Runs keeps the history of training runs.
type Runs interface {
	Add(run *sqlite.Run) error
	List(session string) ([]sqlite.Run, error)
}

// Config holds the parameters of the steps.
type Config struct {
	Training automl.Config
	Profile  profile.Options
}

// DefaultConfig returns the default step parameters.
func DefaultConfig() Config {
	return Config{
		Training: automl.DefaultConfig(),
		Profile:  profile.DefaultOptions(),
	}
}

// Input carries the parameters of an operation.
type Input struct {
	// CSV is the table for upload and predict.
	CSV io.Reader
	// Columns also drops duplicate columns when cleaning.
	Columns bool
	Target  string
	Task    automl.Task
}

// View is the outcome of a step, rendered by the pages and the api.
type View struct {
	Mode        Mode                `json:"mode"`
	Session     string              `json:"session"`
	Summary     *frame.Summary      `json:"summary,omitempty"`
	Cleaned     *frame.Summary      `json:"cleaned,omitempty"`
	Saved       bool                `json:"saved,omitempty"`
	Columns     []string            `json:"columns,omitempty"`
	Target      string              `json:"target,omitempty"`
	Task        automl.Task         `json:"task,omitempty"`
	Report      *profile.Report     `json:"report,omitempty"`
	Settings    []automl.Setting    `json:"settings,omitempty"`
	Leaderboard *automl.Leaderboard `json:"leaderboard,omitempty"`
	Meta        *automl.Meta        `json:"meta,omitempty"`
	Size        int64               `json:"size,omitempty"`
	Predictions []string            `json:"predictions,omitempty"`
}

// Step executes an operation on a locked session.
type Step func(ctx context.Context, s *session.Session, in Input) (*View, error)

// Pipeline dispatches the operations of every mode.
type Pipeline struct {
	sessions *session.Manager
	ws       storage.Workspace
	runs     Runs
	reports  *profile.Cache
	cfg      Config
	steps    map[Op]Step
}

// New creates a pipeline over the sessions.
// The run history and the report cache are optional.
func New(sessions *session.Manager, runs Runs, reports *profile.Cache, cfg Config) *Pipeline {
	p := &Pipeline{
		sessions: sessions,
		ws:       sessions.Workspace(),
		runs:     runs,
		reports:  reports,
		cfg:      cfg,
	}
	p.steps = map[Op]Step{
		OpUpload:   p.upload,
		OpClean:    p.clean,
		OpSave:     p.save,
		OpProfile:  p.profile,
		OpTrain:    p.train,
		OpDownload: p.download,
		OpPredict:  p.predict,
	}
	return p
}

// Sessions returns the session manager.
func (p *Pipeline) Sessions() *session.Manager {
	return p.sessions
}

// Do runs the operation on the session and moves the session to the mode of the operation.
// Operations on the same session are serialized.
func (p *Pipeline) Do(ctx context.Context, s *session.Session, op Op, in Input) (*View, error) {
	mode, err := op.Mode()
	if err != nil {
		return nil, err
	}
	step, ok := p.steps[op]
	if !ok {
		return nil, fmt.Errorf("'%s': %w", op, ErrUnknownOp)
	}
	s.Lock()
	defer s.Unlock()
	if err := mode.Ready(s); err != nil {
		return nil, err
	}
	v, err := step(ctx, s, in)
	if err != nil {
		log.Error().
			Err(err).
			Str("session", s.ID).
			Str("op", string(op)).
			Msg("operation failed")
		return nil, err
	}
	p.enter(s, mode)
	v.Mode = mode
	v.Session = s.ID
	return v, nil
}

// Show returns the current view of the mode without running any operation,
// apart from profiling which builds its report on entry.
func (p *Pipeline) Show(ctx context.Context, s *session.Session, mode Mode) (*View, error) {
	s.Lock()
	defer s.Unlock()
	if err := mode.Ready(s); err != nil {
		return nil, err
	}
	var v *View
	switch mode {
	case Upload:
		v = &View{}
		if s.Pending != nil {
			summary := frame.Summarize(s.Pending)
			v.Summary = &summary
		} else if s.Dataset != nil {
			summary := frame.Summarize(s.Dataset)
			v.Summary = &summary
			v.Saved = true
		}
	case Profiling:
		var err error
		v, err = p.profile(ctx, s, Input{})
		if err != nil {
			return nil, err
		}
	case Modeling:
		v = p.modeling(s)
	case Download:
		var err error
		v, err = p.describe(s)
		if err != nil {
			return nil, err
		}
	}
	p.enter(s, mode)
	v.Mode = mode
	v.Session = s.ID
	return v, nil
}

// Runs returns the training history of the session.
func (p *Pipeline) Runs(s *session.Session) ([]sqlite.Run, error) {
	if p.runs == nil {
		return []sqlite.Run{}, nil
	}
	return p.runs.List(s.ID)
}

// Artifact opens the saved model of the session for download.
func (p *Pipeline) Artifact(s *session.Session) (io.ReadCloser, storage.Info, error) {
	s.Lock()
	defer s.Unlock()
	if err := Download.Ready(s); err != nil {
		return nil, storage.Info{}, err
	}
	info, err := p.ws.Stat(s.Key(storage.ModelFile))
	if err != nil {
		return nil, storage.Info{}, notFound(err)
	}
	r, err := p.ws.Open(s.Key(storage.ModelFile))
	if err != nil {
		return nil, storage.Info{}, notFound(err)
	}
	p.enter(s, Download)
	return r, info, nil
}

func (p *Pipeline) enter(s *session.Session, mode Mode) {
	if s.Mode == string(mode) {
		return
	}
	log.Debug().
		Str("session", s.ID).
		Str("from", s.Mode).
		Str("to", string(mode)).
		Msg("mode")
	s.Mode = string(mode)
	if err := p.sessions.Persist(s); err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("could not persist session")
	}
}

func notFound(err error) error {
	if errors.Is(err, storage.NotFoundErr) {
		return fmt.Errorf("%s: %w", err.Error(), ErrNoModel)
	}
	return err
}

func (p *Pipeline) upload(ctx context.Context, s *session.Session, in Input) (*View, error) {
	if in.CSV == nil {
		return nil, fmt.Errorf("no csv: %w", frame.ErrEmpty)
	}
	f, err := frame.ReadCSV(in.CSV)
	if err != nil {
		return nil, err
	}
	s.Pending = f
	summary := frame.Summarize(f)
	log.Info().
		Str("session", s.ID).
		Int("rows", summary.Rows).
		Int("cols", summary.Cols).
		Int("duplicate-rows", summary.DuplicateRows).
		Msg("uploaded table")
	return &View{Summary: &summary}, nil
}

func (p *Pipeline) clean(ctx context.Context, s *session.Session, in Input) (*View, error) {
	if s.Pending == nil {
		return nil, ErrNoUpload
	}
	before := frame.Summarize(s.Pending)
	cleaned := s.Pending.DropDuplicateRows()
	if in.Columns {
		cleaned = cleaned.DropDuplicateColumns()
	}
	s.Pending = cleaned
	after := frame.Summarize(cleaned)
	log.Info().
		Str("session", s.ID).
		Int("dropped-rows", before.Rows-after.Rows).
		Int("dropped-cols", before.Cols-after.Cols).
		Msg("cleaned table")
	return &View{Summary: &before, Cleaned: &after}, nil
}

func (p *Pipeline) save(ctx context.Context, s *session.Session, in Input) (*View, error) {
	if s.Pending == nil {
		return nil, ErrNoUpload
	}
	if err := session.SaveDataset(p.ws, s.ID, s.Pending); err != nil {
		return nil, err
	}
	s.Dataset = s.Pending
	s.Pending = nil
	s.Reset()
	if !s.Dataset.Has(s.Target) {
		s.Target = ""
	}
	summary := frame.Summarize(s.Dataset)
	log.Info().
		Str("session", s.ID).
		Int("rows", summary.Rows).
		Int("cols", summary.Cols).
		Msg("saved dataset")
	return &View{Summary: &summary, Saved: true}, nil
}

func (p *Pipeline) profile(ctx context.Context, s *session.Session, in Input) (*View, error) {
	var report *profile.Report
	var err error
	if p.reports != nil {
		report, err = p.reports.Build(s.Dataset, p.cfg.Profile)
	} else {
		report, err = profile.Build(s.Dataset, p.cfg.Profile)
	}
	if err != nil {
		return nil, err
	}
	return &View{Report: report}, nil
}

func (p *Pipeline) modeling(s *session.Session) *View {
	return &View{
		Columns:     s.Dataset.Names(),
		Target:      s.Target,
		Task:        s.Task,
		Settings:    s.Settings,
		Leaderboard: s.Leaderboard,
		Meta:        s.Meta,
	}
}

func (p *Pipeline) train(ctx context.Context, s *session.Session, in Input) (*View, error) {
	task := in.Task
	if task == "" {
		task = automl.Auto
	}
	s.Reset()
	start := time.Now()
	exp, err := automl.Setup(s.Dataset, in.Target, task, p.cfg.Training)
	if err != nil {
		return nil, err
	}
	s.Target = in.Target
	s.Task = task
	s.Settings = exp.Settings

	board, err := exp.Compare(ctx)
	if err != nil {
		return nil, err
	}
	s.Leaderboard = board
	best, ok := board.Best()
	if !ok {
		return nil, automl.ErrNoCandidates
	}
	model, err := exp.Finalize(best)
	if err != nil {
		return nil, err
	}
	if err := session.SaveModel(p.ws, s.ID, model.Artifact); err != nil {
		return nil, fmt.Errorf("could not save model: %w", err)
	}
	meta := model.Artifact.Meta()
	s.Model = model
	s.Meta = &meta

	elapsed := time.Since(start)
	metrics.Observer.ObserveTraining(string(exp.Task), elapsed)
	if p.runs != nil {
		run := &sqlite.Run{
			Session:  s.ID,
			Target:   in.Target,
			Task:     string(exp.Task),
			Model:    best.ID,
			Metric:   board.Sort,
			Score:    best.Scores[board.Sort],
			Rows:     len(exp.Y),
			Duration: elapsed.Seconds(),
		}
		if err := p.runs.Add(run); err != nil {
			log.Error().Err(err).Str("session", s.ID).Msg("could not record run")
		}
	}
	log.Info().
		Str("session", s.ID).
		Str("target", in.Target).
		Str("task", string(exp.Task)).
		Str("model", best.ID).
		Float64(board.Sort, best.Scores[board.Sort]).
		Float64("duration", elapsed.Seconds()).
		Msg("trained model")
	return p.modeling(s), nil
}

func (p *Pipeline) describe(s *session.Session) (*View, error) {
	info, err := p.ws.Stat(s.Key(storage.ModelFile))
	if err != nil {
		return nil, notFound(err)
	}
	return &View{
		Target: s.Meta.Target,
		Task:   s.Meta.Task,
		Meta:   s.Meta,
		Size:   info.Size,
	}, nil
}

func (p *Pipeline) download(ctx context.Context, s *session.Session, in Input) (*View, error) {
	return p.describe(s)
}

func (p *Pipeline) predict(ctx context.Context, s *session.Session, in Input) (*View, error) {
	if in.CSV == nil {
		return nil, fmt.Errorf("no csv: %w", frame.ErrEmpty)
	}
	f, err := frame.ReadCSV(in.CSV)
	if err != nil {
		return nil, err
	}
	predictions, err := s.Model.Predict(f)
	if err != nil {
		return nil, err
	}
	return &View{
		Target:      s.Meta.Target,
		Meta:        s.Meta,
		Predictions: predictions,
	}, nil
}
