package automl

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/drakos74/free-ml/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ErrUnknownMetric is returned when sorting by a metric the task does not report.
var ErrUnknownMetric = errors.New("unknown metric")

// Folds returns the cross validation splits of the experiment.
// The same splits are used for every candidate.
func (e *Experiment) Folds() ([]Fold, error) {
	k := e.Config.Folds
	if k > len(e.Y) {
		k = len(e.Y)
	}
	if k < 2 {
		return nil, fmt.Errorf("%d rows for %d folds: %w", len(e.Y), e.Config.Folds, ErrTooFewRows)
	}
	rng := rand.New(rand.NewSource(e.Config.Seed))
	if e.Task == Classification {
		return stratified(e.Y, k, rng), nil
	}
	return kfold(len(e.Y), k, rng), nil
}

func (e *Experiment) sortMetric() (string, error) {
	if e.Config.Sort == "" {
		return DefaultSort(e.Task), nil
	}
	if e.Config.Sort == TT {
		return TT, nil
	}
	for _, m := range Metrics(e.Task) {
		if m == e.Config.Sort {
			return m, nil
		}
	}
	return "", fmt.Errorf("'%s' for %s: %w", e.Config.Sort, e.Task, ErrUnknownMetric)
}

// Compare cross validates every candidate and ranks them by the sort metric.
// Candidates that fail are logged and left out.
func (e *Experiment) Compare(ctx context.Context) (*Leaderboard, error) {
	sortBy, err := e.sortMetric()
	if err != nil {
		return nil, err
	}
	ff, err := e.Folds()
	if err != nil {
		return nil, err
	}
	board := &Leaderboard{
		Task:    e.Task,
		Sort:    sortBy,
		Metrics: Metrics(e.Task),
		Entries: make([]Entry, 0, len(e.catalog)),
		Failed:  make(map[string]string),
	}
	for _, c := range e.catalog {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := e.evaluate(ctx, c, ff)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Warn().
				Err(err).
				Str("model", c.ID).
				Str("task", string(e.Task)).
				Msg("excluding model")
			metrics.Observer.IncrementCandidates(c.ID, "failed")
			board.Failed[c.ID] = err.Error()
			continue
		}
		metrics.Observer.IncrementCandidates(c.ID, "ok")
		log.Debug().
			Str("model", c.ID).
			Float64(sortBy, entry.Scores[sortBy]).
			Float64("duration", entry.Scores[TT]).
			Msg("evaluated model")
		board.Entries = append(board.Entries, entry)
	}
	if len(board.Entries) == 0 {
		return nil, fmt.Errorf("all %d models failed: %w", len(e.catalog), ErrNoCandidates)
	}
	board.sort()
	return board, nil
}

// evaluate runs the cross validation of one candidate.
func (e *Experiment) evaluate(ctx context.Context, c Candidate, ff []Fold) (entry Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", c.ID, r)
		}
	}()
	k := len(e.Pipeline.Labels)
	scores := make([]Scores, 0, len(ff))
	var elapsed time.Duration
	for i, fold := range ff {
		if err := ctx.Err(); err != nil {
			return Entry{}, err
		}
		model := c.Construct(e.Config.Seed)
		start := time.Now()
		if err := model.Fit(rows(e.X, fold.Train), values(e.Y, fold.Train)); err != nil {
			return Entry{}, fmt.Errorf("could not fit fold %d: %w", i, err)
		}
		p, err := model.Predict(rows(e.X, fold.Test))
		if err != nil {
			return Entry{}, fmt.Errorf("could not predict fold %d: %w", i, err)
		}
		elapsed += time.Since(start)
		scores = append(scores, score(e.Task, values(e.Y, fold.Test), p, k))
	}
	avg := mean(scores)
	avg[TT] = elapsed.Seconds() / float64(len(ff))
	return Entry{
		ID:     c.ID,
		Model:  c.Name,
		Scores: avg,
	}, nil
}

func (l *Leaderboard) sort() {
	asc := ascending(l.Sort)
	sort.SliceStable(l.Entries, func(i, j int) bool {
		a, b := l.Entries[i].Scores[l.Sort], l.Entries[j].Scores[l.Sort]
		if asc {
			return a < b
		}
		return a > b
	})
}
