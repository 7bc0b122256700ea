package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/drakos74/free-ml/internal/automl"
	"github.com/drakos74/free-ml/internal/pipeline"
	"github.com/drakos74/free-ml/internal/server"
)

// CleanRequest are the options of the clean operation.
type CleanRequest struct {
	Columns bool `json:"columns"`
}

// TrainRequest chooses the target and the task of a training run.
type TrainRequest struct {
	Target string `json:"target"`
	Task   string `json:"task"`
}

// ModeResponse reports the active mode of the session.
type ModeResponse struct {
	Session string          `json:"session"`
	Mode    string          `json:"mode"`
	Modes   []pipeline.Mode `json:"modes"`
}

func (h *Handlers) apply(w http.ResponseWriter, r *http.Request, op pipeline.Op, in pipeline.Input) ([]byte, int, error) {
	s := h.session(w, r)
	v, err := h.pipeline.Do(r.Context(), s, op, in)
	if err != nil {
		return nil, 0, err
	}
	return server.Json(w, v)
}

func (h *Handlers) upload(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	csv, err := h.csv(w, r)
	if err != nil {
		return nil, 0, err
	}
	return h.apply(w, r, pipeline.OpUpload, pipeline.Input{CSV: csv})
}

func (h *Handlers) clean(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	var req CleanRequest
	if err := server.JsonRead(r, h.debug, &req); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", err.Error(), ErrBadRequest)
	}
	return h.apply(w, r, pipeline.OpClean, pipeline.Input{Columns: req.Columns})
}

func (h *Handlers) save(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	return h.apply(w, r, pipeline.OpSave, pipeline.Input{})
}

func (h *Handlers) view(w http.ResponseWriter, r *http.Request, mode pipeline.Mode) (*pipeline.View, error) {
	s := h.session(w, r)
	return h.pipeline.Show(r.Context(), s, mode)
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	v, err := h.view(w, r, pipeline.Upload)
	if err != nil {
		return nil, 0, err
	}
	if v.Summary == nil {
		return nil, 0, fmt.Errorf("summary: %w", pipeline.ErrNoUpload)
	}
	return server.Json(w, v)
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	v, err := h.view(w, r, pipeline.Profiling)
	if err != nil {
		return nil, 0, err
	}
	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := v.Report.HTML(&buf); err != nil {
			return nil, 0, err
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		return buf.Bytes(), http.StatusOK, nil
	}
	return server.Json(w, v.Report)
}

func (h *Handlers) train(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	var req TrainRequest
	if err := server.JsonRead(r, h.debug, &req); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", err.Error(), ErrBadRequest)
	}
	task, err := automl.ParseTask(req.Task)
	if err != nil {
		return nil, 0, err
	}
	return h.apply(w, r, pipeline.OpTrain, pipeline.Input{
		Target: req.Target,
		Task:   task,
	})
}

func (h *Handlers) board(w http.ResponseWriter, r *http.Request) (*automl.Leaderboard, error) {
	v, err := h.view(w, r, pipeline.Modeling)
	if err != nil {
		return nil, err
	}
	if v.Leaderboard == nil {
		return nil, ErrNoLeaderboard
	}
	return v.Leaderboard, nil
}

func (h *Handlers) leaderboard(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	board, err := h.board(w, r)
	if err != nil {
		return nil, 0, err
	}
	return server.Json(w, board)
}

func (h *Handlers) leaderboardCSV(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	board, err := h.board(w, r)
	if err != nil {
		return nil, 0, err
	}
	var buf bytes.Buffer
	if err := board.WriteCSV(&buf); err != nil {
		return nil, 0, err
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.csv"`)
	return buf.Bytes(), http.StatusOK, nil
}

func (h *Handlers) predict(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	csv, err := h.csv(w, r)
	if err != nil {
		return nil, 0, err
	}
	return h.apply(w, r, pipeline.OpPredict, pipeline.Input{CSV: csv})
}

func (h *Handlers) runs(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	s := h.session(w, r)
	runs, err := h.pipeline.Runs(s)
	if err != nil {
		return nil, 0, err
	}
	return server.Json(w, runs)
}

func (h *Handlers) mode(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	s := h.session(w, r)
	s.Lock()
	mode := s.Mode
	s.Unlock()
	if mode == "" {
		mode = string(pipeline.Upload)
	}
	return server.Json(w, ModeResponse{
		Session: s.ID,
		Mode:    mode,
		Modes:   pipeline.Modes,
	})
}
