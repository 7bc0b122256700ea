package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/drakos74/free-ml/internal/automl"
	"github.com/drakos74/free-ml/internal/frame"
	"github.com/drakos74/free-ml/internal/pipeline"
	"github.com/drakos74/free-ml/internal/profile"
	"github.com/drakos74/free-ml/internal/server"
	"github.com/drakos74/free-ml/internal/session"
	"github.com/drakos74/free-ml/internal/storage"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
)

const (
	cookieName = "free-ml"
	sessionKey = "sid"
	fileField  = "file"
)

var (
	// ErrNoLeaderboard is returned when the session has not trained yet.
	ErrNoLeaderboard = errors.New("no leaderboard")
	// ErrBadRequest is returned for requests that cannot be read.
	ErrBadRequest = errors.New("bad request")
)

// Config holds the parameters of the http surface.
type Config struct {
	Title    string
	Secret   []byte
	MaxAge   time.Duration
	MaxBytes int64
	Secure   bool
	Debug    bool
}

// Handlers serves the pages and the api of every mode.
type Handlers struct {
	pipeline *pipeline.Pipeline
	cookies  *sessions.CookieStore
	title    string
	maxBytes int64
	debug    bool
}

// New creates the handlers over the pipeline.
func New(p *pipeline.Pipeline, cfg Config) *Handlers {
	cookies := sessions.NewCookieStore(cfg.Secret)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	title := cfg.Title
	if title == "" {
		title = "free-ml"
	}
	return &Handlers{
		pipeline: p,
		cookies:  cookies,
		title:    title,
		maxBytes: cfg.MaxBytes,
		debug:    cfg.Debug,
	}
}

// Status maps the errors of the pipeline to response codes.
func Status(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, frame.ErrEmpty),
		errors.Is(err, frame.ErrMalformed),
		errors.Is(err, automl.ErrUnknownTarget),
		errors.Is(err, automl.ErrEmptyTarget),
		errors.Is(err, automl.ErrSingleClass),
		errors.Is(err, automl.ErrNonNumericTarget),
		errors.Is(err, automl.ErrUnknownTask),
		errors.Is(err, automl.ErrTooFewRows),
		errors.Is(err, automl.ErrUnknownMetric),
		errors.Is(err, automl.ErrMissingFeature),
		errors.Is(err, pipeline.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoModel),
		errors.Is(err, ErrNoLeaderboard),
		errors.Is(err, storage.NotFoundErr):
		return http.StatusNotFound
	case errors.Is(err, profile.ErrNoDataset),
		errors.Is(err, pipeline.ErrNoUpload):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// session returns the session of the request and refreshes its cookie.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) *session.Session {
	cookie, err := h.cookies.Get(r, cookieName)
	if err != nil {
		log.Debug().Err(err).Msg("could not decode session cookie")
	}
	id, _ := cookie.Values[sessionKey].(string)
	s := h.pipeline.Sessions().Resolve(id)
	cookie.Values[sessionKey] = s.ID
	if err := cookie.Save(r, w); err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("could not save session cookie")
	}
	return s
}

// Routes returns the routes of the pages and the api.
func (h *Handlers) Routes() []server.Route {
	return []server.Route{
		server.Live(),
		// pages
		{Action: server.Page, Path: "", Method: server.GET, Exec: h.index},
		{Action: server.Page, Path: "upload", Method: server.GET, Exec: h.show(pipeline.Upload)},
		{Action: server.Page, Path: "upload", Method: server.POST, Exec: h.uploadPage},
		{Action: server.Page, Path: "upload/clean", Method: server.POST, Exec: h.cleanPage},
		{Action: server.Page, Path: "upload/save", Method: server.POST, Exec: h.savePage},
		{Action: server.Page, Path: "profiling", Method: server.GET, Exec: h.show(pipeline.Profiling)},
		{Action: server.Page, Path: "modeling", Method: server.GET, Exec: h.show(pipeline.Modeling)},
		{Action: server.Page, Path: "modeling", Method: server.POST, Exec: h.trainPage},
		{Action: server.Page, Path: "download", Method: server.GET, Exec: h.show(pipeline.Download)},
		{Action: server.Page, Path: "download/model", Method: server.GET, Exec: h.model},
		// api
		{Action: server.Api, Path: "upload", Method: server.POST, Exec: h.upload},
		{Action: server.Api, Path: "clean", Method: server.POST, Exec: h.clean},
		{Action: server.Api, Path: "save", Method: server.POST, Exec: h.save},
		{Action: server.Api, Path: "summary", Method: server.GET, Exec: h.summary},
		{Action: server.Api, Path: "profile", Method: server.GET, Exec: h.profile},
		{Action: server.Api, Path: "train", Method: server.POST, Exec: h.train},
		{Action: server.Api, Path: "leaderboard", Method: server.GET, Exec: h.leaderboard},
		{Action: server.Api, Path: "leaderboard.csv", Method: server.GET, Exec: h.leaderboardCSV},
		{Action: server.Api, Path: "model", Method: server.GET, Exec: h.model},
		{Action: server.Api, Path: "predict", Method: server.POST, Exec: h.predict},
		{Action: server.Api, Path: "runs", Method: server.GET, Exec: h.runs},
		{Action: server.Api, Path: "mode", Method: server.GET, Exec: h.mode},
	}
}

// csv returns the uploaded table of the request, either a multipart file or the raw body.
func (h *Handlers) csv(w http.ResponseWriter, r *http.Request) (io.Reader, error) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile(fileField)
		if err != nil {
			// the form parser does not always keep the body error
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			if _, rerr := r.Body.Read(make([]byte, 1)); errors.As(rerr, &tooLarge) {
				return nil, fmt.Errorf("could not read upload: %w", rerr)
			}
			return nil, fmt.Errorf("no '%s' in form: %s: %w", fileField, err.Error(), ErrBadRequest)
		}
		defer f.Close()
		src = f
	}
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("could not read upload: %w", err)
	}
	return bytes.NewReader(b), nil
}

func (h *Handlers) index(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	s := h.session(w, r)
	mode, err := pipeline.ParseMode(s.Mode)
	if err != nil {
		mode = pipeline.Upload
	}
	w.Header().Set("Location", "/"+string(mode))
	return nil, http.StatusSeeOther, nil
}

func (h *Handlers) show(mode pipeline.Mode) server.Handler {
	return func(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
		s := h.session(w, r)
		v, err := h.pipeline.Show(r.Context(), s, mode)
		return h.render(w, h.page(mode, v), err)
	}
}

func (h *Handlers) do(w http.ResponseWriter, r *http.Request, op pipeline.Op, in pipeline.Input) ([]byte, int, error) {
	s := h.session(w, r)
	mode, err := op.Mode()
	if err != nil {
		return nil, 0, err
	}
	v, err := h.pipeline.Do(r.Context(), s, op, in)
	return h.render(w, h.page(mode, v), err)
}

func (h *Handlers) uploadPage(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	csv, err := h.csv(w, r)
	if err != nil {
		return h.render(w, h.page(pipeline.Upload, nil), err)
	}
	return h.do(w, r, pipeline.OpUpload, pipeline.Input{CSV: csv})
}

func (h *Handlers) cleanPage(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	columns, _ := strconv.ParseBool(r.FormValue("columns"))
	return h.do(w, r, pipeline.OpClean, pipeline.Input{Columns: columns})
}

func (h *Handlers) savePage(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	return h.do(w, r, pipeline.OpSave, pipeline.Input{})
}

func (h *Handlers) trainPage(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	task, err := automl.ParseTask(r.FormValue("task"))
	if err != nil {
		return h.render(w, h.page(pipeline.Modeling, nil), err)
	}
	s := h.session(w, r)
	v, err := h.pipeline.Do(r.Context(), s, pipeline.OpTrain, pipeline.Input{
		Target: r.FormValue("target"),
		Task:   task,
	})
	if err != nil {
		// keep the form available
		v, _ = h.pipeline.Show(r.Context(), s, pipeline.Modeling)
	}
	return h.render(w, h.page(pipeline.Modeling, v), err)
}

func (h *Handlers) model(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	s := h.session(w, r)
	rc, _, err := h.pipeline.Artifact(s)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, 0, fmt.Errorf("could not read model: %w", err)
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storage.ModelFile))
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	return b, http.StatusOK, nil
}
