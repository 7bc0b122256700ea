package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/drakos74/free-ml/internal/metrics"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Action string

type Method string

const (
	Page Action = ""
	Api  Action = "api"
	Data Action = "data"

	GET  Method = "GET"
	POST Method = "POST"
)

// Handler serves a request. Headers can be set on the writer,
// the payload and code are written by the server.
type Handler func(w http.ResponseWriter, r *http.Request) ([]byte, int, error)

// Route binds a handler to a method and path.
type Route struct {
	Action Action
	Path   string
	Method Method
	Exec   Handler
}

func (r Route) path() string {
	return path.Join("/", string(r.Action), r.Path)
}

// ErrorCode maps an error to its response code.
type ErrorCode func(err error) int

type Server struct {
	name   string
	port   int
	debug  bool
	block  *Block
	routes []Route
	codes  ErrorCode
}

func NewServer(name string, port int) *Server {
	return &Server{
		name:   name,
		port:   port,
		block:  NewBlock(),
		routes: make([]Route, 0),
		codes: func(err error) int {
			return http.StatusInternalServerError
		},
	}
}

// Debug sets the server to debug mode
func (s *Server) Debug() *Server {
	s.debug = true
	return s
}

// Errors sets the mapping of errors to response codes.
func (s *Server) Errors(codes ErrorCode) *Server {
	s.codes = codes
	return s
}

// AddRoute adds a route to the server
func (s *Server) AddRoute(method Method, action Action, path string, exec Handler) *Server {
	s.routes = append(s.routes, Route{
		Action: action,
		Path:   path,
		Method: method,
		Exec:   exec,
	})
	return s
}

// Add adds the given routes to the server
func (s *Server) Add(route ...Route) *Server {
	s.routes = append(s.routes, route...)
	return s
}

func (s *Server) handle(route Route) http.HandlerFunc {
	name := fmt.Sprintf("%s %s", route.Method, route.path())
	return func(w http.ResponseWriter, r *http.Request) {
		signal := NewSignal(name)
		s.block.Action(signal)
		status := http.StatusInternalServerError
		defer func() {
			s.block.ReAction(signal, status)
			metrics.Observer.IncrementRequests(route.path(), status)
		}()
		b, code, err := route.Exec(w, r)
		if err != nil {
			status = s.error(w, r, err)
			return
		}
		if code == 0 {
			code = http.StatusOK
		}
		status = code
		s.code(w, b, code)
	}
}

// Handler returns the router serving all routes.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	for _, route := range s.routes {
		router.HandleFunc(route.path(), s.handle(route)).Methods(string(route.Method))
	}
	router.Handle("/metrics", promhttp.Handler()).Methods(string(GET))
	var h http.Handler = router
	if s.debug {
		h = handlers.CombinedLoggingHandler(log.Logger, h)
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recovery{}),
		handlers.PrintRecoveryStack(s.debug),
	)(h)
}

// Run starts the server and stops it when the context is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Error().Err(err).Msg("could not shut down server")
		}
	}()
	log.Warn().Str("server", s.name).Int("port", s.port).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not start server: %w", err)
	}
	log.Warn().Str("server", s.name).Msg("stopped server")
	return nil
}

func (s *Server) code(w http.ResponseWriter, b []byte, code int) {
	w.WriteHeader(code)
	s.respond(w, b)
}

func (s *Server) respond(w http.ResponseWriter, b []byte) {
	if len(b) == 0 {
		return
	}
	_, err := w.Write(b)
	if err != nil {
		log.Error().Err(err).Msg("could not write response")
	}
}

func (s *Server) error(w http.ResponseWriter, r *http.Request, err error) int {
	code := s.codes(err)
	log.Error().Err(err).Str("path", r.URL.Path).Int("code", code).Msg("error for http request")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	s.code(w, []byte(err.Error()), code)
	return code
}

type recovery struct{}

// Println logs the recovered panic.
func (recovery) Println(v ...interface{}) {
	log.Error().Str("panic", fmt.Sprint(v...)).Msg("recovered http request")
}

func Live() Route {
	return Route{
		Action: Page,
		Path:   "live",
		Method: GET,
		Exec: func(w http.ResponseWriter, r *http.Request) (payload []byte, code int, err error) {
			return []byte{}, http.StatusOK, nil
		},
	}
}

// Json encodes the value as the json payload of the response.
func Json(w http.ResponseWriter, v interface{}) ([]byte, int, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, 0, fmt.Errorf("could not encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	return b, http.StatusOK, nil
}

func JsonRead(r *http.Request, debug bool, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if debug {
		log.Info().
			Str("url", fmt.Sprintf("%+v", r.URL)).
			Str("request", r.RequestURI).
			Str("remote-address", r.RemoteAddr).
			Str("host", r.Host).
			Str("method", r.Method).
			Str("body", string(body)).
			Msg("received payload")
	}
	if len(body) > 0 {
		err = json.Unmarshal(body, v)
		if err != nil {
			return err
		}
	}
	return nil
}
