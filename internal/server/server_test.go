package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBad = errors.New("bad input")

func testServer() *Server {
	s := NewServer("test", 0).
		Errors(func(err error) int {
			if errors.Is(err, errBad) {
				return http.StatusBadRequest
			}
			return http.StatusInternalServerError
		})
	return s.Add(Live()).
		AddRoute(GET, Api, "ok", func(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
			return Json(w, map[string]int{"value": 1})
		}).
		AddRoute(POST, Api, "echo", func(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
			var v map[string]string
			if err := JsonRead(r, true, &v); err != nil {
				return nil, 0, errBad
			}
			return Json(w, v)
		}).
		AddRoute(GET, Api, "bad", func(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
			return nil, 0, errBad
		}).
		AddRoute(GET, Api, "fail", func(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
			return nil, 0, errors.New("boom")
		}).
		AddRoute(GET, Page, "redirect", func(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
			w.Header().Set("Location", "/live")
			return nil, http.StatusSeeOther, nil
		}).
		AddRoute(GET, Api, "panic", func(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
			panic("unexpected")
		})
}

func TestServer(t *testing.T) {

	type test struct {
		method string
		path   string
		body   string
		code   int
		expect string
	}

	tests := map[string]test{
		"live":          {method: "GET", path: "/live", code: http.StatusOK},
		"json":          {method: "GET", path: "/api/ok", code: http.StatusOK, expect: `{"value":1}`},
		"echo":          {method: "POST", path: "/api/echo", body: `{"a":"b"}`, code: http.StatusOK, expect: `{"a":"b"}`},
		"echo-invalid":  {method: "POST", path: "/api/echo", body: `{`, code: http.StatusBadRequest, expect: "bad input"},
		"mapped-error":  {method: "GET", path: "/api/bad", code: http.StatusBadRequest, expect: "bad input"},
		"other-error":   {method: "GET", path: "/api/fail", code: http.StatusInternalServerError, expect: "boom"},
		"redirect":      {method: "GET", path: "/redirect", code: http.StatusSeeOther},
		"panic":         {method: "GET", path: "/api/panic", code: http.StatusInternalServerError},
		"wrong-method":  {method: "POST", path: "/api/ok", code: http.StatusMethodNotAllowed},
		"unknown-route": {method: "GET", path: "/api/other", code: http.StatusNotFound},
	}

	s := testServer()
	h := s.Handler()
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.expect)
		})
	}
	assert.Equal(t, 0, s.block.Pending())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `freeml_requests{code="200",route="/live"}`)
}

func TestBlock(t *testing.T) {
	b := NewBlock()
	s := NewSignal("GET /")
	b.Action(s)
	assert.Equal(t, 1, b.Pending())
	b.ReAction(s, http.StatusOK)
	assert.Equal(t, 0, b.Pending())
	// unmatched reactions are ignored
	b.ReAction(NewSignal("GET /"), http.StatusOK)
	assert.Equal(t, 0, b.Pending())
}
