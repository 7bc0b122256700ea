package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/drakos74/free-ml/internal/automl"
	fmath "github.com/drakos74/free-ml/internal/math"
	"github.com/drakos74/free-ml/internal/pipeline"
)

//go:embed templates/*.html
var templates embed.FS

var funcs = template.FuncMap{
	"number": fmath.Format,
	"title": func(m pipeline.Mode) string {
		s := string(m)
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// pages holds one template set per mode, each defining its own content.
var pages = func() map[pipeline.Mode]*template.Template {
	tt := make(map[pipeline.Mode]*template.Template, len(pipeline.Modes))
	for _, m := range pipeline.Modes {
		tt[m] = template.Must(template.New(string(m)).Funcs(funcs).
			ParseFS(templates, "templates/layout.html", fmt.Sprintf("templates/%s.html", m)))
	}
	return tt
}()

// page is the data of a rendered page.
type page struct {
	Title   string
	Mode    pipeline.Mode
	Modes   []pipeline.Mode
	Session string
	Error   string
	View    *pipeline.View
	Report  template.HTML
	Header  []string
	Rows    [][]string
	Tasks   []automl.Task
}

func (h *Handlers) page(mode pipeline.Mode, v *pipeline.View) *page {
	p := &page{
		Title: h.title,
		Mode:  mode,
		Modes: pipeline.Modes,
		View:  v,
		Tasks: []automl.Task{automl.Auto, automl.Classification, automl.Regression},
	}
	if v == nil {
		return p
	}
	p.Session = v.Session
	if v.Leaderboard != nil {
		p.Header = v.Leaderboard.Header()
		p.Rows = v.Leaderboard.Rows()
	}
	return p
}

// render executes the page of the mode. A failed step is shown on the page
// together with the response code of its error.
func (h *Handlers) render(w http.ResponseWriter, p *page, err error) ([]byte, int, error) {
	code := http.StatusOK
	if err != nil {
		code = Status(err)
		p.Error = err.Error()
	}
	if p.View != nil && p.View.Report != nil {
		body, err := p.View.Report.Body()
		if err != nil {
			return nil, 0, err
		}
		p.Report = body
	}
	var buf bytes.Buffer
	if err := pages[p.Mode].ExecuteTemplate(&buf, "layout", p); err != nil {
		return nil, 0, fmt.Errorf("could not render %s: %w", p.Mode, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return buf.Bytes(), code, nil
}
