package profile

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	fmath "github.com/drakos74/free-ml/internal/math"
)

//go:embed templates/*.html
var templates embed.FS

var page = template.Must(template.New("profile").Funcs(template.FuncMap{
	"number": func(f float64) string {
		return fmath.Format(f)
	},
	"percent": func(f float64) string {
		return fmath.FormatP(100*f, 1) + "%"
	},
	// the svg is produced by the chart renderer from escaped labels
	"svg": func(s string) template.HTML {
		return template.HTML(s)
	},
	"join": func(ss []string) string {
		return strings.Join(ss, ", ")
	},
}).ParseFS(templates, "templates/*.html"))

// HTML writes the report as a standalone page.
func (r *Report) HTML(w io.Writer) error {
	if err := page.ExecuteTemplate(w, "report", r); err != nil {
		return fmt.Errorf("could not render report: %w", err)
	}
	return nil
}

// Body renders the report sections for embedding into another page.
func (r *Report) Body() (template.HTML, error) {
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "body", r); err != nil {
		return "", fmt.Errorf("could not render report: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// JSON writes the report as json.
func (r *Report) JSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
