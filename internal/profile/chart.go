package profile

import (
	"bytes"
	"fmt"
	"html"

	fmath "github.com/drakos74/free-ml/internal/math"
	"github.com/rs/zerolog/log"
	"github.com/wcharczuk/go-chart"
)

const (
	chartWidth  = 480
	chartHeight = 240
)

// render draws the histogram or the top values of the variable as svg.
func render(v Variable) (svg string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("variable", v.Name).Msgf("could not render chart: %v", r)
			svg = ""
		}
	}()
	bars := make([]chart.Value, 0)
	for _, b := range v.Histogram {
		bars = append(bars, chart.Value{
			Label: fmath.FormatP(b.From, 2),
			Value: float64(b.Count),
		})
	}
	for _, f := range v.Top {
		bars = append(bars, chart.Value{
			Label: html.EscapeString(f.Value),
			Value: float64(f.Count),
		})
	}
	if len(bars) == 0 {
		return ""
	}
	out, err := bar(html.EscapeString(v.Name), bars)
	if err != nil {
		log.Warn().Err(err).Str("variable", v.Name).Msg("could not render chart")
		return ""
	}
	return out
}

func bar(title string, bars []chart.Value) (string, error) {
	max := 0.0
	for _, b := range bars {
		if b.Value > max {
			max = b.Value
		}
	}
	if max == 0 {
		max = 1
	}
	width := 24
	if n := len(bars); n > 0 && chartWidth/(2*n) < width {
		width = chartWidth / (2 * n)
	}
	graph := chart.BarChart{
		Title:      title,
		TitleStyle: chart.StyleShow(),
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   width,
		XAxis:      chart.StyleShow(),
		YAxis: chart.YAxis{
			Style: chart.StyleShow(),
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: max,
			},
		},
		Bars: bars,
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("could not render '%s': %w", title, err)
	}
	return buf.String(), nil
}
