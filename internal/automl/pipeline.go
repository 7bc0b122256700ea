package automl

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/drakos74/free-ml/internal/frame"
	"gonum.org/v1/gonum/stat"
)

// ErrMissingFeature is returned when a frame lacks a column the pipeline was fitted on.
var ErrMissingFeature = errors.New("missing feature column")

// Kind is the encoding of a feature.
type Kind string

const (
	Numeric Kind = "numeric"
	OneHot  Kind = "onehot"
	Ordinal Kind = "ordinal"
)

// Feature is the fitted encoding of one input column.
type Feature struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Fill replaces missing numeric values.
	Fill float64 `json:"fill,omitempty"`
	// Mode replaces missing categorical values.
	Mode   string   `json:"mode,omitempty"`
	Levels []string `json:"levels,omitempty"`
}

func (ft Feature) width() int {
	if ft.Kind == OneHot {
		return len(ft.Levels)
	}
	return 1
}

// Pipeline turns a frame into the numeric design matrix the models are trained on.
type Pipeline struct {
	Target   string    `json:"target"`
	Task     Task      `json:"task"`
	Features []Feature `json:"features"`
	// Labels are the sorted classes of a classification target.
	Labels []string  `json:"labels,omitempty"`
	Center []float64 `json:"center"`
	Scale  []float64 `json:"scale"`
}

// Columns returns the names of the encoded columns.
func (p *Pipeline) Columns() []string {
	names := make([]string, 0, len(p.Center))
	for _, ft := range p.Features {
		if ft.Kind == OneHot {
			for _, l := range ft.Levels {
				names = append(names, ft.Name+"_"+l)
			}
			continue
		}
		names = append(names, ft.Name)
	}
	return names
}

// Width returns the number of encoded columns.
func (p *Pipeline) Width() int {
	w := 0
	for _, ft := range p.Features {
		w += ft.width()
	}
	return w
}

// Label maps a class index back to its original value.
func (p *Pipeline) Label(y float64) string {
	if p.Task != Classification {
		return strconv.FormatFloat(y, 'g', -1, 64)
	}
	c := int(math.Round(y))
	if c < 0 || c >= len(p.Labels) {
		return ""
	}
	return p.Labels[c]
}

// fitFeature learns the encoding of a column over the given rows.
func fitFeature(c *frame.Column, rows []int, maxCategories int) Feature {
	ft := Feature{Name: c.Name}
	if c.Numeric() || c.Dtype == frame.Bool {
		ft.Kind = Numeric
		values := make([]float64, 0, len(rows))
		for _, i := range rows {
			if v, ok := c.Float(i); ok {
				values = append(values, v)
			}
		}
		if len(values) > 0 {
			ft.Fill = stat.Mean(values, nil)
		}
		return ft
	}
	counts := make(map[string]int)
	for _, i := range rows {
		if c.IsMissing(i) {
			continue
		}
		counts[c.Value(i)]++
	}
	levels := make([]string, 0, len(counts))
	for l := range counts {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	for _, l := range levels {
		if counts[l] > counts[ft.Mode] {
			ft.Mode = l
		}
	}
	ft.Levels = levels
	ft.Kind = OneHot
	if len(levels) > maxCategories {
		ft.Kind = Ordinal
	}
	return ft
}

// encode writes the unscaled encoding of row i into dst and returns the number of values written.
func (ft Feature) encode(c *frame.Column, i int, dst []float64) int {
	switch ft.Kind {
	case Numeric:
		v, ok := c.Float(i)
		if !ok {
			if c.IsMissing(i) {
				v = ft.Fill
			} else {
				v, ok = parse(c.Cell(i))
				if !ok {
					v = ft.Fill
				}
			}
		}
		dst[0] = v
		return 1
	}
	value := ft.Mode
	if !c.IsMissing(i) {
		value = c.Value(i)
	}
	idx := sort.SearchStrings(ft.Levels, value)
	known := idx < len(ft.Levels) && ft.Levels[idx] == value
	if ft.Kind == Ordinal {
		dst[0] = -1
		if known {
			dst[0] = float64(idx)
		}
		return 1
	}
	for l := range ft.Levels {
		dst[l] = 0
	}
	if known {
		dst[idx] = 1
	}
	return len(ft.Levels)
}

func parse(s string) (float64, bool) {
	if s == "True" || s == "true" {
		return 1, true
	}
	if s == "False" || s == "false" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// encode returns the unscaled design matrix of the given rows.
func (p *Pipeline) encode(f *frame.Frame, rows []int) ([][]float64, error) {
	columns := make([]*frame.Column, len(p.Features))
	for j, ft := range p.Features {
		c, ok := f.Column(ft.Name)
		if !ok {
			return nil, fmt.Errorf("'%s': %w", ft.Name, ErrMissingFeature)
		}
		columns[j] = c
	}
	w := p.Width()
	xx := make([][]float64, len(rows))
	for r, i := range rows {
		x := make([]float64, w)
		k := 0
		for j, ft := range p.Features {
			k += ft.encode(columns[j], i, x[k:])
		}
		xx[r] = x
	}
	return xx, nil
}

// fitScale learns the z-score normalisation of the encoded columns.
func (p *Pipeline) fitScale(xx [][]float64) {
	w := p.Width()
	p.Center = make([]float64, w)
	p.Scale = make([]float64, w)
	col := make([]float64, len(xx))
	for j := 0; j < w; j++ {
		for i, x := range xx {
			col[i] = x[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		p.Center[j] = mean
		p.Scale[j] = std
	}
}

func (p *Pipeline) scale(xx [][]float64) {
	for _, x := range xx {
		for j := range x {
			x[j] = (x[j] - p.Center[j]) / p.Scale[j]
		}
	}
}

// Transform encodes and normalises all rows of the frame.
// The target column is not required.
func (p *Pipeline) Transform(f *frame.Frame) ([][]float64, error) {
	rows := make([]int, f.Rows())
	for i := range rows {
		rows[i] = i
	}
	xx, err := p.encode(f, rows)
	if err != nil {
		return nil, err
	}
	p.scale(xx)
	return xx, nil
}

// fitTarget learns the class labels and encodes the target of the given rows.
func (p *Pipeline) fitTarget(c *frame.Column, rows []int) ([]float64, error) {
	y := make([]float64, len(rows))
	if p.Task == Regression {
		if !c.Numeric() && c.Dtype != frame.Bool {
			return nil, fmt.Errorf("'%s' is %s: %w", c.Name, c.Dtype, ErrNonNumericTarget)
		}
		for r, i := range rows {
			y[r], _ = c.Float(i)
		}
		return y, nil
	}
	seen := make(map[string]float64)
	for _, i := range rows {
		seen[c.Value(i)] = 0
		if v, ok := c.Float(i); ok {
			seen[c.Value(i)] = v
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	if c.Numeric() {
		sort.Slice(labels, func(a, b int) bool {
			return seen[labels[a]] < seen[labels[b]]
		})
	} else {
		sort.Strings(labels)
	}
	if len(labels) < 2 {
		return nil, fmt.Errorf("'%s' has %d class: %w", c.Name, len(labels), ErrSingleClass)
	}
	index := make(map[string]int, len(labels))
	for k, l := range labels {
		index[l] = k
	}
	for r, i := range rows {
		y[r] = float64(index[c.Value(i)])
	}
	p.Labels = labels
	return y, nil
}
