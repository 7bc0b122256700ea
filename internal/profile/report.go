package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/drakos74/free-ml/internal/buffer"
	"github.com/drakos74/free-ml/internal/frame"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoDataset is returned when there is no dataset to profile.
var ErrNoDataset = errors.New("no dataset")

const (
	topValues        = 10
	topPatterns      = 10
	highCardinality  = 50
	missingThreshold = 0.2
	zerosThreshold   = 0.5
)

// Options defines the report parameters.
type Options struct {
	Title                string  `json:"title"`
	Bins                 int     `json:"bins"`
	CorrelationThreshold float64 `json:"correlation_threshold"`
}

// DefaultOptions returns the default report parameters.
func DefaultOptions() Options {
	return Options{
		Title:                "Profiling Report",
		Bins:                 10,
		CorrelationThreshold: 0.9,
	}
}

// Kind is the profiling type of a variable.
type Kind string

const (
	Numeric     Kind = "numeric"
	Categorical Kind = "categorical"
	Boolean     Kind = "boolean"
	Text        Kind = "text"
)

// Overview summarises the whole table.
type Overview struct {
	Rows            int          `json:"rows"`
	Columns         int          `json:"columns"`
	MissingCells    int          `json:"missing_cells"`
	MissingPct      float64      `json:"missing_pct"`
	DuplicateRows   int          `json:"duplicate_rows"`
	DuplicatePct    float64      `json:"duplicate_pct"`
	Types           map[Kind]int `json:"types"`
	MemoryFootprint int          `json:"memory_footprint"`
}

// Summary holds the descriptive statistics of a numeric variable.
type Summary struct {
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	Q1        float64 `json:"q1"`
	Median    float64 `json:"median"`
	Q3        float64 `json:"q3"`
	Max       float64 `json:"max"`
	Range     float64 `json:"range"`
	IQR       float64 `json:"iqr"`
	Sum       float64 `json:"sum"`
	Zeros     int     `json:"zeros"`
	ZerosPct  float64 `json:"zeros_pct"`
	Negatives int     `json:"negatives"`
	Infinite  int     `json:"infinite"`
	Skewness  float64 `json:"skewness"`
	Kurtosis  float64 `json:"kurtosis"`
}

// Bin is one bar of a histogram, covering [From, To).
type Bin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// Frequency is the count of one value.
type Frequency struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// Variable is the section of a single column.
type Variable struct {
	Name        string      `json:"name"`
	Kind        Kind        `json:"kind"`
	Dtype       frame.Dtype `json:"dtype"`
	Distinct    int         `json:"distinct"`
	DistinctPct float64     `json:"distinct_pct"`
	Missing     int         `json:"missing"`
	MissingPct  float64     `json:"missing_pct"`
	Summary     *Summary    `json:"summary,omitempty"`
	Histogram   []Bin       `json:"histogram,omitempty"`
	Top         []Frequency `json:"top,omitempty"`
	// Chart is the rendered svg of the histogram or the top values.
	Chart string `json:"-"`
}

// Correlations holds the correlation matrices of the numeric variables.
type Correlations struct {
	Columns  []string    `json:"columns"`
	Pearson  [][]float64 `json:"pearson"`
	Spearman [][]float64 `json:"spearman"`
}

// Pattern is a combination of missing columns and the number of rows showing it.
type Pattern struct {
	Columns []string `json:"columns"`
	Count   int      `json:"count"`
}

// Missing describes the missing values of the table.
type Missing struct {
	Counts   map[string]int `json:"counts"`
	Patterns []Pattern      `json:"patterns"`
}

// Alert flags a property of the data worth a look.
type Alert struct {
	Kind    string `json:"kind"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// Report is the descriptive profile of a table.
type Report struct {
	Title        string       `json:"title"`
	Fingerprint  string       `json:"fingerprint"`
	Created      time.Time    `json:"created"`
	Overview     Overview     `json:"overview"`
	Variables    []Variable   `json:"variables"`
	Correlations Correlations `json:"correlations"`
	Missing      Missing      `json:"missing"`
	Alerts       []Alert      `json:"alerts"`
}

// Build profiles the frame.
func Build(f *frame.Frame, opts Options) (*Report, error) {
	if f == nil {
		return nil, ErrNoDataset
	}
	if opts.Bins <= 0 {
		opts.Bins = DefaultOptions().Bins
	}
	if opts.CorrelationThreshold <= 0 {
		opts.CorrelationThreshold = DefaultOptions().CorrelationThreshold
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}
	start := time.Now()
	rows, cols := f.Shape()
	summary := frame.Summarize(f)

	r := &Report{
		Title:       opts.Title,
		Fingerprint: fmt.Sprintf("%016x", f.Fingerprint()),
		Created:     time.Now().UTC(),
		Overview: Overview{
			Rows:          rows,
			Columns:       cols,
			DuplicateRows: summary.DuplicateRows,
			DuplicatePct:  pct(summary.DuplicateRows, rows),
			Types:         make(map[Kind]int),
		},
		Variables: make([]Variable, 0, cols),
		Missing: Missing{
			Counts: make(map[string]int, cols),
		},
		Alerts: make([]Alert, 0),
	}

	for j, c := range f.Columns() {
		info := summary.Columns[j]
		v := Variable{
			Name:        c.Name,
			Dtype:       c.Dtype,
			Distinct:    info.Unique,
			DistinctPct: pct(info.Unique, rows-info.Missing),
			Missing:     info.Missing,
			MissingPct:  pct(info.Missing, rows),
		}
		v.Kind = kind(c, info)
		switch v.Kind {
		case Numeric:
			v.Summary, v.Histogram = describe(c, opts.Bins)
		default:
			v.Top = top(c, rows-info.Missing)
		}
		v.Chart = render(v)
		r.Overview.Types[v.Kind]++
		r.Overview.MissingCells += info.Missing
		for i := 0; i < rows; i++ {
			r.Overview.MemoryFootprint += len(c.Cell(i))
		}
		r.Missing.Counts[c.Name] = info.Missing
		r.Variables = append(r.Variables, v)
	}
	r.Overview.MissingPct = pct(r.Overview.MissingCells, rows*cols)
	r.Missing.Patterns = patterns(f)
	r.Correlations = correlations(f)
	r.Alerts = alerts(r, opts)

	log.Info().
		Str("fingerprint", r.Fingerprint).
		Int("rows", rows).
		Int("columns", cols).
		Int("alerts", len(r.Alerts)).
		Dur("duration", time.Since(start)).
		Msg("built profile")
	return r, nil
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// finite replaces undefined statistics with 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func kind(c *frame.Column, info frame.ColumnInfo) Kind {
	switch {
	case c.Numeric():
		return Numeric
	case c.Dtype == frame.Bool:
		return Boolean
	}
	present := c.Len() - info.Missing
	if info.Unique > highCardinality && pct(info.Unique, present) > 0.5 {
		return Text
	}
	return Categorical
}

// describe computes the summary and histogram of the finite values.
// Infinite values are only counted.
func describe(c *frame.Column, bins int) (*Summary, []Bin) {
	s := &Summary{}
	st := buffer.NewStats()
	values := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if c.IsInfinite(i) {
			st.Push(math.Inf(1))
			continue
		}
		if v, ok := c.Float(i); ok {
			st.Push(v)
			values = append(values, v)
		}
	}
	s.Infinite = st.Infinite()
	if len(values) == 0 {
		return s, nil
	}
	s.Mean = st.Avg()
	s.Std = st.SampleStDev()
	s.Min = st.Min()
	s.Max = st.Max()
	s.Range = st.Range()
	s.Sum = st.Sum()
	s.Zeros = st.Zeros()
	s.ZerosPct = pct(st.Zeros(), len(values))
	s.Negatives = st.Negatives()

	if median, err := stats.Median(values); err == nil {
		s.Median = median
	}
	if q, err := stats.Quartile(values); err == nil && len(values) > 1 {
		s.Q1, s.Q3 = q.Q1, q.Q3
	} else {
		s.Q1, s.Q3 = s.Median, s.Median
	}
	s.IQR = s.Q3 - s.Q1
	s.Skewness = finite(stat.Skew(values, nil))
	s.Kurtosis = finite(stat.ExKurtosis(values, nil))
	return s, histogram(values, s.Min, s.Max, bins)
}

func histogram(values []float64, min, max float64, bins int) []Bin {
	if min == max {
		return []Bin{{From: min, To: max, Count: len(values)}}
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, min, max)
	dividers[bins] = math.Nextafter(max, math.Inf(1))
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)
	hh := make([]Bin, bins)
	for b := range hh {
		hh[b] = Bin{
			From:  dividers[b],
			To:    dividers[b+1],
			Count: int(counts[b]),
		}
	}
	hh[bins-1].To = max
	return hh
}

// top returns the most frequent values, ties in value order.
func top(c *frame.Column, present int) []Frequency {
	counts := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		counts[c.Value(i)]++
	}
	ff := make([]Frequency, 0, len(counts))
	for v, n := range counts {
		ff = append(ff, Frequency{Value: v, Count: n, Pct: pct(n, present)})
	}
	sort.Slice(ff, func(i, j int) bool {
		if ff[i].Count == ff[j].Count {
			return ff[i].Value < ff[j].Value
		}
		return ff[i].Count > ff[j].Count
	})
	if len(ff) > topValues {
		ff = ff[:topValues]
	}
	return ff
}

// patterns counts the rows by the set of columns missing in them.
func patterns(f *frame.Frame) []Pattern {
	counts := make(map[string]int)
	columns := make(map[string][]string)
	names := f.Names()
	for i := 0; i < f.Rows(); i++ {
		missing := make([]string, 0)
		for j, c := range f.Columns() {
			if c.IsMissing(i) {
				missing = append(missing, names[j])
			}
		}
		if len(missing) == 0 {
			continue
		}
		key := strings.Join(missing, "\x1f")
		counts[key]++
		columns[key] = missing
	}
	pp := make([]Pattern, 0, len(counts))
	for k, n := range counts {
		pp = append(pp, Pattern{Columns: columns[k], Count: n})
	}
	sort.Slice(pp, func(i, j int) bool {
		if pp[i].Count == pp[j].Count {
			return strings.Join(pp[i].Columns, ",") < strings.Join(pp[j].Columns, ",")
		}
		return pp[i].Count > pp[j].Count
	})
	if len(pp) > topPatterns {
		pp = pp[:topPatterns]
	}
	return pp
}

func alerts(r *Report, opts Options) []Alert {
	aa := make([]Alert, 0)
	if r.Overview.DuplicateRows > 0 {
		aa = append(aa, Alert{
			Kind:    "duplicates",
			Message: fmt.Sprintf("Dataset has %d (%.1f%%) duplicate rows", r.Overview.DuplicateRows, 100*r.Overview.DuplicatePct),
		})
	}
	for _, v := range r.Variables {
		present := r.Overview.Rows - v.Missing
		switch {
		case present > 0 && v.Distinct == 1:
			aa = append(aa, Alert{Kind: "constant", Column: v.Name, Message: fmt.Sprintf("%s has constant value", v.Name)})
		case present > 1 && v.Distinct == present && v.Kind != Numeric:
			aa = append(aa, Alert{Kind: "unique", Column: v.Name, Message: fmt.Sprintf("%s has unique values", v.Name)})
		}
		if v.MissingPct >= missingThreshold {
			aa = append(aa, Alert{Kind: "missing", Column: v.Name, Message: fmt.Sprintf("%s has %d (%.1f%%) missing values", v.Name, v.Missing, 100*v.MissingPct)})
		}
		if v.Summary != nil && v.Summary.Infinite > 0 {
			aa = append(aa, Alert{Kind: "infinite", Column: v.Name, Message: fmt.Sprintf("%s has %d infinite values", v.Name, v.Summary.Infinite)})
		}
		if v.Summary != nil && v.Summary.ZerosPct >= zerosThreshold {
			aa = append(aa, Alert{Kind: "zeros", Column: v.Name, Message: fmt.Sprintf("%s has %d (%.1f%%) zeros", v.Name, v.Summary.Zeros, 100*v.Summary.ZerosPct)})
		}
		if (v.Kind == Categorical || v.Kind == Text) && v.Distinct > highCardinality {
			aa = append(aa, Alert{Kind: "cardinality", Column: v.Name, Message: fmt.Sprintf("%s has a high cardinality: %d distinct values", v.Name, v.Distinct)})
		}
	}
	cc := r.Correlations
	for i := range cc.Columns {
		for j := i + 1; j < len(cc.Columns); j++ {
			if math.Abs(cc.Pearson[i][j]) >= opts.CorrelationThreshold {
				aa = append(aa, Alert{
					Kind:    "correlation",
					Column:  cc.Columns[i],
					Message: fmt.Sprintf("%s is highly correlated with %s (r=%.3f)", cc.Columns[i], cc.Columns[j], cc.Pearson[i][j]),
				})
			}
		}
	}
	return aa
}
