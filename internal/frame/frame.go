package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrEmpty is returned when the input has no header row.
	ErrEmpty = errors.New("empty table")
	// ErrMalformed is returned for rows that do not match the header.
	ErrMalformed = errors.New("malformed table")
)

// Dtype is the inferred storage type of a column.
type Dtype string

const (
	Int64   Dtype = "int64"
	Float64 Dtype = "float64"
	Bool    Dtype = "bool"
	Object  Dtype = "object"
)

// naTokens are the cell values read as missing.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "NaN": {}, "nan": {}, "-nan": {}, "-NaN": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {},
	"<NA>": {}, "n/a": {}, "1.#IND": {}, "1.#QNAN": {}, "-1.#IND": {}, "-1.#QNAN": {},
}

const naKey = "\x00na"

// IsNA reports whether the raw cell value is read as missing.
// Any spelling of NaN is missing.
func IsNA(s string) bool {
	s = strings.TrimSpace(s)
	if _, ok := naTokens[s]; ok {
		return true
	}
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && math.IsNaN(v)
}

// Column is a named sequence of raw cells with an inferred type.
type Column struct {
	Name    string
	Dtype   Dtype
	cells   []string
	missing []bool
	values  []float64
}

func newColumn(name string, cells []string) *Column {
	c := &Column{
		Name:    name,
		cells:   cells,
		missing: make([]bool, len(cells)),
	}
	for i, cell := range cells {
		c.missing[i] = IsNA(cell)
	}
	c.infer()
	return c
}

func (c *Column) infer() {
	var anyMissing, allInt, allFloat, allBool = false, true, true, true
	present := 0
	for i, cell := range c.cells {
		if c.missing[i] {
			anyMissing = true
			continue
		}
		present++
		s := strings.TrimSpace(cell)
		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := parseBool(s); !ok {
				allBool = false
			}
		}
	}
	switch {
	case present == 0:
		c.Dtype = Float64
	case allInt && !anyMissing:
		c.Dtype = Int64
	case allInt || allFloat:
		c.Dtype = Float64
	case allBool && !anyMissing:
		c.Dtype = Bool
	default:
		c.Dtype = Object
	}
	if c.Dtype == Object {
		return
	}
	c.values = make([]float64, len(c.cells))
	for i, cell := range c.cells {
		if c.missing[i] {
			continue
		}
		s := strings.TrimSpace(cell)
		if c.Dtype == Bool {
			b, _ := parseBool(s)
			if b {
				c.values[i] = 1
			}
			continue
		}
		c.values[i], _ = strconv.ParseFloat(s, 64)
	}
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "true", "TRUE":
		return true, true
	case "False", "false", "FALSE":
		return false, true
	}
	return false, false
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.cells)
}

// Cell returns the raw value at row i.
func (c *Column) Cell(i int) string {
	return c.cells[i]
}

// IsMissing reports whether row i holds a missing value.
func (c *Column) IsMissing(i int) bool {
	return c.missing[i]
}

// Numeric reports whether the column holds numbers.
func (c *Column) Numeric() bool {
	return c.Dtype == Int64 || c.Dtype == Float64
}

// Float returns the numeric value at row i. Bool columns map to 0/1.
// The second return value is false for missing, infinite or non numeric cells.
func (c *Column) Float(i int) (float64, bool) {
	if c.values == nil || c.missing[i] || math.IsInf(c.values[i], 0) {
		return 0, false
	}
	return c.values[i], true
}

// IsInfinite reports whether row i holds an infinite number, e.g. inf or -Infinity.
func (c *Column) IsInfinite(i int) bool {
	return c.values != nil && !c.missing[i] && math.IsInf(c.values[i], 0)
}

// Floats returns the finite numeric values in row order.
func (c *Column) Floats() []float64 {
	ff := make([]float64, 0, len(c.cells))
	for i := range c.cells {
		if v, ok := c.Float(i); ok {
			ff = append(ff, v)
		}
	}
	return ff
}

// Key returns the canonical comparison key of row i.
// Numbers compare by value, missing cells compare equal to each other.
func (c *Column) Key(i int) string {
	if c.missing[i] {
		return naKey
	}
	if c.values != nil {
		return strconv.FormatFloat(c.values[i], 'g', -1, 64)
	}
	return c.cells[i]
}

// Value returns the display value of row i, empty for missing cells.
// Numbers are canonical, bools read True or False.
func (c *Column) Value(i int) string {
	switch {
	case c.missing[i]:
		return ""
	case c.Dtype == Bool:
		if c.values[i] == 1 {
			return "True"
		}
		return "False"
	case c.values != nil:
		return strconv.FormatFloat(c.values[i], 'g', -1, 64)
	}
	return c.cells[i]
}

func (c *Column) subset(rows []int) *Column {
	cc := &Column{
		Name:    c.Name,
		Dtype:   c.Dtype,
		cells:   make([]string, len(rows)),
		missing: make([]bool, len(rows)),
	}
	if c.values != nil {
		cc.values = make([]float64, len(rows))
	}
	for j, i := range rows {
		cc.cells[j] = c.cells[i]
		cc.missing[j] = c.missing[i]
		if c.values != nil {
			cc.values[j] = c.values[i]
		}
	}
	return cc
}

// Frame is an ordered set of equally sized named columns.
type Frame struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates a frame from a header and row-major records.
func New(header []string, records [][]string) (*Frame, error) {
	if len(header) == 0 {
		return nil, ErrEmpty
	}
	names := mangle(header)
	cells := make([][]string, len(names))
	for j := range cells {
		cells[j] = make([]string, len(records))
	}
	for i, record := range records {
		if len(record) != len(names) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d: %w", i+1, len(record), len(names), ErrMalformed)
		}
		for j, cell := range record {
			cells[j][i] = cell
		}
	}
	columns := make([]*Column, len(names))
	for j, name := range names {
		columns[j] = newColumn(name, cells[j])
	}
	return fromColumns(columns, len(records)), nil
}

func fromColumns(columns []*Column, rows int) *Frame {
	index := make(map[string]int, len(columns))
	for j, c := range columns {
		index[c.Name] = j
	}
	return &Frame{
		columns: columns,
		index:   index,
		rows:    rows,
	}
}

// mangle makes header names unique and non-empty.
func mangle(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for j, h := range header {
		name := strings.TrimSpace(h)
		if j == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", j)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		}
		seen[name] = 0
		names[j] = name
	}
	return names
}

// ReadCSV parses a comma separated table with a header row.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("could not read header: %s: %w", err.Error(), ErrMalformed)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not read records: %s: %w", err.Error(), ErrMalformed)
	}
	return New(header, records)
}

// ReadFile parses the csv file at the given path.
func ReadFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open '%s': %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes the header and the raw cells.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Names()); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}
	record := make([]string, len(f.columns))
	for i := 0; i < f.rows; i++ {
		for j, c := range f.columns {
			record[j] = c.cells[i]
		}
		if len(record) == 1 && record[0] == "" {
			// a blank line would be skipped on read
			writer.Flush()
			if err := writer.Error(); err != nil {
				return fmt.Errorf("could not write row %d: %w", i, err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("could not write row %d: %w", i, err)
			}
			continue
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("could not write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile replaces the file at path with the csv encoding of the frame.
func (f *Frame) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("could not make dir for '%s': %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".frame-*.csv")
	if err != nil {
		return fmt.Errorf("could not create file for '%s': %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if err := f.WriteCSV(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close '%s': %w", tmp.Name(), err)
	}
	return os.Rename(tmp.Name(), path)
}

// Shape returns the number of rows and columns.
func (f *Frame) Shape() (int, int) {
	return f.rows, len(f.columns)
}

// Rows returns the number of rows.
func (f *Frame) Rows() int {
	return f.rows
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for j, c := range f.columns {
		names[j] = c.Name
	}
	return names
}

// Columns returns the columns in order.
func (f *Frame) Columns() []*Column {
	return f.columns
}

// Column returns the column with the given name.
func (f *Frame) Column(name string) (*Column, bool) {
	j, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.columns[j], true
}

// Has reports whether the frame has a column with the given name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Row returns the raw cells of row i.
func (f *Frame) Row(i int) []string {
	row := make([]string, len(f.columns))
	for j, c := range f.columns {
		row[j] = c.cells[i]
	}
	return row
}

// Head returns at most n rows from the top.
func (f *Frame) Head(n int) [][]string {
	if n > f.rows {
		n = f.rows
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = f.Row(i)
	}
	return rows
}

// Take returns a new frame with the given rows in the given order.
func (f *Frame) Take(rows []int) *Frame {
	columns := make([]*Column, len(f.columns))
	for j, c := range f.columns {
		columns[j] = c.subset(rows)
	}
	return fromColumns(columns, len(rows))
}

// Select returns a new frame with the given column positions.
func (f *Frame) Select(positions []int) *Frame {
	columns := make([]*Column, len(positions))
	for k, j := range positions {
		columns[k] = f.columns[j]
	}
	return fromColumns(columns, f.rows)
}

// Equal reports whether both frames have the same names and raw cells.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || f.rows != other.rows || len(f.columns) != len(other.columns) {
		return false
	}
	for j, c := range f.columns {
		o := other.columns[j]
		if c.Name != o.Name {
			return false
		}
		for i := range c.cells {
			if c.cells[i] != o.cells[i] {
				return false
			}
		}
	}
	return true
}
