package frame

import "strings"

const headRows = 5

// ColumnInfo holds the intake statistics of one column.
type ColumnInfo struct {
	Name    string `json:"name"`
	Dtype   Dtype  `json:"dtype"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
}

// Summary is the set of intake statistics shown for a table.
type Summary struct {
	Rows             int          `json:"rows"`
	Cols             int          `json:"cols"`
	Columns          []ColumnInfo `json:"columns"`
	DuplicateColumns int          `json:"duplicate_columns"`
	DuplicateRows    int          `json:"duplicate_rows"`
	Head             [][]string   `json:"head"`
}

// Shape returns the summary shape as (rows, cols).
func (s Summary) Shape() [2]int {
	return [2]int{s.Rows, s.Cols}
}

// Summarize computes the intake statistics of the frame.
func Summarize(f *Frame) Summary {
	rows, cols := f.Shape()
	missing := f.MissingCounts()
	unique := f.UniqueCounts()
	columns := make([]ColumnInfo, cols)
	for j, c := range f.columns {
		columns[j] = ColumnInfo{
			Name:    c.Name,
			Dtype:   c.Dtype,
			Missing: missing[j],
			Unique:  unique[j],
		}
	}
	return Summary{
		Rows:             rows,
		Cols:             cols,
		Columns:          columns,
		DuplicateColumns: f.DuplicateColumns(),
		DuplicateRows:    f.DuplicateRows(),
		Head:             f.Head(headRows),
	}
}

// Dtypes returns the type of each column in order.
func (f *Frame) Dtypes() []Dtype {
	dd := make([]Dtype, len(f.columns))
	for j, c := range f.columns {
		dd[j] = c.Dtype
	}
	return dd
}

// MissingCounts returns the number of missing cells per column.
func (f *Frame) MissingCounts() []int {
	counts := make([]int, len(f.columns))
	for j, c := range f.columns {
		for _, m := range c.missing {
			if m {
				counts[j]++
			}
		}
	}
	return counts
}

// UniqueCounts returns the number of distinct non-missing values per column.
func (f *Frame) UniqueCounts() []int {
	counts := make([]int, len(f.columns))
	for j, c := range f.columns {
		seen := make(map[string]struct{})
		for i := 0; i < f.rows; i++ {
			if c.missing[i] {
				continue
			}
			seen[c.Key(i)] = struct{}{}
		}
		counts[j] = len(seen)
	}
	return counts
}

func (f *Frame) rowKey(i int) string {
	var sb strings.Builder
	for j, c := range f.columns {
		if j > 0 {
			sb.WriteByte('\x1f')
		}
		sb.WriteString(c.Key(i))
	}
	return sb.String()
}

func (f *Frame) columnKey(j int) string {
	c := f.columns[j]
	var sb strings.Builder
	for i := 0; i < f.rows; i++ {
		if i > 0 {
			sb.WriteByte('\x1f')
		}
		sb.WriteString(c.Key(i))
	}
	return sb.String()
}

// uniqueRows returns the positions of the first occurrence of every row.
func (f *Frame) uniqueRows() []int {
	seen := make(map[string]struct{}, f.rows)
	keep := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		k := f.rowKey(i)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	return keep
}

// uniqueColumns returns the positions of the first occurrence of every column.
// Column names do not take part in the comparison.
func (f *Frame) uniqueColumns() []int {
	seen := make(map[string]struct{}, len(f.columns))
	keep := make([]int, 0, len(f.columns))
	for j := range f.columns {
		k := f.columnKey(j)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, j)
	}
	return keep
}

// DuplicateRows counts the rows identical to some earlier row.
func (f *Frame) DuplicateRows() int {
	return f.rows - len(f.uniqueRows())
}

// DuplicateColumns counts the columns identical, element for element, to some earlier column.
func (f *Frame) DuplicateColumns() int {
	return len(f.columns) - len(f.uniqueColumns())
}

// DropDuplicateRows returns a new frame keeping the first occurrence of each row.
func (f *Frame) DropDuplicateRows() *Frame {
	return f.Take(f.uniqueRows())
}

// DropDuplicateColumns returns a new frame keeping the first occurrence of each column.
func (f *Frame) DropDuplicateColumns() *Frame {
	return f.Select(f.uniqueColumns())
}
