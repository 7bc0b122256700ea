package frame

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenByThree has 2 exact duplicate rows (rows 8 and 9 repeat rows 0 and 3).
const tenByThree = `a,b,c
1,2.5,x
2,3.5,y
3,4.5,z
4,5.5,x
5,6.5,y
6,7.5,z
7,8.5,x
8,9.5,y
1,2.5,x
4,5.5,x
`

func read(t *testing.T, s string) *Frame {
	f, err := ReadCSV(strings.NewReader(s))
	require.NoError(t, err)
	return f
}

func TestReadCSV(t *testing.T) {

	type test struct {
		input  string
		err    error
		rows   int
		cols   int
		dtypes []Dtype
	}

	tests := map[string]test{
		"empty": {
			input: "",
			err:   ErrEmpty,
		},
		"header-only": {
			input:  "a,b\n",
			rows:   0,
			cols:   2,
			dtypes: []Dtype{Float64, Float64},
		},
		"ragged": {
			input: "a,b\n1,2\n3\n",
			err:   ErrMalformed,
		},
		"types": {
			input:  "i,f,b,o,m\n1,1.5,True,x,1\n2,2,False,y,\n",
			rows:   2,
			cols:   5,
			dtypes: []Dtype{Int64, Float64, Bool, Object, Float64},
		},
		"bool-with-missing": {
			input:  "b\ntrue\nNA\n",
			rows:   2,
			cols:   1,
			dtypes: []Dtype{Object},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f, err := ReadCSV(strings.NewReader(tt.input))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			rows, cols := f.Shape()
			assert.Equal(t, tt.rows, rows)
			assert.Equal(t, tt.cols, cols)
			assert.Equal(t, tt.dtypes, f.Dtypes())
		})
	}
}

func TestMangle(t *testing.T) {
	f := read(t, "a,a,,b\n1,2,3,4\n")
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "b"}, f.Names())
}

func TestSummarize(t *testing.T) {
	f := read(t, tenByThree)
	s := Summarize(f)

	assert.Equal(t, [2]int{10, 3}, s.Shape())
	assert.Equal(t, 2, s.DuplicateRows)
	assert.Equal(t, 0, s.DuplicateColumns)
	assert.Equal(t, []ColumnInfo{
		{Name: "a", Dtype: Int64, Missing: 0, Unique: 8},
		{Name: "b", Dtype: Float64, Missing: 0, Unique: 8},
		{Name: "c", Dtype: Object, Missing: 0, Unique: 3},
	}, s.Columns)
	assert.Len(t, s.Head, 5)
}

func TestMissingCounts(t *testing.T) {
	f := read(t, "a,b\n1,NA\n,x\nnan,\n4,None\n")
	assert.Equal(t, []int{2, 3}, f.MissingCounts())
	assert.Equal(t, []int{2, 1}, f.UniqueCounts())
}

func TestDuplicateColumns(t *testing.T) {

	type test struct {
		input      string
		duplicates int
		names      []string
	}

	tests := map[string]test{
		"none": {
			input:      "a,b\n1,2\n3,4\n",
			duplicates: 0,
			names:      []string{"a", "b"},
		},
		"one-copy": {
			input:      "a,b,c\n1,2,1\n3,4,3\n",
			duplicates: 1,
			names:      []string{"a", "b"},
		},
		"numeric-by-value": {
			input:      "a,b\n1,1.0\n2,2.00\n",
			duplicates: 1,
			names:      []string{"a"},
		},
		"three-copies": {
			input:      "a,b,c,d\nx,x,1,x\ny,y,2,y\n",
			duplicates: 2,
			names:      []string{"a", "c"},
		},
		"missing-equal": {
			input:      "a,b\n,NA\n1,1\n",
			duplicates: 1,
			names:      []string{"a"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := read(t, tt.input)
			assert.Equal(t, tt.duplicates, f.DuplicateColumns())
			cleaned := f.DropDuplicateColumns()
			assert.Equal(t, tt.names, cleaned.Names())
			assert.Equal(t, 0, cleaned.DuplicateColumns())
		})
	}
}

func TestDropDuplicateRows(t *testing.T) {
	f := read(t, tenByThree)
	duplicates := f.DuplicateRows()
	cleaned := f.DropDuplicateRows()

	rows, cols := cleaned.Shape()
	assert.Equal(t, 8, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, f.Rows()-duplicates, rows)
	assert.Equal(t, 0, cleaned.DuplicateRows())

	seen := make(map[string]bool)
	for i := 0; i < cleaned.Rows(); i++ {
		k := strings.Join(cleaned.Row(i), ",")
		assert.False(t, seen[k], k)
		seen[k] = true
	}
	// first occurrences keep their order
	assert.Equal(t, []string{"1", "2.5", "x"}, cleaned.Row(0))
	assert.Equal(t, []string{"8", "9.5", "y"}, cleaned.Row(7))
	// the source is left untouched
	assert.Equal(t, 10, f.Rows())
}

func TestRoundTrip(t *testing.T) {

	tests := map[string]string{
		"plain":   tenByThree,
		"missing": "a,b\n1,NA\n,x\n",
		"quoted":  "a,b\n\"x,y\",\" z\"\n\"q\"\"uote\",1\n",
		"single":  "a\n1\n\"\"\n3\n",
		"nan":     "a,b\n1,NAN\ninf,2\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			f := read(t, input)
			var buf bytes.Buffer
			require.NoError(t, f.WriteCSV(&buf))
			g, err := ReadCSV(&buf)
			require.NoError(t, err)
			assert.Equal(t, f.Rows(), g.Rows())
			assert.True(t, f.Equal(g))
			assert.Equal(t, f.Dtypes(), g.Dtypes())
			assert.Equal(t, f.Fingerprint(), g.Fingerprint())
		})
	}
}

func TestEndToEnd(t *testing.T) {
	f := read(t, tenByThree)
	assert.Equal(t, 2, Summarize(f).DuplicateRows)

	cleaned := f.DropDuplicateRows()
	assert.Equal(t, [2]int{8, 3}, Summarize(cleaned).Shape())

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, cleaned.WriteFile(path))
	reloaded, err := ReadFile(path)
	require.NoError(t, err)
	rows, cols := reloaded.Shape()
	assert.Equal(t, 8, rows)
	assert.Equal(t, 3, cols)
	assert.True(t, cleaned.Equal(reloaded))
}

func TestFingerprint(t *testing.T) {
	f := read(t, tenByThree)
	assert.NotEqual(t, f.Fingerprint(), f.DropDuplicateRows().Fingerprint())
}

func TestRoundTrip_SingleMissing(t *testing.T) {
	f, err := New([]string{"a"}, [][]string{{"1"}, {""}, {"3"}})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))
	g, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Rows())
	assert.True(t, f.Equal(g))
	assert.Equal(t, []int{1}, g.MissingCounts())
}

func TestNonFinite(t *testing.T) {

	type test struct {
		cells    []string
		dtype    Dtype
		missing  int
		infinite []int
		floats   []float64
	}

	tests := map[string]test{
		"nan-spellings": {
			cells:   []string{"1", "NAN", "nan", "NaN", "2"},
			dtype:   Float64,
			missing: 3,
			floats:  []float64{1, 2},
		},
		"infinite": {
			cells:    []string{"1.5", "inf", "-Infinity", "+Inf", "2"},
			dtype:    Float64,
			infinite: []int{1, 2, 3},
			floats:   []float64{1.5, 2},
		},
		"mixed": {
			cells:    []string{"inf", "NAN", "3"},
			dtype:    Float64,
			missing:  1,
			infinite: []int{0},
			floats:   []float64{3},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			records := make([][]string, len(tt.cells))
			for i, cell := range tt.cells {
				records[i] = []string{cell}
			}
			f, err := New([]string{"a"}, records)
			require.NoError(t, err)
			c, ok := f.Column("a")
			require.True(t, ok)
			assert.Equal(t, tt.dtype, c.Dtype)
			assert.Equal(t, []int{tt.missing}, f.MissingCounts())
			var infinite []int
			for i := range tt.cells {
				if c.IsInfinite(i) {
					infinite = append(infinite, i)
					_, ok := c.Float(i)
					assert.False(t, ok)
				}
			}
			assert.Equal(t, tt.infinite, infinite)
			assert.Equal(t, tt.floats, c.Floats())
		})
	}
}
