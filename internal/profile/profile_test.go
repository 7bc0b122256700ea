package profile

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/drakos74/free-ml/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = `id,age,income,city,flag,zero
1,20,1000,athens,true,0
2,30,2000,berlin,false,0
3,40,3000,athens,true,0
4,,4100,paris,false,1
5,60,5000,athens,true,0
5,60,5000,athens,true,0
`

func read(t *testing.T, s string) *frame.Frame {
	f, err := frame.ReadCSV(strings.NewReader(s))
	require.NoError(t, err)
	return f
}

func variable(t *testing.T, r *Report, name string) Variable {
	for _, v := range r.Variables {
		if v.Name == name {
			return v
		}
	}
	require.Failf(t, "missing variable", name)
	return Variable{}
}

func TestBuild(t *testing.T) {
	r, err := Build(read(t, table), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 6, r.Overview.Rows)
	assert.Equal(t, 6, r.Overview.Columns)
	assert.Equal(t, 1, r.Overview.MissingCells)
	assert.Equal(t, 1, r.Overview.DuplicateRows)
	assert.Equal(t, 4, r.Overview.Types[Numeric])
	assert.Equal(t, 1, r.Overview.Types[Categorical])
	assert.Equal(t, 1, r.Overview.Types[Boolean])

	age := variable(t, r, "age")
	assert.Equal(t, Numeric, age.Kind)
	assert.Equal(t, 1, age.Missing)
	require.NotNil(t, age.Summary)
	assert.Equal(t, 42.0, age.Summary.Mean)
	assert.Equal(t, 20.0, age.Summary.Min)
	assert.Equal(t, 60.0, age.Summary.Max)
	assert.Equal(t, 40.0, age.Summary.Range)
	assert.Equal(t, 40.0, age.Summary.Median)
	assert.Len(t, age.Histogram, 10)
	count := 0
	for _, b := range age.Histogram {
		count += b.Count
	}
	assert.Equal(t, 5, count)
	assert.NotEmpty(t, age.Chart)

	city := variable(t, r, "city")
	assert.Equal(t, Categorical, city.Kind)
	require.NotEmpty(t, city.Top)
	assert.Equal(t, Frequency{Value: "athens", Count: 4, Pct: 4.0 / 6}, city.Top[0])
	assert.Equal(t, 3, city.Distinct)

	flag := variable(t, r, "flag")
	assert.Equal(t, Boolean, flag.Kind)
	assert.Equal(t, "False", flag.Top[1].Value)

	zero := variable(t, r, "zero")
	assert.Equal(t, 5, zero.Summary.Zeros)
}

func TestBuild_NoDataset(t *testing.T) {
	_, err := Build(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestCorrelations(t *testing.T) {
	r, err := Build(read(t, table), DefaultOptions())
	require.NoError(t, err)
	cc := r.Correlations
	assert.Equal(t, []string{"id", "age", "income", "zero"}, cc.Columns)
	for i := range cc.Columns {
		assert.Equal(t, 1.0, cc.Pearson[i][i])
		for j := range cc.Columns {
			assert.Equal(t, cc.Pearson[i][j], cc.Pearson[j][i])
			assert.Equal(t, cc.Spearman[i][j], cc.Spearman[j][i])
		}
	}
	// age and income grow together
	assert.Greater(t, cc.Pearson[1][2], 0.99)
	assert.InDelta(t, 1.0, cc.Spearman[1][2], 1e-9)
}

func TestRank(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, rank([]float64{1, 5, 5, 7}))
	assert.Equal(t, []float64{3, 1, 2}, rank([]float64{9, 1, 4}))
}

func TestAlerts(t *testing.T) {

	type test struct {
		input string
		kind  string
		col   string
	}

	tests := map[string]test{
		"constant": {
			input: "a,b\n1,x\n1,y\n1,z\n",
			kind:  "constant",
			col:   "a",
		},
		"unique": {
			input: "a,b\n1,x\n2,y\n3,z\n",
			kind:  "unique",
			col:   "b",
		},
		"missing": {
			input: "a,b\n1,x\n,y\n3,y\n",
			kind:  "missing",
			col:   "a",
		},
		"zeros": {
			input: "a,b\n0,x\n0,y\n3,y\n",
			kind:  "zeros",
			col:   "a",
		},
		"correlation": {
			input: "a,b\n1,2\n2,4\n3,7\n",
			kind:  "correlation",
			col:   "a",
		},
		"duplicates": {
			input: "a,b\n1,x\n1,x\n2,y\n",
			kind:  "duplicates",
		},
		"infinite": {
			input: "a,b\n1,x\ninf,y\n3,z\n",
			kind:  "infinite",
			col:   "a",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r, err := Build(read(t, tt.input), DefaultOptions())
			require.NoError(t, err)
			found := false
			for _, a := range r.Alerts {
				if a.Kind == tt.kind && a.Column == tt.col {
					found = true
				}
			}
			assert.True(t, found, "%+v", r.Alerts)
		})
	}
}

func TestBuild_NonFinite(t *testing.T) {
	r, err := Build(read(t, "a,b\n1,x\ninf,y\nNAN,z\n4,x\n-Infinity,y\n"), DefaultOptions())
	require.NoError(t, err)

	a := variable(t, r, "a")
	assert.Equal(t, Numeric, a.Kind)
	assert.Equal(t, 1, a.Missing)
	require.NotNil(t, a.Summary)
	assert.Equal(t, 2, a.Summary.Infinite)
	assert.Equal(t, 1.0, a.Summary.Min)
	assert.Equal(t, 4.0, a.Summary.Max)
	assert.Equal(t, 2.5, a.Summary.Mean)
	total := 0
	for _, b := range a.Histogram {
		total += b.Count
	}
	assert.Equal(t, 2, total)

	var buf bytes.Buffer
	require.NoError(t, r.JSON(&buf))
	require.NoError(t, r.HTML(&buf))

	r, err = Build(read(t, "a\ninf\n-inf\n"), DefaultOptions())
	require.NoError(t, err)
	a = variable(t, r, "a")
	assert.Equal(t, 2, a.Summary.Infinite)
	assert.Empty(t, a.Histogram)
}

func TestPatterns(t *testing.T) {
	r, err := Build(read(t, "a,b,c\n,,1\n,,2\n1,,3\n1,2,3\n"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []Pattern{
		{Columns: []string{"a", "b"}, Count: 2},
		{Columns: []string{"b"}, Count: 1},
	}, r.Missing.Patterns)
	assert.Equal(t, 2, r.Missing.Counts["a"])
	assert.Equal(t, 3, r.Missing.Counts["b"])
}

func TestRender(t *testing.T) {
	r, err := Build(read(t, "name,score\n<script>,1\nb,2\n"), DefaultOptions())
	require.NoError(t, err)

	var page bytes.Buffer
	require.NoError(t, r.HTML(&page))
	html := page.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Overview")
	assert.NotContains(t, html, "<script>")

	body, err := r.Body()
	require.NoError(t, err)
	assert.NotContains(t, string(body), "<html")

	var buf bytes.Buffer
	require.NoError(t, r.JSON(&buf))
	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.Overview.Rows, decoded.Overview.Rows)
	assert.Len(t, decoded.Variables, 2)
}

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)
	f := read(t, table)

	r1, err := c.Build(f, DefaultOptions())
	require.NoError(t, err)
	r2, err := c.Build(read(t, table), DefaultOptions())
	require.NoError(t, err)
	assert.Same(t, r1, r2)
	assert.Equal(t, 1, c.Len())

	opts := DefaultOptions()
	opts.Bins = 5
	r3, err := c.Build(f, opts)
	require.NoError(t, err)
	assert.NotSame(t, r1, r3)

	_, err = c.Build(f.DropDuplicateRows(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = c.Build(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoDataset)
}
