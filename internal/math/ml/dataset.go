package ml

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sjwhitworth/golearn/base"
)

const classPrefix = "c"

func label(c int) string {
	return classPrefix + strconv.Itoa(c)
}

func parseLabel(s string) (int, error) {
	return strconv.Atoi(strings.TrimPrefix(s, classPrefix))
}

// grid loads the training rows followed by the query rows into one set of instances,
// so that both parts share the same attributes.
// The query rows carry the class of the first training row as a placeholder.
func grid(x [][]float64, y []int, query [][]float64) (*base.DenseInstances, error) {
	file, err := os.CreateTemp("", "free-ml-*.csv")
	if err != nil {
		return nil, fmt.Errorf("could not create data file: %w", err)
	}
	defer os.Remove(file.Name())

	d := len(x[0])
	w := csv.NewWriter(file)
	header := make([]string, d+1)
	for j := 0; j < d; j++ {
		header[j] = fmt.Sprintf("f%d", j)
	}
	header[d] = "class"
	if err := w.Write(header); err != nil {
		file.Close()
		return nil, err
	}
	write := func(row []float64, class int) error {
		record := make([]string, d+1)
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		record[d] = label(class)
		return w.Write(record)
	}
	for i, row := range x {
		if err := write(row, y[i]); err != nil {
			file.Close()
			return nil, err
		}
	}
	for _, row := range query {
		if err := write(row, y[0]); err != nil {
			file.Close()
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, err
	}
	instances, err := base.ParseCSVToInstances(file.Name(), true)
	if err != nil {
		return nil, fmt.Errorf("could not parse instances: %w", err)
	}
	return instances, nil
}

// split returns views over the first n rows and the m rows after them.
func split(src base.FixedDataGrid, n, m int) (base.FixedDataGrid, base.FixedDataGrid) {
	train := make(map[int]int, n)
	for i := 0; i < n; i++ {
		train[i] = i
	}
	test := make(map[int]int, m)
	for i := 0; i < m; i++ {
		test[i] = n + i
	}
	return base.NewInstancesViewFromRows(src, train), base.NewInstancesViewFromRows(src, test)
}

// labels reads the predicted classes back, falling back to the given class for unknown labels.
func labels(predictions base.FixedDataGrid, m int, fallback int) []float64 {
	y := make([]float64, m)
	for i := 0; i < m; i++ {
		c, err := parseLabel(base.GetClass(predictions, i))
		if err != nil {
			c = fallback
		}
		y[i] = float64(c)
	}
	return y
}

// lazy keeps the training data for the golearn classifiers, which fit at prediction time.
type lazy struct {
	x        [][]float64
	y        []int
	majority int
	seed     int64
}

func (l *lazy) fit(x [][]float64, y []float64) error {
	if err := check(x, y); err != nil {
		return err
	}
	yy, k := classes(y)
	counts := make([]int, k)
	for _, c := range yy {
		counts[c]++
	}
	l.majority = 0
	for c, n := range counts {
		if n > counts[l.majority] {
			l.majority = c
		}
	}
	l.x = x
	l.y = yy
	return nil
}
