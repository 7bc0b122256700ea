package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drakos74/free-ml/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataset(t *testing.T, dir string) string {
	var sb strings.Builder
	sb.WriteString("x,noise,label\n")
	for i := 1; i <= 20; i++ {
		label := "lo"
		if i > 10 {
			label = "hi"
		}
		fmt.Fprintf(&sb, "%d,%d,%s\n", i, (i*7)%5, label)
	}
	// duplicate
	sb.WriteString("1,2,lo\n")
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRoot()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestProfile(t *testing.T) {
	dir := t.TempDir()
	data := dataset(t, dir)

	type test struct {
		args   []string
		err    bool
		assert func(t *testing.T, out string)
	}

	tests := map[string]test{
		"html": {
			args: []string{"profile", data},
			assert: func(t *testing.T, out string) {
				assert.Contains(t, out, "<html")
				assert.Contains(t, out, "noise")
			},
		},
		"json": {
			args: []string{"profile", data, "--format", "json", "--clean"},
			assert: func(t *testing.T, out string) {
				var report map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(out), &report))
				assert.NotEmpty(t, report)
			},
		},
		"unknown-format": {
			args: []string{"profile", data, "--format", "pdf"},
			err:  true,
		},
		"missing-file": {
			args: []string{"profile", filepath.Join(dir, "missing.csv")},
			err:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.assert(t, out)
		})
	}
}

func TestTrainAndPredict(t *testing.T) {
	dir := t.TempDir()
	data := dataset(t, dir)
	model := filepath.Join(dir, "model.fml.xz")
	predictions := filepath.Join(dir, "predictions.csv")

	out, err := execute(t, "train", data,
		"--target", "label",
		"--include", "lr,dummy",
		"--clean",
		"--out", model)
	require.NoError(t, err)
	assert.Contains(t, out, "Accuracy")
	info, err := os.Stat(model)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	_, err = execute(t, "predict", model, data, "--out", predictions)
	require.NoError(t, err)
	f, err := frame.ReadFile(predictions)
	require.NoError(t, err)
	rows, cols := f.Shape()
	assert.Equal(t, 21, rows)
	assert.Equal(t, 4, cols)
	labels, ok := f.Column(PredictionColumn)
	require.True(t, ok)
	for i := 0; i < labels.Len(); i++ {
		assert.Contains(t, []string{"lo", "hi"}, labels.Cell(i))
	}
}

func TestTrain_Errors(t *testing.T) {
	dir := t.TempDir()
	data := dataset(t, dir)

	type test struct {
		args []string
	}

	tests := map[string]test{
		"no-target":      {args: []string{"train", data}},
		"unknown-target": {args: []string{"train", data, "--target", "missing", "--out", filepath.Join(dir, "m")}},
		"unknown-task":   {args: []string{"train", data, "--target", "label", "--task", "clustering"}},
		"unknown-model":  {args: []string{"predict", filepath.Join(dir, "missing"), data}},
		"bad-log-level":  {args: []string{"profile", data, "--log-level", "loud"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestPredict_Stdout(t *testing.T) {
	type test struct {
		include string
	}

	tests := map[string]test{
		"knn":  {include: "knn"},
		"tree": {include: "dt"},
		"lr":   {include: "lr"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			data := dataset(t, dir)
			model := filepath.Join(dir, "model.fml.xz")
			_, err := execute(t, "train", data,
				"--target", "label",
				"--include", tt.include,
				"--folds", "3",
				"--out", model)
			require.NoError(t, err)

			out, err := execute(t, "predict", model, data)
			require.NoError(t, err)
			f, err := frame.ReadCSV(strings.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, []string{"x", "noise", "label", PredictionColumn}, f.Names())
			assert.Equal(t, 21, f.Rows())
			labels, ok := f.Column(PredictionColumn)
			require.True(t, ok)
			for i := 0; i < labels.Len(); i++ {
				assert.Contains(t, []string{"lo", "hi"}, labels.Cell(i))
			}
		})
	}
}
