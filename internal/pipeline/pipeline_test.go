package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/drakos74/free-ml/internal/automl"
	"github.com/drakos74/free-ml/internal/frame"
	"github.com/drakos74/free-ml/internal/profile"
	"github.com/drakos74/free-ml/internal/session"
	"github.com/drakos74/free-ml/internal/storage"
	"github.com/drakos74/free-ml/internal/storage/file/json"
	"github.com/drakos74/free-ml/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenByThree has 2 duplicate rows.
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

func separable() string {
	var sb strings.Builder
	sb.WriteString("x,noise,label\n")
	for i := 1; i <= 20; i++ {
		label := "lo"
		if i > 10 {
			label = "hi"
		}
		fmt.Fprintf(&sb, "%d,%d,%s\n", i, (i*7)%5, label)
	}
	return sb.String()
}

type fixture struct {
	pipeline *Pipeline
	ws       storage.Workspace
	runs     *sqlite.Registry
}

func newFixture(t *testing.T) fixture {
	ws := json.NewLocalStorage()
	runs, err := sqlite.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { runs.Close() })
	cache, err := profile.NewCache(4)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.Training.Include = []string{"lr", "dummy"}
	return fixture{
		pipeline: New(session.NewManager(ws, 0), runs, cache, cfg),
		ws:       ws,
		runs:     runs,
	}
}

func (f fixture) upload(t *testing.T, s *session.Session, csv string) *View {
	v, err := f.pipeline.Do(context.Background(), s, OpUpload, Input{CSV: strings.NewReader(csv)})
	require.NoError(t, err)
	return v
}

func TestParseMode(t *testing.T) {

	type test struct {
		input string
		mode  Mode
		err   error
	}

	tests := map[string]test{
		"empty":     {input: "", mode: Upload},
		"profiling": {input: "profiling", mode: Profiling},
		"download":  {input: "download", mode: Download},
		"unknown":   {input: "deploy", err: ErrUnknownMode},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := ParseMode(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, m)
		})
	}
}

func TestMode_Ready(t *testing.T) {
	fx := newFixture(t)
	s := fx.pipeline.Sessions().New()

	type test struct {
		op  Op
		in  Input
		err error
	}

	tests := map[string]test{
		"clean-before-upload": {op: OpClean, err: ErrNoUpload},
		"save-before-upload":  {op: OpSave, err: ErrNoUpload},
		"profile-no-dataset":  {op: OpProfile, err: profile.ErrNoDataset},
		"train-no-dataset":    {op: OpTrain, in: Input{Target: "c"}, err: profile.ErrNoDataset},
		"download-no-model":   {op: OpDownload, err: ErrNoModel},
		"predict-no-model":    {op: OpPredict, err: ErrNoModel},
		"unknown":             {op: Op("deploy"), err: ErrUnknownOp},
		"upload-nothing":      {op: OpUpload, err: frame.ErrEmpty},
		"upload-malformed":    {op: OpUpload, in: Input{CSV: strings.NewReader("a,b\n1\n")}, err: frame.ErrMalformed},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := fx.pipeline.Do(context.Background(), s, tt.op, tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	for _, m := range []Mode{Profiling, Modeling} {
		_, err := fx.pipeline.Show(context.Background(), s, m)
		assert.ErrorIs(t, err, profile.ErrNoDataset)
	}
	_, err := fx.pipeline.Show(context.Background(), s, Download)
	assert.ErrorIs(t, err, ErrNoModel)
	_, _, err = fx.pipeline.Artifact(s)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestIntake_EndToEnd(t *testing.T) {
	fx := newFixture(t)
	s := fx.pipeline.Sessions().New()
	ctx := context.Background()

	v := fx.upload(t, s, tenByThree)
	assert.Equal(t, Upload, v.Mode)
	assert.Equal(t, [2]int{10, 3}, v.Summary.Shape())
	assert.Equal(t, 2, v.Summary.DuplicateRows)

	v, err := fx.pipeline.Do(ctx, s, OpClean, Input{})
	require.NoError(t, err)
	assert.Equal(t, [2]int{10, 3}, v.Summary.Shape())
	assert.Equal(t, [2]int{8, 3}, v.Cleaned.Shape())
	assert.Equal(t, 0, v.Cleaned.DuplicateRows)

	v, err = fx.pipeline.Do(ctx, s, OpSave, Input{})
	require.NoError(t, err)
	assert.True(t, v.Saved)

	reloaded, err := session.LoadDataset(fx.ws, s.ID)
	require.NoError(t, err)
	rows, cols := reloaded.Shape()
	assert.Equal(t, 8, rows)
	assert.Equal(t, 3, cols)
	assert.True(t, reloaded.Equal(s.Dataset))

	v, err = fx.pipeline.Show(ctx, s, Upload)
	require.NoError(t, err)
	assert.True(t, v.Saved)
	assert.Equal(t, [2]int{8, 3}, v.Summary.Shape())
}

func TestClean_Columns(t *testing.T) {
	fx := newFixture(t)
	s := fx.pipeline.Sessions().New()
	fx.upload(t, s, "a,b,c\n1,2,1\n3,4,3\n1,2,1\n")

	v, err := fx.pipeline.Do(context.Background(), s, OpClean, Input{Columns: true})
	require.NoError(t, err)
	assert.Equal(t, 1, v.Summary.DuplicateColumns)
	assert.Equal(t, [2]int{2, 2}, v.Cleaned.Shape())
}

func TestProfile(t *testing.T) {
	fx := newFixture(t)
	s := fx.pipeline.Sessions().New()
	fx.upload(t, s, tenByThree)
	_, err := fx.pipeline.Do(context.Background(), s, OpSave, Input{})
	require.NoError(t, err)

	v, err := fx.pipeline.Show(context.Background(), s, Profiling)
	require.NoError(t, err)
	assert.Equal(t, Profiling, v.Mode)
	require.NotNil(t, v.Report)
	assert.Equal(t, 10, v.Report.Overview.Rows)
	assert.Equal(t, "profiling", s.Mode)
}

func TestTrain(t *testing.T) {
	fx := newFixture(t)
	s := fx.pipeline.Sessions().New()
	ctx := context.Background()
	fx.upload(t, s, separable())
	_, err := fx.pipeline.Do(ctx, s, OpSave, Input{})
	require.NoError(t, err)

	_, err = fx.pipeline.Do(ctx, s, OpTrain, Input{Target: "missing"})
	assert.ErrorIs(t, err, automl.ErrUnknownTarget)

	v, err := fx.pipeline.Do(ctx, s, OpTrain, Input{Target: "label", Task: automl.Auto})
	require.NoError(t, err)
	assert.Equal(t, Modeling, v.Mode)
	assert.Equal(t, []string{"x", "noise", "label"}, v.Columns)
	assert.NotEmpty(t, v.Settings)
	require.NotNil(t, v.Leaderboard)
	require.Len(t, v.Leaderboard.Entries, 2)
	best, ok := v.Leaderboard.Best()
	require.True(t, ok)
	require.NotNil(t, v.Meta)
	assert.Equal(t, best.ID, v.Meta.ModelID)
	assert.Equal(t, "label", v.Meta.Target)
	assert.Equal(t, automl.Classification, v.Meta.Task)

	runs, err := fx.pipeline.Runs(s)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, best.ID, runs[0].Model)
	assert.Equal(t, automl.Accuracy, runs[0].Metric)
	assert.Equal(t, 20, runs[0].Rows)

	// download
	v, err = fx.pipeline.Show(ctx, s, Download)
	require.NoError(t, err)
	assert.Greater(t, v.Size, int64(0))
	r, info, err := fx.pipeline.Artifact(s)
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, info.Size, int64(len(b)))

	model, err := automl.Load(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, best.ID, model.Artifact.ModelID)

	// predict
	v, err = fx.pipeline.Do(ctx, s, OpPredict, Input{CSV: strings.NewReader("x,noise\n1,2\n20,0\n")})
	require.NoError(t, err)
	require.Len(t, v.Predictions, 2)
	for _, p := range v.Predictions {
		assert.Contains(t, []string{"lo", "hi"}, p)
	}

	_, err = fx.pipeline.Do(ctx, s, OpPredict, Input{CSV: strings.NewReader("other\n1\n")})
	assert.ErrorIs(t, err, automl.ErrMissingFeature)
}

func TestTrain_Cancel(t *testing.T) {
	fx := newFixture(t)
	s := fx.pipeline.Sessions().New()
	fx.upload(t, s, separable())
	_, err := fx.pipeline.Do(context.Background(), s, OpSave, Input{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fx.pipeline.Do(ctx, s, OpTrain, Input{Target: "label"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, s.Model)
}

func TestSessions_Isolation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	a := fx.pipeline.Sessions().New()
	b := fx.pipeline.Sessions().New()

	fx.upload(t, a, separable())
	_, err := fx.pipeline.Do(ctx, a, OpSave, Input{})
	require.NoError(t, err)
	_, err = fx.pipeline.Do(ctx, a, OpTrain, Input{Target: "label"})
	require.NoError(t, err)

	fx.upload(t, b, tenByThree)
	_, err = fx.pipeline.Do(ctx, b, OpSave, Input{})
	require.NoError(t, err)

	// b sees only its own dataset and has no model
	assert.Equal(t, []string{"a", "b", "c"}, b.Dataset.Names())
	_, err = fx.pipeline.Show(ctx, b, Download)
	assert.ErrorIs(t, err, ErrNoModel)
	_, err = session.LoadModel(fx.ws, b.ID)
	assert.ErrorIs(t, err, storage.NotFoundErr)

	// a keeps its own
	da, err := session.LoadDataset(fx.ws, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "noise", "label"}, da.Names())
	runs, err := fx.pipeline.Runs(b)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
