package automl

import (
	"fmt"
	"io"

	fmath "github.com/drakos74/free-ml/internal/math"
	"github.com/gocarina/gocsv"
)

// Entry is the cross validated result of one model family.
type Entry struct {
	ID     string `json:"id"`
	Model  string `json:"model"`
	Scores Scores `json:"scores"`
}

// Leaderboard ranks the evaluated model families.
type Leaderboard struct {
	Task    Task              `json:"task"`
	Sort    string            `json:"sort"`
	Metrics []string          `json:"metrics"`
	Entries []Entry           `json:"entries"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// Best returns the top ranked entry.
func (l *Leaderboard) Best() (Entry, bool) {
	if l == nil || len(l.Entries) == 0 {
		return Entry{}, false
	}
	return l.Entries[0], true
}

// Header returns the column names of the table view.
func (l *Leaderboard) Header() []string {
	header := []string{"", "Model"}
	header = append(header, l.Metrics...)
	return append(header, TT)
}

// Rows returns the formatted table view.
func (l *Leaderboard) Rows() [][]string {
	rows := make([][]string, len(l.Entries))
	for i, e := range l.Entries {
		row := []string{e.ID, e.Model}
		for _, m := range l.Metrics {
			row = append(row, fmath.Format(e.Scores[m]))
		}
		rows[i] = append(row, fmath.FormatP(e.Scores[TT], 3))
	}
	return rows
}

type classificationRecord struct {
	ID        string  `csv:"id"`
	Model     string  `csv:"Model"`
	Accuracy  float64 `csv:"Accuracy"`
	Recall    float64 `csv:"Recall"`
	Precision float64 `csv:"Prec."`
	F1        float64 `csv:"F1"`
	Kappa     float64 `csv:"Kappa"`
	MCC       float64 `csv:"MCC"`
	TT        float64 `csv:"TT (Sec)"`
}

type regressionRecord struct {
	ID    string  `csv:"id"`
	Model string  `csv:"Model"`
	MAE   float64 `csv:"MAE"`
	MSE   float64 `csv:"MSE"`
	RMSE  float64 `csv:"RMSE"`
	R2    float64 `csv:"R2"`
	RMSLE float64 `csv:"RMSLE"`
	MAPE  float64 `csv:"MAPE"`
	TT    float64 `csv:"TT (Sec)"`
}

// WriteCSV exports the leaderboard in rank order.
func (l *Leaderboard) WriteCSV(w io.Writer) error {
	var err error
	switch l.Task {
	case Classification:
		records := make([]*classificationRecord, len(l.Entries))
		for i, e := range l.Entries {
			records[i] = &classificationRecord{
				ID:        e.ID,
				Model:     e.Model,
				Accuracy:  e.Scores[Accuracy],
				Recall:    e.Scores[Recall],
				Precision: e.Scores[Precision],
				F1:        e.Scores[F1],
				Kappa:     e.Scores[Kappa],
				MCC:       e.Scores[MCC],
				TT:        e.Scores[TT],
			}
		}
		err = gocsv.Marshal(&records, w)
	case Regression:
		records := make([]*regressionRecord, len(l.Entries))
		for i, e := range l.Entries {
			records[i] = &regressionRecord{
				ID:    e.ID,
				Model: e.Model,
				MAE:   e.Scores[MAE],
				MSE:   e.Scores[MSE],
				RMSE:  e.Scores[RMSE],
				R2:    e.Scores[R2],
				RMSLE: e.Scores[RMSLE],
				MAPE:  e.Scores[MAPE],
				TT:    e.Scores[TT],
			}
		}
		err = gocsv.Marshal(&records, w)
	default:
		return fmt.Errorf("'%s': %w", l.Task, ErrUnknownTask)
	}
	if err != nil {
		return fmt.Errorf("could not write leaderboard: %w", err)
	}
	return nil
}
