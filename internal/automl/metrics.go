package automl

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	Accuracy  = "Accuracy"
	Recall    = "Recall"
	Precision = "Prec."
	F1        = "F1"
	Kappa     = "Kappa"
	MCC       = "MCC"
	MAE       = "MAE"
	MSE       = "MSE"
	RMSE      = "RMSE"
	R2        = "R2"
	RMSLE     = "RMSLE"
	MAPE      = "MAPE"
	TT        = "TT (Sec)"
)

// Scores holds metric values by name.
// Undefined metrics are reported as 0.
type Scores map[string]float64

// Metrics returns the metric names of the task in display order.
func Metrics(task Task) []string {
	if task == Regression {
		return []string{MAE, MSE, RMSE, R2, RMSLE, MAPE}
	}
	return []string{Accuracy, Recall, Precision, F1, Kappa, MCC}
}

// DefaultSort returns the metric ranking the leaderboard of the task.
func DefaultSort(task Task) string {
	if task == Regression {
		return R2
	}
	return Accuracy
}

// ascending reports whether lower values of the metric are better.
func ascending(metric string) bool {
	switch metric {
	case MAE, MSE, RMSE, RMSLE, MAPE, TT:
		return true
	}
	return false
}

func score(task Task, y, p []float64, k int) Scores {
	if task == Regression {
		return regression(y, p)
	}
	return classification(y, p, k)
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// classification computes the scores over k classes.
// Binary problems report recall, precision and f1 of class 1, multiclass problems their macro average.
func classification(y, p []float64, k int) Scores {
	confusion := make([][]float64, k)
	for c := range confusion {
		confusion[c] = make([]float64, k)
	}
	for i := range y {
		t, q := int(y[i]), int(p[i])
		if q < 0 || q >= k {
			// an unknown prediction counts as a miss
			q = (t + 1) % k
		}
		confusion[t][q]++
	}
	n := float64(len(y))
	actual := make([]float64, k)
	predicted := make([]float64, k)
	var correct float64
	for t := 0; t < k; t++ {
		for q := 0; q < k; q++ {
			actual[t] += confusion[t][q]
			predicted[q] += confusion[t][q]
		}
		correct += confusion[t][t]
	}
	recall := make([]float64, k)
	precision := make([]float64, k)
	f1 := make([]float64, k)
	for c := 0; c < k; c++ {
		recall[c] = ratio(confusion[c][c], actual[c])
		precision[c] = ratio(confusion[c][c], predicted[c])
		f1[c] = ratio(2*precision[c]*recall[c], precision[c]+recall[c])
	}
	var r, pr, f float64
	if k == 2 {
		r, pr, f = recall[1], precision[1], f1[1]
	} else {
		r, pr, f = stat.Mean(recall, nil), stat.Mean(precision, nil), stat.Mean(f1, nil)
	}

	var expected, pp, tt, pt float64
	for c := 0; c < k; c++ {
		expected += actual[c] * predicted[c] / (n * n)
		pp += predicted[c] * predicted[c]
		tt += actual[c] * actual[c]
		pt += predicted[c] * actual[c]
	}
	observed := correct / n
	kappa := ratio(observed-expected, 1-expected)
	mcc := ratio(correct*n-pt, math.Sqrt((n*n-pp)*(n*n-tt)))

	return Scores{
		Accuracy:  observed,
		Recall:    r,
		Precision: pr,
		F1:        f,
		Kappa:     kappa,
		MCC:       mcc,
	}
}

func regression(y, p []float64) Scores {
	n := float64(len(y))
	mae := floats.Distance(y, p, 1) / n
	d := floats.Distance(y, p, 2)
	mse := d * d / n

	var r2 float64
	if stat.Variance(y, nil) > 0 {
		r2 = stat.RSquaredFrom(p, y, nil)
	}

	var rmsle float64
	if floats.Min(y) >= 0 {
		var sum float64
		for i := range y {
			diff := math.Log1p(math.Max(p[i], 0)) - math.Log1p(y[i])
			sum += diff * diff
		}
		rmsle = math.Sqrt(sum / n)
	}

	var mape float64
	var count float64
	for i := range y {
		if y[i] == 0 {
			continue
		}
		mape += math.Abs((y[i] - p[i]) / y[i])
		count++
	}
	mape = ratio(mape, count)

	return Scores{
		MAE:   mae,
		MSE:   mse,
		RMSE:  math.Sqrt(mse),
		R2:    r2,
		RMSLE: rmsle,
		MAPE:  mape,
	}
}

// mean averages the scores of the folds.
func mean(folds []Scores) Scores {
	avg := make(Scores)
	if len(folds) == 0 {
		return avg
	}
	for _, s := range folds {
		for m, v := range s {
			avg[m] += v / float64(len(folds))
		}
	}
	return avg
}
