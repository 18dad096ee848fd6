// Package predict applies an externally trained binary classifier to a
// combined spatial table. Features are standardized over the current query's
// rows, not against a persisted scaler, so predictions are comparable within
// one query's row set but never across queries.
package predict

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/calclimate/firedash/internal/table"
)

// ErrFeatureMismatch indicates a requested feature column is absent from the
// combined table, typically because a variable had no file for the date.
var ErrFeatureMismatch = eris.New("predict: feature column missing")

// Classifier is a trained binary classifier over standardized feature rows.
type Classifier interface {
	// Predict returns the 0/1 class label per row.
	Predict(rows [][]float64) ([]int, error)
	// PredictProba returns per-row [P(class 0), P(class 1)].
	PredictProba(rows [][]float64) ([][2]float64, error)
}

// Columns appended to the prediction output.
const (
	ColPrediction = "prediction"
	ColProbClass0 = "prob_class0"
	ColProbClass1 = "prob_class1"
)

// Predict standardizes the feature columns of combined and attaches the
// classifier's labels and class probabilities as new columns. The input table
// is not modified.
func Predict(combined *table.Table, features []string, clf Classifier) (*table.Table, error) {
	for _, f := range features {
		if !combined.HasColumn(f) {
			return nil, eris.Wrapf(ErrFeatureMismatch, "%s", f)
		}
	}
	if len(features) == 0 {
		return nil, eris.Wrap(ErrFeatureMismatch, "no feature columns")
	}

	rows := make([][]float64, combined.Len())
	for i, r := range combined.Rows {
		vec := make([]float64, len(features))
		for j, f := range features {
			vec[j] = r.Values[f]
		}
		rows[i] = vec
	}
	standardize(rows)

	labels, err := clf.Predict(rows)
	if err != nil {
		return nil, eris.Wrap(err, "predict: classify")
	}
	probas, err := clf.PredictProba(rows)
	if err != nil {
		return nil, eris.Wrap(err, "predict: class probabilities")
	}
	if len(labels) != combined.Len() || len(probas) != combined.Len() {
		return nil, eris.New("predict: classifier row count mismatch")
	}

	out := table.New(append(append([]string{}, combined.Columns...),
		ColPrediction, ColProbClass0, ColProbClass1)...)
	for i, r := range combined.Rows {
		values := make(map[string]float64, len(out.Columns))
		for k, v := range r.Values {
			values[k] = v
		}
		values[ColPrediction] = float64(labels[i])
		values[ColProbClass0] = probas[i][0]
		values[ColProbClass1] = probas[i][1]
		out.Rows = append(out.Rows, table.Row{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Date:      r.Date,
			Values:    values,
		})
	}
	return out, nil
}

// standardize rescales each feature column in place to zero mean and unit
// variance over the given rows. A constant column keeps its centered zeros
// rather than dividing by a zero deviation.
func standardize(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	n := float64(len(rows))
	for j := range rows[0] {
		var sum float64
		for _, r := range rows {
			sum += r[j]
		}
		mean := sum / n

		var sq float64
		for _, r := range rows {
			d := r[j] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / n)

		for _, r := range rows {
			r[j] -= mean
			if std > 0 {
				r[j] /= std
			}
		}
	}
}
