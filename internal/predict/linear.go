package predict

import (
	"encoding/json"
	"math"
	"os"

	"github.com/rotisserie/eris"
)

// LinearClassifier is a logistic-regression binary classifier loaded from a
// coefficients file exported by the training pipeline.
type LinearClassifier struct {
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// LoadLinear reads a coefficients JSON file.
func LoadLinear(path string) (*LinearClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "predict: read coefficients %s", path)
	}
	var clf LinearClassifier
	if err := json.Unmarshal(data, &clf); err != nil {
		return nil, eris.Wrap(err, "predict: decode coefficients")
	}
	if len(clf.Weights) == 0 {
		return nil, eris.New("predict: coefficients file has no weights")
	}
	if len(clf.Features) != 0 && len(clf.Features) != len(clf.Weights) {
		return nil, eris.Errorf("predict: %d features but %d weights",
			len(clf.Features), len(clf.Weights))
	}
	return &clf, nil
}

func (c *LinearClassifier) score(row []float64) (float64, error) {
	if len(row) != len(c.Weights) {
		return 0, eris.Wrapf(ErrFeatureMismatch, "row width %d, want %d",
			len(row), len(c.Weights))
	}
	z := c.Intercept
	for i, w := range c.Weights {
		z += w * row[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}

// Predict returns the 0/1 label per row at the 0.5 probability threshold.
func (c *LinearClassifier) Predict(rows [][]float64) ([]int, error) {
	labels := make([]int, len(rows))
	for i, row := range rows {
		p, err := c.score(row)
		if err != nil {
			return nil, err
		}
		if p >= 0.5 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictProba returns per-row [P(class 0), P(class 1)].
func (c *LinearClassifier) PredictProba(rows [][]float64) ([][2]float64, error) {
	probas := make([][2]float64, len(rows))
	for i, row := range rows {
		p, err := c.score(row)
		if err != nil {
			return nil, err
		}
		probas[i] = [2]float64{1 - p, p}
	}
	return probas, nil
}
