// Package baseline provides constant-output reference models. They
// exist to give the real predictors a floor to beat: the classifier
// always answers the most frequent training class, the regressor the
// mean training target.
package baseline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/core/model"
	"github.com/canml/dogkit/pkg/errors"
)

// DummyClassifier predicts the most frequent class seen during Fit for
// every query. Frequency ties resolve to the lowest class index.
type DummyClassifier struct {
	model.BaseEstimator
	constant float64
}

// NewDummyClassifier creates an untrained DummyClassifier.
func NewDummyClassifier() *DummyClassifier {
	return &DummyClassifier{}
}

// Fit records the most frequent class in y, a column vector of class
// indices.
func (d *DummyClassifier) Fit(X, y mat.Matrix) error {
	r, _ := X.Dims()
	ry, cy := y.Dims()
	if r == 0 {
		return errors.NewModelError("DummyClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("DummyClassifier.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("DummyClassifier.Fit", "y must be a column vector of class indices")
	}

	counts := make(map[float64]int)
	for i := 0; i < ry; i++ {
		counts[y.At(i, 0)]++
	}
	best := y.At(0, 0)
	bestCount := 0
	for class, count := range counts {
		if count > bestCount || (count == bestCount && class < best) {
			best = class
			bestCount = count
		}
	}
	d.constant = best

	d.SetFitted()
	return nil
}

// Predict returns an (N,1) matrix filled with the majority class.
func (d *DummyClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !d.IsFitted() {
		return nil, errors.NewNotFittedError("DummyClassifier", "Predict")
	}

	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, d.constant)
	}
	return out, nil
}

// DummyRegressor predicts the column-wise mean of the training targets
// for every query.
type DummyRegressor struct {
	model.BaseEstimator
	mean []float64
}

// NewDummyRegressor creates an untrained DummyRegressor.
func NewDummyRegressor() *DummyRegressor {
	return &DummyRegressor{}
}

// Fit records the mean target vector of y, shape (N, target_dim).
func (d *DummyRegressor) Fit(X, y mat.Matrix) error {
	r, _ := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || cy == 0 {
		return errors.NewModelError("DummyRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("DummyRegressor.Fit", r, ry, 0)
	}

	d.mean = make([]float64, cy)
	for j := 0; j < cy; j++ {
		sum := 0.0
		for i := 0; i < ry; i++ {
			sum += y.At(i, j)
		}
		d.mean[j] = sum / float64(ry)
	}

	d.SetFitted()
	return nil
}

// Predict returns an (N, target_dim) matrix whose rows are all the mean
// training target.
func (d *DummyRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !d.IsFitted() {
		return nil, errors.NewNotFittedError("DummyRegressor", "Predict")
	}

	r, _ := X.Dims()
	out := mat.NewDense(r, len(d.mean), nil)
	for i := 0; i < r; i++ {
		for j, m := range d.mean {
			out.Set(i, j, m)
		}
	}
	return out, nil
}
