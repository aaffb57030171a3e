// Package linear implements the linear models of the toolkit: a
// closed-form ridge regressor for center locating and a
// gradient-descent logistic classifier for breed identifying.
package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/core/model"
	"github.com/canml/dogkit/pkg/errors"
)

// RidgeRegression solves the regularized least-squares problem in
// closed form:
//
//	w = (X^T*X + lambda*I)^(-1) * X^T * y
//
// Lambda = 0 reduces to ordinary least squares. The intercept is
// expected to come from a bias column appended by preprocessing, not
// from a separate term.
type RidgeRegression struct {
	model.BaseEstimator

	// Lambda is the L2 regularization strength.
	Lambda float64

	// Weights is the learned (n_features, target_dim) weight matrix.
	Weights *mat.Dense
}

// NewRidgeRegression creates an untrained ridge regressor.
func NewRidgeRegression(lambda float64) *RidgeRegression {
	return &RidgeRegression{Lambda: lambda}
}

// Fit solves the normal equation for the weight matrix. A singular
// X^T*X + lambda*I surfaces as ErrSingularMatrix; non-finite weights
// (the numerically sneakier failure mode of a near-singular system)
// surface as a NumericalInstabilityError instead of degenerate
// predictions.
func (rr *RidgeRegression) Fit(X, y mat.Matrix) error {
	if rr.Lambda < 0 {
		return errors.NewValidationError("lambda", "regularization strength must be non-negative", rr.Lambda)
	}

	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("RidgeRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("RidgeRegression.Fit", r, ry, 0)
	}

	var xt mat.Dense
	xt.CloneFrom(X.T())

	// X^T*X + lambda*I
	var xtx mat.Dense
	xtx.Mul(&xt, X)
	for j := 0; j < c; j++ {
		xtx.Set(j, j, xtx.At(j, j)+rr.Lambda)
	}

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return errors.NewModelError("RidgeRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	var xty mat.Dense
	xty.Mul(&xt, y)

	weights := mat.NewDense(c, cy, nil)
	weights.Product(&inv, &xty)

	if bad := nonFinite(weights); bad != nil {
		return errors.NewNumericalInstabilityError("RidgeRegression.Fit", bad, 0)
	}

	rr.Weights = weights
	rr.SetFitted()
	return nil
}

// Predict returns X multiplied by the learned weights.
func (rr *RidgeRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rr.IsFitted() {
		return nil, errors.NewNotFittedError("RidgeRegression", "Predict")
	}

	_, c := X.Dims()
	wr, _ := rr.Weights.Dims()
	if c != wr {
		return nil, errors.NewDimensionError("RidgeRegression.Predict", wr, c, 1)
	}

	var out mat.Dense
	out.Mul(X, rr.Weights)
	return &out, nil
}

// nonFinite returns up to five NaN/Inf entries of m, or nil when all
// entries are finite.
func nonFinite(m mat.Matrix) []float64 {
	r, c := m.Dims()
	var bad []float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				bad = append(bad, v)
				if len(bad) >= 5 {
					return bad
				}
			}
		}
	}
	return bad
}
