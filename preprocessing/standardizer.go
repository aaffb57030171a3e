package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/core/model"
	"github.com/canml/dogkit/pkg/errors"
)

// Standardizer rescales features to zero mean and unit variance using
// statistics learned from the training split, so the same shift/scale
// can be replayed on validation and test data.
type Standardizer struct {
	model.BaseEstimator

	// Mean is the per-feature mean learned by Fit.
	Mean []float64

	// Scale is the per-feature standard deviation learned by Fit.
	// Near-zero deviations are clamped to 1 to keep constant features
	// from producing NaN columns.
	Scale []float64

	// NFeatures is the feature count seen at Fit time.
	NFeatures int
}

// NewStandardizer creates an untrained Standardizer.
func NewStandardizer() *Standardizer {
	return &Standardizer{}
}

// Fit learns the per-feature mean and standard deviation of X.
func (s *Standardizer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("Standardizer.Fit", "empty data", errors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = ComputeMean(X)
	s.Scale = ComputeStd(X)
	for j := range s.Scale {
		if math.Abs(s.Scale[j]) < 1e-8 {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform standardizes X with the statistics learned by Fit.
func (s *Standardizer) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("Standardizer", "Transform")
	}

	_, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("Standardizer.Transform", s.NFeatures, c, 1)
	}

	return Normalize(X, s.Mean, s.Scale)
}

// FitTransform fits the standardizer on X and returns the transformed
// matrix.
func (s *Standardizer) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
