// Package preprocessing provides the feature preparation steps used by
// the dogkit pipeline: per-feature statistics, normalization, bias-term
// augmentation and one-hot label encoding.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/pkg/errors"
)

// ComputeMean reduces an (N,D) matrix to the per-column mean vector of
// length D.
func ComputeMean(X mat.Matrix) []float64 {
	r, c := X.Dims()
	means := make([]float64, c)
	if r == 0 {
		return means
	}
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		means[j] = sum / float64(r)
	}
	return means
}

// ComputeStd reduces an (N,D) matrix to the per-column population
// standard deviation vector of length D (divisor N, matching numpy's
// np.std).
func ComputeStd(X mat.Matrix) []float64 {
	r, c := X.Dims()
	stds := make([]float64, c)
	if r == 0 {
		return stds
	}
	means := ComputeMean(X)
	for j := 0; j < c; j++ {
		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - means[j]
			sumSquares += diff * diff
		}
		stds[j] = math.Sqrt(sumSquares / float64(r))
	}
	return stds
}

// Normalize returns (X - mean) / std with mean and std broadcast across
// rows. A zero entry in std propagates NaN/Inf into the result; callers
// that cannot rule out constant features should use Standardizer, which
// clamps near-zero deviations.
func Normalize(X mat.Matrix, mean, std []float64) (*mat.Dense, error) {
	r, c := X.Dims()
	if len(mean) != c {
		return nil, errors.NewDimensionError("Normalize", c, len(mean), 1)
	}
	if len(std) != c {
		return nil, errors.NewDimensionError("Normalize", c, len(std), 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (X.At(i, j)-mean[j])/std[j])
		}
	}
	return out, nil
}

// AppendBias prepends a constant-1 column to X, producing an (N,D+1)
// matrix so linear models can learn an intercept without special-casing
// it.
func AppendBias(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, 1.0)
		for j := 0; j < c; j++ {
			out.Set(i, j+1, X.At(i, j))
		}
	}
	return out
}

// NumClasses returns the number of classes present in an integer label
// vector, approximated as max label + 1 (classes are numbered from 0).
func NumClasses(labels *mat.VecDense) int {
	n := labels.Len()
	if n == 0 {
		return 0
	}
	maxLabel := labels.AtVec(0)
	for i := 1; i < n; i++ {
		if labels.AtVec(i) > maxLabel {
			maxLabel = labels.AtVec(i)
		}
	}
	return int(maxLabel) + 1
}

// LabelToOneHot transforms class indices of shape (N,) into a one-hot
// matrix of shape (N,C). Pass C <= 0 to infer it from the labels.
func LabelToOneHot(labels *mat.VecDense, C int) (*mat.Dense, error) {
	n := labels.Len()
	if C <= 0 {
		C = NumClasses(labels)
	}

	out := mat.NewDense(n, C, nil)
	for i := 0; i < n; i++ {
		class := int(labels.AtVec(i))
		if class < 0 || class >= C {
			return nil, errors.NewValueError("LabelToOneHot",
				"label out of range [0, C)")
		}
		out.Set(i, class, 1.0)
	}
	return out, nil
}

// OneHotToLabel is the inverse of LabelToOneHot: each row maps to the
// index of its largest entry (the first one on ties, matching argmax).
func OneHotToLabel(onehot mat.Matrix) *mat.VecDense {
	r, c := onehot.Dims()
	labels := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		best := 0
		bestVal := onehot.At(i, 0)
		for j := 1; j < c; j++ {
			if onehot.At(i, j) > bestVal {
				best = j
				bestVal = onehot.At(i, j)
			}
		}
		labels.SetVec(i, float64(best))
	}
	return labels
}
