// Package modelselection provides the train/validation splitter and
// the k-fold cross-validation sweep used to pick the KNN neighbor
// count.
package modelselection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/pkg/errors"
)

// TrainTestSplit randomly partitions (X, y) into train and validation
// subsets. The validation set receives floor(ratio*N) samples drawn by
// a uniform permutation without replacement; the remaining rows form
// the training set. The two index sets partition the full range.
//
// Randomness comes only from the caller-supplied rng, so runs are
// reproducible by seeding it.
func TrainTestSplit(X, y mat.Matrix, ratio float64, rng *rand.Rand) (xTrain, yTrain, xVal, yVal *mat.Dense, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("split_ratio", "must be in (0, 1)", ratio)
	}
	if rng == nil {
		return nil, nil, nil, nil, errors.NewValidationError("rng", "random source must not be nil", nil)
	}

	n, _ := X.Dims()
	ry, _ := y.Dims()
	if n == 0 {
		return nil, nil, nil, nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if ry != n {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", n, ry, 0)
	}

	perm := rng.Perm(n)
	nVal := int(math.Floor(ratio * float64(n)))

	valIdx := perm[:nVal]
	trainIdx := perm[nVal:]

	return takeRows(X, trainIdx), takeRows(y, trainIdx),
		takeRows(X, valIdx), takeRows(y, valIdx), nil
}

// takeRows gathers the given rows of m into a new dense matrix.
func takeRows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, row := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(row, j))
		}
	}
	return out
}

// colVec copies the single column of an (N,1) matrix into a vector.
func colVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
