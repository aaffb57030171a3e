// Package neighbors implements the k-nearest-neighbors predictor used
// for both coursework tasks. Training just retains the data; all work
// happens at prediction time with a brute-force distance scan, which is
// the right trade-off at coursework scale (no k-d tree).
package neighbors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/core/model"
	"github.com/canml/dogkit/core/parallel"
	"github.com/canml/dogkit/pkg/errors"
)

// Queries below this row count are predicted sequentially.
const parallelThreshold = 64

// KNN is a k-nearest-neighbors model. In classification mode it
// predicts the majority class among the k nearest training rows; in
// regression mode, the mean of their target vectors.
type KNN struct {
	model.BaseEstimator

	// K is the neighbor count.
	K int
	// Task selects voting (classification) or averaging (regression).
	Task model.Task

	xTrain *mat.Dense
	yTrain *mat.Dense
}

// NewKNN creates an untrained KNN with the given neighbor count and
// task mode.
func NewKNN(k int, task model.Task) *KNN {
	return &KNN{K: k, Task: task}
}

// Fit retains X and y verbatim. No transformation happens here; KNN is
// a lazy learner.
func (m *KNN) Fit(X, y mat.Matrix) error {
	if m.K < 1 {
		return errors.NewValidationError("k", "neighbor count must be at least 1", m.K)
	}
	if !m.Task.Valid() {
		return errors.NewValidationError("task", "unsupported task kind", string(m.Task))
	}

	r, c := X.Dims()
	ry, _ := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("KNN.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("KNN.Fit", r, ry, 0)
	}

	m.xTrain = mat.DenseCopyOf(X)
	m.yTrain = mat.DenseCopyOf(y)
	m.SetFitted()
	return nil
}

// Predict returns one prediction row per query row. Queries are
// independent, so rows are scored in parallel across CPU cores.
func (m *KNN) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("KNN", "Predict")
	}

	nQueries, d := X.Dims()
	nTrain, dTrain := m.xTrain.Dims()
	if d != dTrain {
		return nil, errors.NewDimensionError("KNN.Predict", dTrain, d, 1)
	}

	_, targetDim := m.yTrain.Dims()
	out := mat.NewDense(nQueries, targetDim, nil)

	// A neighbor count beyond the training size degenerates to "use
	// everything".
	k := m.K
	if k > nTrain {
		k = nTrain
	}

	parallel.ParallelizeWithThreshold(nQueries, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			neighbors := m.nearest(X, i, k)
			switch m.Task {
			case model.Classification:
				out.Set(i, 0, m.vote(neighbors))
			case model.Regression:
				m.average(neighbors, out.RawRowView(i))
			}
		}
	})

	return out, nil
}

// nearest returns the indices of the k training rows closest to query
// row qi in Euclidean distance. Distance ties keep original index
// order: the sort is stable over indices that start out ascending.
func (m *KNN) nearest(X mat.Matrix, qi, k int) []int {
	nTrain, d := m.xTrain.Dims()

	dists := make([]float64, nTrain)
	for t := 0; t < nTrain; t++ {
		sum := 0.0
		for j := 0; j < d; j++ {
			diff := X.At(qi, j) - m.xTrain.At(t, j)
			sum += diff * diff
		}
		dists[t] = sum // squared distance orders the same as Euclidean
	}

	order := make([]int, nTrain)
	for t := range order {
		order[t] = t
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	return order[:k]
}

// vote returns the most frequent class among the neighbors' labels.
// Frequency ties resolve to the lowest class index.
func (m *KNN) vote(neighbors []int) float64 {
	counts := make(map[float64]int, len(neighbors))
	for _, t := range neighbors {
		counts[m.yTrain.At(t, 0)]++
	}

	best := math.Inf(1)
	bestCount := 0
	for class, count := range counts {
		if count > bestCount || (count == bestCount && class < best) {
			best = class
			bestCount = count
		}
	}
	return best
}

// average fills dst with the arithmetic mean of the neighbors' target
// vectors.
func (m *KNN) average(neighbors []int, dst []float64) {
	_, targetDim := m.yTrain.Dims()
	for j := 0; j < targetDim; j++ {
		sum := 0.0
		for _, t := range neighbors {
			sum += m.yTrain.At(t, j)
		}
		dst[j] = sum / float64(len(neighbors))
	}
}
