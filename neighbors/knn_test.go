package neighbors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/core/model"
	"github.com/canml/dogkit/pkg/errors"
)

func TestKNNSelfQueryWithK1(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		1, 1,
		5, 5,
		9, 0,
	})
	yClass := mat.NewDense(4, 1, []float64{0, 1, 2, 3})

	t.Run("classification", func(t *testing.T) {
		knn := NewKNN(1, model.Classification)
		require.NoError(t, knn.Fit(X, yClass))

		pred, err := knn.Predict(X)
		require.NoError(t, err)
		// Distance to self is zero and unique, so every training point
		// predicts its own label.
		for i := 0; i < 4; i++ {
			assert.Equal(t, yClass.At(i, 0), pred.At(i, 0), "row %d", i)
		}
	})

	t.Run("regression", func(t *testing.T) {
		yReg := mat.NewDense(4, 2, []float64{
			0, 0,
			10, 20,
			30, 40,
			50, 60,
		})
		knn := NewKNN(1, model.Regression)
		require.NoError(t, knn.Fit(X, yReg))

		pred, err := knn.Predict(X)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(yReg, pred, 1e-12))
	})
}

func TestKNNMajorityVote(t *testing.T) {
	// Three close neighbors (two of class 1, one of class 0) and one
	// far point.
	X := mat.NewDense(4, 1, []float64{0, 0.1, 0.2, 100})
	y := mat.NewDense(4, 1, []float64{1, 1, 0, 0})

	knn := NewKNN(3, model.Classification)
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{0.05}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.At(0, 0))
}

func TestKNNVoteTieBreaksToLowestClass(t *testing.T) {
	// k=2 over one neighbor of class 3 and one of class 1: the lower
	// class index wins the tie.
	X := mat.NewDense(2, 1, []float64{0, 1})
	y := mat.NewDense(2, 1, []float64{3, 1})

	knn := NewKNN(2, model.Classification)
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{0.5}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.At(0, 0))
}

func TestKNNRegressionMeansNeighbors(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 1, 50})
	y := mat.NewDense(3, 2, []float64{
		2, 4,
		4, 8,
		100, 100,
	})

	knn := NewKNN(2, model.Regression)
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{0.5}))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, pred.At(0, 0), 1e-12)
	assert.InDelta(t, 6.0, pred.At(0, 1), 1e-12)
}

func TestKNNNeighborCountClampedToTrainingSize(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 1})
	y := mat.NewDense(2, 2, []float64{
		0, 0,
		10, 10,
	})

	knn := NewKNN(10, model.Regression)
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{0}))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, pred.At(0, 0), 1e-12)
}

func TestKNNErrors(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	y := mat.NewDense(2, 1, []float64{0, 1})

	t.Run("predict before fit", func(t *testing.T) {
		knn := NewKNN(1, model.Classification)
		_, err := knn.Predict(X)
		require.Error(t, err)
		var nfe *errors.NotFittedError
		assert.True(t, errors.As(err, &nfe))
	})

	t.Run("invalid neighbor count", func(t *testing.T) {
		knn := NewKNN(0, model.Classification)
		require.Error(t, knn.Fit(X, y))
	})

	t.Run("invalid task", func(t *testing.T) {
		knn := NewKNN(1, model.Task("clustering"))
		require.Error(t, knn.Fit(X, y))
	})

	t.Run("query feature mismatch", func(t *testing.T) {
		knn := NewKNN(1, model.Classification)
		require.NoError(t, knn.Fit(X, y))
		_, err := knn.Predict(mat.NewDense(1, 3, []float64{0, 0, 0}))
		require.Error(t, err)
	})
}
