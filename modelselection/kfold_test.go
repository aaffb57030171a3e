package modelselection

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/core/model"
)

// twoClusterClassification builds n samples in two well-separated 2D
// clusters so any small neighbor count classifies perfectly.
func twoClusterClassification(n int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(3, 3))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		base := 0.0
		class := 0.0
		if i%2 == 1 {
			base = 10.0
			class = 1.0
		}
		X.Set(i, 0, base+rng.Float64())
		X.Set(i, 1, base+rng.Float64())
		y.Set(i, 0, class)
	}
	return X, y
}

func TestKFoldPartitionProperties(t *testing.T) {
	kf := NewKFold(4, 1)
	perm := rand.New(rand.NewPCG(9, 9)).Perm(20)
	folds := kf.partition(perm)
	require.Len(t, folds, 4)

	valSeen := make(map[int]int)
	for f, fold := range folds {
		assert.Len(t, fold.val, 5, "fold %d validation block", f)
		assert.Len(t, fold.train, 15, "fold %d training block", f)

		inTrain := make(map[int]bool, len(fold.train))
		for _, idx := range fold.train {
			inTrain[idx] = true
		}
		for _, idx := range fold.val {
			valSeen[idx]++
			assert.False(t, inTrain[idx], "fold %d: index %d in both blocks", f, idx)
		}
	}

	// Every index validates exactly once when N is divisible by K.
	require.Len(t, valSeen, 20)
	for idx, count := range valSeen {
		assert.Equal(t, 1, count, "index %d", idx)
	}
}

func TestKFoldRemainderNeverValidates(t *testing.T) {
	// N=10, K=3: block size 3, one leftover index. It must never be
	// validated but must sit in every fold's training block.
	kf := NewKFold(3, 1)
	perm := rand.New(rand.NewPCG(5, 5)).Perm(10)
	folds := kf.partition(perm)
	require.Len(t, folds, 3)

	valSeen := make(map[int]bool)
	for f, fold := range folds {
		assert.Len(t, fold.val, 3, "fold %d", f)
		assert.Len(t, fold.train, 7, "fold %d training = N - block", f)
		for _, idx := range fold.val {
			valSeen[idx] = true
		}
	}
	require.Len(t, valSeen, 9, "exactly one index never validates")

	var leftover int
	for idx := 0; idx < 10; idx++ {
		if !valSeen[idx] {
			leftover = idx
		}
	}
	for f, fold := range folds {
		found := false
		for _, idx := range fold.train {
			if idx == leftover {
				found = true
				break
			}
		}
		assert.True(t, found, "leftover index %d missing from fold %d training block", leftover, f)
	}
}

func TestSweepValidation(t *testing.T) {
	X, y := twoClusterClassification(10)

	tests := []struct {
		name  string
		folds int
		task  model.Task
		kList []int
	}{
		{"fold count exceeds samples", 11, model.Classification, []int{1}},
		{"fold count below two", 1, model.Classification, []int{1}},
		{"empty candidate list", 3, model.Classification, nil},
		{"zero neighbor count", 3, model.Classification, []int{1, 0}},
		{"negative neighbor count", 3, model.Classification, []int{-2}},
		{"unsupported task", 3, model.Task("ranking"), []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kf := NewKFold(tt.folds, 1)
			_, err := kf.Sweep(X, y, tt.task, tt.kList)
			require.Error(t, err)
		})
	}
}

func TestSweepClassificationEndToEnd(t *testing.T) {
	X, y := twoClusterClassification(20)

	kf := NewKFold(4, 42)
	result, err := kf.Sweep(X, y, model.Classification, []int{1, 3, 5})
	require.NoError(t, err)

	require.Equal(t, []int{1, 3, 5}, result.Candidates)
	require.Len(t, result.Scores, 3)
	for i, s := range result.Scores {
		assert.GreaterOrEqual(t, s.Accuracy, 0.0, "candidate %d", i)
		assert.LessOrEqual(t, s.Accuracy, 100.0, "candidate %d", i)
		assert.GreaterOrEqual(t, s.MacroF1, 0.0, "candidate %d", i)
		assert.LessOrEqual(t, s.MacroF1, 1.0, "candidate %d", i)
	}

	// The clusters are cleanly separated, so every candidate reaches
	// identical (perfect) accuracy and the tie breaks to the last,
	// largest k.
	for i, s := range result.Scores {
		assert.InDelta(t, 100.0, s.Accuracy, 1e-9, "candidate %d", i)
	}
	assert.Equal(t, 5, result.BestK)
	assert.InDelta(t, 100.0, result.BestScore.Accuracy, 1e-9)
}

func TestSweepRegressionPrefersLargerKOnTie(t *testing.T) {
	// Constant targets make every candidate's validation MSE exactly
	// zero; the documented tie-break picks the last candidate.
	n := 12
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, 4.0)
		y.Set(i, 1, -2.0)
	}

	kf := NewKFold(3, 7)
	result, err := kf.Sweep(X, y, model.Regression, []int{1, 2, 4})
	require.NoError(t, err)

	for i, s := range result.Scores {
		assert.InDelta(t, 0.0, s.MSE, 1e-12, "candidate %d", i)
	}
	assert.Equal(t, 4, result.BestK)
}

func TestSweepSelectsMinimumMSE(t *testing.T) {
	// Noisy linear data: whatever the per-candidate scores are, the
	// selected candidate must match an explicit last-writer-wins scan
	// over the returned scores.
	rng := rand.New(rand.NewPCG(11, 11))
	n := 30
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / 3.0
		X.Set(i, 0, x)
		y.Set(i, 0, 2*x+rng.NormFloat64())
	}

	kf := NewKFold(5, 23)
	result, err := kf.Sweep(X, y, model.Regression, []int{1, 3, 7, 15})
	require.NoError(t, err)

	wantIdx := 0
	for i := range result.Scores {
		if result.Scores[i].MSE <= result.Scores[wantIdx].MSE {
			wantIdx = i
		}
	}
	assert.Equal(t, result.Candidates[wantIdx], result.BestK)
	assert.Equal(t, result.Scores[wantIdx], result.BestScore)
}

func TestSweepDeterministicPerSeed(t *testing.T) {
	X, y := twoClusterClassification(18)

	a, err := NewKFold(3, 99).Sweep(X, y, model.Classification, []int{1, 3})
	require.NoError(t, err)
	b, err := NewKFold(3, 99).Sweep(X, y, model.Classification, []int{1, 3})
	require.NoError(t, err)

	assert.Equal(t, a.Scores, b.Scores)
	assert.Equal(t, a.BestK, b.BestK)
}
