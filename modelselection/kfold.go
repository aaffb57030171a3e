package modelselection

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/core/model"
	"github.com/canml/dogkit/core/parallel"
	"github.com/canml/dogkit/metrics"
	"github.com/canml/dogkit/neighbors"
	"github.com/canml/dogkit/pkg/errors"
)

// Score is an aggregate validation performance. Accuracy and MacroF1
// are populated for classification sweeps, MSE for regression sweeps.
type Score struct {
	Accuracy float64
	MacroF1  float64
	MSE      float64
}

// SweepResult holds the outcome of one hyperparameter sweep: one
// fold-averaged score per candidate, in candidate order, plus the
// selected best candidate. It is immutable after the sweep.
type SweepResult struct {
	Task       model.Task
	Candidates []int
	Scores     []Score
	BestK      int
	BestScore  Score
}

// cvFold is one train/validation index pair.
type cvFold struct {
	train []int
	val   []int
}

// KFold evaluates KNN neighbor-count candidates by k-fold
// cross-validation.
//
// One random permutation of the sample indices is drawn per Sweep call
// and shared across all folds and all candidates. The permutation is
// cut into NFolds contiguous blocks of N/NFolds indices; each block
// validates once. When N is not divisible by NFolds, the up-to-NFolds-1
// leftover indices never enter a validation block but are part of every
// fold's training set (training is "all indices minus the validation
// block", not "the other blocks").
type KFold struct {
	// NFolds is the fold count K.
	NFolds int
	// Seed initializes the permutation source, making sweeps
	// reproducible without global random state.
	Seed uint64
}

// NewKFold creates a sweep harness with the given fold count and seed.
func NewKFold(nFolds int, seed uint64) *KFold {
	return &KFold{NFolds: nFolds, Seed: seed}
}

// Sweep cross-validates a fresh KNN model for every candidate neighbor
// count in kList and selects the best one: maximum mean accuracy for
// classification, minimum mean MSE for regression. Among tied
// candidates the last one in kList order wins, preferring the larger
// (simpler) neighbor count.
//
// All configuration is validated before any fold work starts. Folds of
// one candidate are evaluated in parallel; candidate order, fold
// aggregation and tie-breaking stay deterministic.
func (kf *KFold) Sweep(X, y mat.Matrix, task model.Task, kList []int) (*SweepResult, error) {
	n, _ := X.Dims()
	ry, _ := y.Dims()

	if kf.NFolds < 2 {
		return nil, errors.NewValidationError("k_fold", "fold count must be at least 2", kf.NFolds)
	}
	if kf.NFolds > n {
		return nil, errors.NewValidationError("k_fold", "fold count exceeds sample count", kf.NFolds)
	}
	if !task.Valid() {
		return nil, errors.NewValidationError("task", "unsupported task kind", string(task))
	}
	if len(kList) == 0 {
		return nil, errors.NewValidationError("k_list", "candidate list must not be empty", kList)
	}
	for _, k := range kList {
		if k < 1 {
			return nil, errors.NewValidationError("k_list", "neighbor counts must be positive", k)
		}
	}
	if ry != n {
		return nil, errors.NewDimensionError("KFold.Sweep", n, ry, 0)
	}

	// One permutation for the whole sweep; it is not re-drawn per
	// candidate, so every candidate sees identical folds.
	rng := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
	folds := kf.partition(rng.Perm(n))

	result := &SweepResult{
		Task:       task,
		Candidates: append([]int(nil), kList...),
		Scores:     make([]Score, len(kList)),
	}

	for ci, k := range kList {
		score, err := evaluateCandidate(X, y, task, k, folds)
		if err != nil {
			return nil, err
		}
		result.Scores[ci] = score
	}

	// Last-writer-wins scan: >= / <= instead of a generic max-finder so
	// ties settle on the largest candidate.
	bestIdx := 0
	for ci := range result.Scores {
		switch task {
		case model.Classification:
			if result.Scores[ci].Accuracy >= result.Scores[bestIdx].Accuracy {
				bestIdx = ci
			}
		case model.Regression:
			if result.Scores[ci].MSE <= result.Scores[bestIdx].MSE {
				bestIdx = ci
			}
		}
	}
	result.BestK = result.Candidates[bestIdx]
	result.BestScore = result.Scores[bestIdx]

	return result, nil
}

// partition cuts a permutation into NFolds contiguous validation
// blocks of len(perm)/NFolds indices each. Training indices are the
// complement of the block within the whole permutation, so remainder
// indices train in every fold.
func (kf *KFold) partition(perm []int) []cvFold {
	blockSize := len(perm) / kf.NFolds

	folds := make([]cvFold, kf.NFolds)
	for f := 0; f < kf.NFolds; f++ {
		lo, hi := f*blockSize, (f+1)*blockSize

		val := make([]int, blockSize)
		copy(val, perm[lo:hi])

		train := make([]int, 0, len(perm)-blockSize)
		train = append(train, perm[:lo]...)
		train = append(train, perm[hi:]...)

		folds[f] = cvFold{train: train, val: val}
	}
	return folds
}

// evaluateCandidate fits and scores one neighbor count across all
// folds and returns the fold-averaged score. Folds are mutually
// read-only over the shared data, so they run in parallel; results
// land in fold-indexed slots to keep aggregation deterministic.
func evaluateCandidate(X, y mat.Matrix, task model.Task, k int, folds []cvFold) (Score, error) {
	foldScores := make([]Score, len(folds))
	foldErrs := make([]error, len(folds))

	parallel.Parallelize(len(folds), func(start, end int) {
		for f := start; f < end; f++ {
			foldScores[f], foldErrs[f] = evaluateFold(X, y, task, k, folds[f])
		}
	})

	for f, err := range foldErrs {
		if err != nil {
			return Score{}, errors.Wrapf(err, "fold %d failed for k=%d", f, k)
		}
	}

	var sum Score
	for _, s := range foldScores {
		sum.Accuracy += s.Accuracy
		sum.MacroF1 += s.MacroF1
		sum.MSE += s.MSE
	}
	nf := float64(len(folds))
	return Score{
		Accuracy: sum.Accuracy / nf,
		MacroF1:  sum.MacroF1 / nf,
		MSE:      sum.MSE / nf,
	}, nil
}

// evaluateFold trains a fresh KNN on the fold's training block and
// scores its predictions on the validation block.
func evaluateFold(X, y mat.Matrix, task model.Task, k int, fold cvFold) (Score, error) {
	xTrain := takeRows(X, fold.train)
	yTrain := takeRows(y, fold.train)
	xVal := takeRows(X, fold.val)
	yVal := takeRows(y, fold.val)

	knn := neighbors.NewKNN(k, task)
	if err := knn.Fit(xTrain, yTrain); err != nil {
		return Score{}, err
	}
	pred, err := knn.Predict(xVal)
	if err != nil {
		return Score{}, err
	}

	var score Score
	switch task {
	case model.Classification:
		gt, yp := colVec(yVal), colVec(pred)
		if score.Accuracy, err = metrics.Accuracy(gt, yp); err != nil {
			return Score{}, err
		}
		if score.MacroF1, err = metrics.MacroF1(gt, yp); err != nil {
			return Score{}, err
		}
	case model.Regression:
		if score.MSE, err = metrics.MSE(yVal, pred); err != nil {
			return Score{}, err
		}
	}
	return score, nil
}
