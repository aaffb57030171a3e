package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/core/model"
	"github.com/canml/dogkit/pkg/errors"
	"github.com/canml/dogkit/preprocessing"
)

// LogisticRegression is a multinomial logistic classifier trained by
// full-batch gradient descent on the softmax cross-entropy loss.
type LogisticRegression struct {
	model.BaseEstimator

	// LearningRate is the gradient-descent step size.
	LearningRate float64
	// MaxIters caps the number of gradient steps.
	MaxIters int
	// Tol stops training early once the largest absolute gradient entry
	// drops below it. Zero disables the early stop and always runs
	// MaxIters steps.
	Tol float64

	weights   *mat.Dense // (n_features, n_classes)
	nFeatures int
	nClasses  int
}

// LogisticOption configures a LogisticRegression.
type LogisticOption func(*LogisticRegression)

// WithTol sets the convergence tolerance on the gradient norm.
func WithTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.Tol = tol
	}
}

// NewLogisticRegression creates an untrained classifier with the given
// learning rate and iteration cap.
func NewLogisticRegression(learningRate float64, maxIters int, opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		LearningRate: learningRate,
		MaxIters:     maxIters,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit trains the weight matrix by gradient descent. y is a column
// vector of class indices in [0, C). A NaN or Inf gradient entry aborts
// the fit with a NumericalInstabilityError; hitting MaxIters with a
// tolerance configured raises a ConvergenceWarning.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if lr.LearningRate <= 0 {
		return errors.NewValidationError("lr", "learning rate must be positive", lr.LearningRate)
	}
	if lr.MaxIters < 1 {
		return errors.NewValidationError("max_iters", "iteration cap must be at least 1", lr.MaxIters)
	}

	n, d := X.Dims()
	ry, cy := y.Dims()
	if n == 0 || d == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != n {
		return errors.NewDimensionError("LogisticRegression.Fit", n, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector of class indices")
	}

	labels := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		labels.SetVec(i, y.At(i, 0))
	}
	nClasses := preprocessing.NumClasses(labels)
	onehot, err := preprocessing.LabelToOneHot(labels, nClasses)
	if err != nil {
		return err
	}

	// Zero initialization keeps training deterministic; with softmax
	// cross-entropy the symmetric start is not a saddle problem.
	weights := mat.NewDense(d, nClasses, nil)

	converged := lr.Tol <= 0
	for iter := 0; iter < lr.MaxIters; iter++ {
		probs := softmaxScores(X, weights)

		// grad = X^T * (probs - onehot)
		var residual mat.Dense
		residual.Sub(probs, onehot)
		var grad mat.Dense
		grad.Mul(X.T(), &residual)

		maxAbs := 0.0
		for i := 0; i < d; i++ {
			for j := 0; j < nClasses; j++ {
				g := grad.At(i, j)
				if math.IsNaN(g) || math.IsInf(g, 0) {
					return errors.NewNumericalInstabilityError(
						"LogisticRegression.Fit", []float64{g}, iter)
				}
				if math.Abs(g) > maxAbs {
					maxAbs = math.Abs(g)
				}
			}
		}

		var step mat.Dense
		step.Scale(lr.LearningRate, &grad)
		weights.Sub(weights, &step)

		if lr.Tol > 0 && maxAbs < lr.Tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.MaxIters, ""))
	}

	lr.weights = weights
	lr.nFeatures = d
	lr.nClasses = nClasses
	lr.SetFitted()
	return nil
}

// Predict returns the (N,1) column of argmax class indices.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probs, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	labels := preprocessing.OneHotToLabel(probs)
	n := labels.Len()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, labels.AtVec(i))
	}
	return out, nil
}

// PredictProba returns the (N, n_classes) matrix of softmax class
// probabilities.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	_, d := X.Dims()
	if d != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures, d, 1)
	}

	return softmaxScores(X, lr.weights), nil
}

// softmaxScores computes row-wise softmax(X*W) with the usual max-shift
// for numerical stability.
func softmaxScores(X mat.Matrix, W *mat.Dense) *mat.Dense {
	var scores mat.Dense
	scores.Mul(X, W)

	n, c := scores.Dims()
	for i := 0; i < n; i++ {
		rowMax := scores.At(i, 0)
		for j := 1; j < c; j++ {
			if scores.At(i, j) > rowMax {
				rowMax = scores.At(i, j)
			}
		}
		sum := 0.0
		for j := 0; j < c; j++ {
			e := math.Exp(scores.At(i, j) - rowMax)
			scores.Set(i, j, e)
			sum += e
		}
		for j := 0; j < c; j++ {
			scores.Set(i, j, scores.At(i, j)/sum)
		}
	}
	return &scores
}
