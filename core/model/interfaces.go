package model

import "gonum.org/v1/gonum/mat"

// Task selects between the two coursework objectives: predicting the
// dog's breed (classification) or the 2D center of the dog in the
// image (regression).
type Task string

const (
	// Classification predicts integer class indices in [0, C).
	Classification Task = "classification"
	// Regression predicts continuous target vectors.
	Regression Task = "regression"
)

// Valid reports whether t names a supported task.
func (t Task) Valid() bool {
	return t == Classification || t == Regression
}

// Fitter is a model that can be trained on a feature matrix X of shape
// (n_samples, n_features) and a label matrix y with matching rows.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor produces predictions for a query matrix. Calling Predict
// before Fit returns a NotFittedError.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Model is the contract shared by all dogkit predictors: the constant
// baseline, k-nearest-neighbors, closed-form ridge regression and the
// gradient-descent logistic classifier.
type Model interface {
	Fitter
	Predictor
}
