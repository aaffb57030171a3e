// Package model defines the shared estimator contract for dogkit models.
package model

// EstimatorState tracks whether an estimator has been trained.
type EstimatorState int

const (
	// NotFitted is the state of an estimator before Fit has been called.
	NotFitted EstimatorState = iota
	// Fitted is the state of an estimator after a successful Fit.
	Fitted
)

// BaseEstimator is embedded by every model to carry its fitted state.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether Fit has completed successfully.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as trained.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the untrained state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
