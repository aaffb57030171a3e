package log

// Standard attribute keys used across dogkit log records. The keys use
// a hierarchical naming convention so structured logs can be filtered
// by model, data shape or evaluation context.

// Model and operation context.
const (
	// ModelNameKey identifies the model type, e.g. "KNN",
	// "RidgeRegression", "LogisticRegression", "DummyClassifier".
	ModelNameKey = "model.name"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "predict", "sweep", "split".
	OperationKey = "ml.operation"

	// TaskKey names the coursework task: "classification" or
	// "regression".
	TaskKey = "ml.task"
)

// Data shape.
const (
	// SamplesKey is the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns).
	FeaturesKey = "data.features"

	// ClassesKey is the number of distinct classes.
	ClassesKey = "data.classes"
)

// Cross-validation context.
const (
	// FoldsKey is the fold count K of a cross-validation sweep.
	FoldsKey = "cv.folds"

	// CandidatesKey is the number of hyperparameter candidates swept.
	CandidatesKey = "cv.candidates"

	// BestKKey is the neighbor count selected by the sweep.
	BestKKey = "cv.best_k"
)

// Metrics.
const (
	// AccuracyKey is a classification accuracy in percent.
	AccuracyKey = "metrics.accuracy"

	// MacroF1Key is a macro-averaged F1 score.
	MacroF1Key = "metrics.macro_f1"

	// LossKey is a regression loss (MSE).
	LossKey = "metrics.loss"

	// DurationMsKey is the wall-clock duration of an operation in
	// milliseconds.
	DurationMsKey = "perf.duration_ms"
)
