// Package dogkit is a small supervised-learning toolkit for the dog
// image coursework. It loads a dataset of dog images or precomputed
// features, trains one of four simple models (constant baseline,
// k-nearest-neighbors, closed-form ridge regression, gradient-descent
// logistic regression) and evaluates them on two tasks: locating the
// dog's center in the image (regression) and identifying its breed
// (classification).
//
// The packages are organized like a miniature scikit-learn:
//
//   - preprocessing: normalization, bias term, one-hot encoding
//   - metrics: accuracy, macro-F1, mean squared error
//   - modelselection: train/validation split and the k-fold
//     cross-validation sweep over KNN neighbor counts
//   - baseline, neighbors, linear: the model implementations
//   - dataset: the feature archive and image-directory loaders
//   - plotting: sweep result charts
//
// The cmd/dogkit driver wires these together behind a CLI.
package dogkit
