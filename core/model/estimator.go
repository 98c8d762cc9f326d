// Package model defines the estimator contracts shared by every trainable
// unit in the catalog. The orchestrator only ever sees these interfaces;
// new model kinds are added by registering a constructor, never by
// branching on a type name.
package model

import "gonum.org/v1/gonum/mat"

// Fitter is the interface for trainable models.
type Fitter interface {
	// Fit trains the model on X (n_samples x n_features) and y (n_samples x 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for models that can predict.
type Predictor interface {
	// Predict returns predictions for X as an n_samples x 1 matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is the opaque trainable/predictable unit the catalog deals in.
type Estimator interface {
	Fitter
	Predictor
}

// Probabilistic is implemented by classifiers that can produce class
// probability estimates, used for ROC/PR style reporting.
type Probabilistic interface {
	// PredictProba returns an n_samples x n_classes matrix of probabilities.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// ClassAware is implemented by classifiers that expose the encoded class
// labels seen during fitting.
type ClassAware interface {
	// Classes returns the unique class labels seen during fitting.
	Classes() []int
}
