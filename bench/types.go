// Package bench implements the benchmarking orchestrator: it prepares a
// dataset, trains every candidate model in the catalog with per-model
// fault isolation, computes comparable metrics and ranks the survivors.
package bench

import (
	"sort"
	"time"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// ProblemType identifies what kind of prediction problem a run solves.
type ProblemType string

const (
	// Classification predicts one of a discrete label set.
	Classification ProblemType = "classification"
	// Regression predicts a continuous value.
	Regression ProblemType = "regression"
)

// Metric names shared across the engine.
const (
	MetricAccuracy  = "accuracy"
	MetricPrecision = "precision"
	MetricRecall    = "recall"
	MetricF1        = "f1"
	MetricR2        = "r2"
	MetricMSE       = "mse"
	MetricRMSE      = "rmse"
	MetricMAE       = "mae"
	MetricCVMean    = "cv_score_mean"
	MetricCVStd     = "cv_score_std"
)

// PrimaryMetric returns the metric used for the default ranking: F1 for
// classification, R² for regression.
func PrimaryMetric(pt ProblemType) string {
	if pt == Classification {
		return MetricF1
	}
	return MetricR2
}

// ValidCriteria returns the metrics a recommendation criterion may use for
// the given problem type.
func ValidCriteria(pt ProblemType) []string {
	if pt == Classification {
		return []string{MetricAccuracy, MetricPrecision, MetricRecall, MetricF1, MetricCVMean}
	}
	return []string{MetricR2, MetricMSE, MetricRMSE, MetricMAE, MetricCVMean}
}

// LowerIsBetter reports whether a smaller value of the metric indicates a
// better model (error metrics), as opposed to score metrics.
func LowerIsBetter(metric string) bool {
	switch metric {
	case MetricMSE, MetricRMSE, MetricMAE:
		return true
	default:
		return false
	}
}

// ProblemSpec declares the prediction problem for one benchmark run.
// It is immutable once the run starts.
type ProblemSpec struct {
	TargetColumn     string      `json:"target_column"`
	PredictorColumns []string    `json:"predictor_columns"`
	ProblemType      ProblemType `json:"problem_type,omitempty"`
	TestFraction     float64     `json:"test_fraction"`
}

// Validate checks the invariants that must hold before any model is
// attempted. Violations are ConfigurationErrors, fatal and never retried.
func (s ProblemSpec) Validate() error {
	if s.TargetColumn == "" {
		return errors.NewConfigurationError("target_column", "must not be empty", s.TargetColumn)
	}
	if len(s.PredictorColumns) == 0 {
		return errors.NewConfigurationError("predictor_columns", "must not be empty", s.PredictorColumns)
	}
	for _, p := range s.PredictorColumns {
		if p == s.TargetColumn {
			return errors.NewConfigurationError("predictor_columns", "must not contain the target column", p)
		}
	}
	if s.TestFraction <= 0 || s.TestFraction >= 1 {
		return errors.NewConfigurationError("test_fraction", "must be strictly between 0 and 1", s.TestFraction)
	}
	if s.ProblemType != "" && s.ProblemType != Classification && s.ProblemType != Regression {
		return errors.NewConfigurationError("problem_type", "must be classification or regression", s.ProblemType)
	}
	return nil
}

// ModelStatus is the outcome of one candidate model.
type ModelStatus string

const (
	// StatusSuccess marks a model that trained and was scored.
	StatusSuccess ModelStatus = "success"
	// StatusFailed marks a model that failed at any stage.
	StatusFailed ModelStatus = "failed"
)

// SerializedModel is the text-safe persisted form of a trained model
// object. Decodable records whether decoding is expected to succeed; a
// corrupt or unsupported payload is kept for inspection but flagged.
type SerializedModel struct {
	Payload   string `json:"payload"`
	Decodable bool   `json:"decodable"`
}

// ModelResult records the outcome of one candidate model within a run.
// Metrics are empty iff the model failed; ErrorMessage is set iff it
// failed; Trained is present iff the model succeeded and has not been
// stripped by persistence.
type ModelResult struct {
	ModelName          string             `json:"name"`
	Status             ModelStatus        `json:"status"`
	Metrics            map[string]float64 `json:"metrics,omitempty"`
	ErrorMessage       string             `json:"error_message,omitempty"`
	FittedFeatureNames []string           `json:"fitted_feature_names,omitempty"`
	TrainingDuration   time.Duration      `json:"training_duration_ns,omitempty"`

	// Trained is the in-memory model object; never serialised directly.
	Trained model.Estimator `json:"-"`

	// Serialized and HasObject are maintained by the registry. HasObject
	// distinguishes "object present but decode not yet attempted" from
	// "object never captured".
	Serialized *SerializedModel `json:"serialized_object,omitempty"`
	HasObject  bool             `json:"has_object"`

	// DecodeNote carries the diagnostic attached when a bulk decode could
	// not reconstruct this entry.
	DecodeNote string `json:"decode_note,omitempty"`
}

// RunData is the prepared (scaled, encoded) train/test partition kept with
// a run so the evaluator can re-derive metrics and cross-validation
// statistics later.
type RunData struct {
	TrainFeatures [][]float64 `json:"train_features"`
	TrainTarget   []float64   `json:"train_target"`
	TestFeatures  [][]float64 `json:"test_features"`
	TestTarget    []float64   `json:"test_target"`
}

// BenchmarkRun is the immutable record of one full training-and-evaluation
// pass over the candidate catalog. Only the orchestrator mutates it, and
// only while the run is in flight; every downstream component reads.
type BenchmarkRun struct {
	RunID           string        `json:"run_id"`
	UserID          string        `json:"user_id"`
	Spec            ProblemSpec   `json:"problem_spec"`
	ProblemType     ProblemType   `json:"problem_type"`
	CreatedAt       time.Time     `json:"created_at"`
	Results         []ModelResult `json:"models"`
	SuccessfulCount int           `json:"successful_count"`
	FailedCount     int           `json:"failed_count"`
	BestModelName   string        `json:"best_model_name,omitempty"`
	PersistedAt     *time.Time    `json:"persisted_at,omitempty"`

	// ClassLabels holds the label-encoding order for classification runs:
	// the label at index i decodes class i.
	ClassLabels []string `json:"class_labels,omitempty"`

	// FeatureNames lists the expanded predictor columns in matrix order.
	FeatureNames []string `json:"feature_names,omitempty"`

	Data *RunData `json:"data,omitempty"`
}

// Result returns the named model's result, or a NotFoundError.
func (r *BenchmarkRun) Result(modelName string) (*ModelResult, error) {
	for i := range r.Results {
		if r.Results[i].ModelName == modelName {
			return &r.Results[i], nil
		}
	}
	return nil, errors.NewNotFoundError("model", modelName, r.RunID)
}

// Successful returns pointers to the successful results in catalog order.
func (r *BenchmarkRun) Successful() []*ModelResult {
	var out []*ModelResult
	for i := range r.Results {
		if r.Results[i].Status == StatusSuccess {
			out = append(out, &r.Results[i])
		}
	}
	return out
}

// RankSuccessful returns the successful results ordered best-first by the
// given metric. The sort is stable: ties keep catalog order, no secondary
// tiebreak. Error metrics order ascending, score metrics descending.
func RankSuccessful(r *BenchmarkRun, metric string) []*ModelResult {
	ranked := r.Successful()
	lower := LowerIsBetter(metric)
	sort.SliceStable(ranked, func(a, b int) bool {
		va := ranked[a].Metrics[metric]
		vb := ranked[b].Metrics[metric]
		if lower {
			return va < vb
		}
		return va > vb
	})
	return ranked
}

// Selection is the immutable, append-only record of a user's final model
// choice for a run. It references a successful ModelResult and never
// mutates the run itself.
type Selection struct {
	SelectionID   string    `json:"selection_id"`
	RunID         string    `json:"run_id"`
	ModelName     string    `json:"model_name"`
	Criterion     string    `json:"criterion"`
	Justification string    `json:"justification"`
	Comments      string    `json:"comments,omitempty"`
	SelectedAt    time.Time `json:"selected_at"`
	SelectedBy    string    `json:"selected_by"`
}
