// Package errors provides the error taxonomy for the benchmarking engine.
// Errors are structured types with zerolog marshalling so callers can log
// them without re-deriving context (run id, model name, offending field).
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ConfigurationError reports an invalid problem specification: an empty
// predictor set, a test fraction outside (0,1), an unknown criterion.
// It is fatal and surfaced before any model is attempted.
type ConfigurationError struct {
	Field  string
	Reason string
	Value  interface{}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("modelbench: invalid configuration for %q: %s (got: %v)", e.Field, e.Reason, e.Value)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("field", e.Field).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigurationError")
}

// NewConfigurationError creates a ConfigurationError with a stack trace.
func NewConfigurationError(field, reason string, value interface{}) error {
	err := &ConfigurationError{Field: field, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// TrainingError describes the failure of a single candidate model during a
// benchmark run. It is recorded on the model's result, never propagated; a
// failing model must not abort the run.
type TrainingError struct {
	RunID     string
	ModelName string
	Stage     string // "construct", "fit", "predict", "metrics"
	Err       error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("modelbench: model %q failed during %s: %v", e.ModelName, e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *TrainingError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("run_id", e.RunID).
		Str("model_name", e.ModelName).
		Str("stage", e.Stage).
		AnErr("cause", e.Err).
		Str("type", "TrainingError")
}

// NewTrainingError creates a TrainingError with a stack trace.
func NewTrainingError(runID, modelName, stage string, err error) error {
	trainErr := &TrainingError{RunID: runID, ModelName: modelName, Stage: stage, Err: err}
	return errors.WithStack(trainErr)
}

// SerializationError describes an encode or decode failure for one trained
// model object. The surrounding bulk operation degrades the affected entry
// and continues.
type SerializationError struct {
	ModelName string
	Op        string // "encode" or "decode"
	Err       error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("modelbench: %s failed for model %q: %v", e.Op, e.ModelName, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *SerializationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("op", e.Op).
		AnErr("cause", e.Err).
		Str("type", "SerializationError")
}

// NewSerializationError creates a SerializationError with a stack trace.
func NewSerializationError(modelName, op string, err error) error {
	serErr := &SerializationError{ModelName: modelName, Op: op, Err: err}
	return errors.WithStack(serErr)
}

// UnavailableModelError is raised when a caller asks the evaluator or
// recommender to operate on a model whose trained object or success status
// does not support the request. The caller must remediate (re-run training
// or accept metrics-only results); the engine never retries on its own.
type UnavailableModelError struct {
	RunID     string
	ModelName string
	Reason    string
}

func (e *UnavailableModelError) Error() string {
	return fmt.Sprintf("modelbench: model %q in run %s is unavailable: %s", e.ModelName, e.RunID, e.Reason)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *UnavailableModelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("run_id", e.RunID).
		Str("model_name", e.ModelName).
		Str("reason", e.Reason).
		Str("type", "UnavailableModelError")
}

// NewUnavailableModelError creates an UnavailableModelError with a stack trace.
func NewUnavailableModelError(runID, modelName, reason string) error {
	err := &UnavailableModelError{RunID: runID, ModelName: modelName, Reason: reason}
	return errors.WithStack(err)
}

// NotFoundError reports a lookup miss: a model name absent from a run, or a
// run id absent from the store. Fatal to the requesting call only.
type NotFoundError struct {
	Kind  string // "model", "run", "selection"
	Name  string
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("modelbench: %s %q not found in run %s", e.Kind, e.Name, e.RunID)
	}
	return fmt.Sprintf("modelbench: %s %q not found", e.Kind, e.Name)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("kind", e.Kind).
		Str("name", e.Name).
		Str("run_id", e.RunID).
		Str("type", "NotFoundError")
}

// NewNotFoundError creates a NotFoundError with a stack trace.
func NewNotFoundError(kind, name, runID string) error {
	err := &NotFoundError{Kind: kind, Name: name, RunID: runID}
	return errors.WithStack(err)
}

// NotFittedError is returned when Predict or Transform is called on an
// estimator that has not been fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("modelbench: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports an input whose dimensions disagree with what an
// operation expects.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("modelbench: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is invalid for the operation,
// for example an empty vector passed to a metric function.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("modelbench: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

var (
	// ErrEmptyData is returned when an operation receives no data.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a matrix cannot be inverted.
	ErrSingularMatrix = New("singular matrix")
)
