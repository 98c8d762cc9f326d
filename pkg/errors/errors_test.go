package errors

import (
	"strings"
	"testing"
)

func TestTypedErrorsSupportAs(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name: "configuration",
			err:  NewConfigurationError("test_fraction", "out of range", 1.5),
			check: func(err error) bool {
				var e *ConfigurationError
				return As(err, &e) && e.Field == "test_fraction"
			},
		},
		{
			name: "training",
			err:  NewTrainingError("run-1", "Ridge", "fit", New("singular")),
			check: func(err error) bool {
				var e *TrainingError
				return As(err, &e) && e.Stage == "fit" && e.ModelName == "Ridge"
			},
		},
		{
			name: "not found",
			err:  NewNotFoundError("run", "run-9", ""),
			check: func(err error) bool {
				var e *NotFoundError
				return As(err, &e) && e.Name == "run-9"
			},
		},
		{
			name: "unavailable model",
			err:  NewUnavailableModelError("run-1", "Lasso", "no stored object"),
			check: func(err error) bool {
				var e *UnavailableModelError
				return As(err, &e) && e.ModelName == "Lasso"
			},
		},
		{
			name: "not fitted",
			err:  NewNotFittedError("Ridge", "Predict"),
			check: func(err error) bool {
				var e *NotFittedError
				return As(err, &e)
			},
		},
		{
			name: "dimension",
			err:  NewDimensionError("Predict", 3, 2, 1),
			check: func(err error) bool {
				var e *DimensionError
				return As(err, &e) && e.Expected == 3 && e.Got == 2
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("As failed for %v", tt.err)
			}
		})
	}
}

func TestTrainingErrorUnwrap(t *testing.T) {
	cause := New("the cause")
	err := NewTrainingError("run-1", "Ridge", "fit", cause)
	if !Is(err, cause) {
		t.Error("Is did not reach the wrapped cause")
	}
}

func TestErrorMessagesNameTheSubject(t *testing.T) {
	err := NewTrainingError("run-1", "Ridge", "fit", New("singular"))
	msg := err.Error()
	for _, want := range []string{"Ridge", "fit", "singular"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
