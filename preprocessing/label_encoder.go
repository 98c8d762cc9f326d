package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// LabelEncoder maps categorical target labels onto the dense integer range
// 0..n_classes-1. The encoding is stored with the run so encoded
// predictions can be decoded back to the original labels.
type LabelEncoder struct {
	State *model.StateManager

	// ClassLabels holds the original labels in encoding order: the label at
	// index i encodes to i.
	ClassLabels []string

	index map[string]int
}

// NewLabelEncoder creates an unfitted LabelEncoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{State: model.NewStateManager()}
}

// Fit learns the label set from labels, in first-appearance order.
func (e *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "LabelEncoder.Fit")
	}
	e.ClassLabels = e.ClassLabels[:0]
	e.index = make(map[string]int)
	for _, label := range labels {
		if _, seen := e.index[label]; !seen {
			e.index[label] = len(e.ClassLabels)
			e.ClassLabels = append(e.ClassLabels, label)
		}
	}
	e.State.SetDimensions(1, len(labels))
	e.State.SetFitted()
	return nil
}

// Transform encodes labels into a column vector of class indices.
func (e *LabelEncoder) Transform(labels []string) (*mat.VecDense, error) {
	if err := e.State.RequireFitted("LabelEncoder", "Transform"); err != nil {
		return nil, err
	}
	encoded := mat.NewVecDense(len(labels), nil)
	for i, label := range labels {
		code, ok := e.index[label]
		if !ok {
			return nil, errors.Newf("LabelEncoder.Transform: unseen label %q", label)
		}
		encoded.SetVec(i, float64(code))
	}
	return encoded, nil
}

// FitTransform fits the encoder and encodes labels in one step.
func (e *LabelEncoder) FitTransform(labels []string) (*mat.VecDense, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// InverseTransform decodes class indices back to the original labels.
func (e *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if err := e.State.RequireFitted("LabelEncoder", "InverseTransform"); err != nil {
		return nil, err
	}
	labels := make([]string, len(codes))
	for i, code := range codes {
		if code < 0 || code >= len(e.ClassLabels) {
			return nil, errors.Newf("LabelEncoder.InverseTransform: code %d out of range", code)
		}
		labels[i] = e.ClassLabels[code]
	}
	return labels, nil
}

// NumClasses returns the number of distinct labels seen during fitting.
func (e *LabelEncoder) NumClasses() int {
	return len(e.ClassLabels)
}
