package preprocessing

import (
	"testing"
)

func TestLabelEncoderFitTransform(t *testing.T) {
	enc := NewLabelEncoder()
	y, err := enc.FitTransform([]string{"cat", "dog", "cat", "bird"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First-appearance order: cat=0, dog=1, bird=2.
	want := []float64{0, 1, 0, 2}
	for i, w := range want {
		if got := y.AtVec(i); got != w {
			t.Errorf("code[%d] = %v, want %v", i, got, w)
		}
	}
	if enc.NumClasses() != 3 {
		t.Errorf("NumClasses = %d, want 3", enc.NumClasses())
	}
}

func TestLabelEncoderInverseTransform(t *testing.T) {
	enc := NewLabelEncoder()
	if _, err := enc.FitTransform([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels, err := enc.InverseTransform([]int{2, 0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"c", "a", "b"}
	for i, w := range want {
		if labels[i] != w {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], w)
		}
	}
}

func TestLabelEncoderUnseenLabel(t *testing.T) {
	enc := NewLabelEncoder()
	if err := enc.Fit([]string{"a", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := enc.Transform([]string{"a", "z"}); err == nil {
		t.Fatal("expected an error for an unseen label")
	}
}

func TestLabelEncoderEmpty(t *testing.T) {
	enc := NewLabelEncoder()
	if err := enc.Fit(nil); err == nil {
		t.Fatal("expected an error for empty input")
	}
}
