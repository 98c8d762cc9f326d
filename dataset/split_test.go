package dataset

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTrainTestSplitSizes(t *testing.T) {
	n := 10
	X := mat.NewDense(n, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	y := mat.NewVecDense(n, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})

	split, err := TrainTestSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trainRows, _ := split.XTrain.Dims()
	testRows, _ := split.XTest.Dims()
	if trainRows != 8 || testRows != 2 {
		t.Fatalf("split sizes = %d/%d, want 8/2", trainRows, testRows)
	}

	// Every index lands in exactly one partition.
	seen := make(map[int]int)
	for _, idx := range split.TrainIndices {
		seen[idx]++
	}
	for _, idx := range split.TestIndices {
		seen[idx]++
	}
	for i := 0; i < n; i++ {
		if seen[i] != 1 {
			t.Errorf("index %d appeared %d times, want 1", i, seen[i])
		}
	}

	// Rows stay paired with their targets.
	for i, idx := range split.TestIndices {
		if split.XTest.At(i, 0) != float64(idx) || split.YTest.AtVec(i) != float64(idx) {
			t.Errorf("test row %d not aligned with its target", i)
		}
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	X := mat.NewDense(20, 1, nil)
	y := mat.NewVecDense(20, nil)

	a, err := TrainTestSplit(X, y, 0.25, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := TrainTestSplit(X, y, 0.25, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a.TestIndices {
		if a.TestIndices[i] != b.TestIndices[i] {
			t.Fatal("same seed produced different splits")
		}
	}
}

func TestTrainTestSplitInvalidFraction(t *testing.T) {
	X := mat.NewDense(4, 1, nil)
	y := mat.NewVecDense(4, nil)
	for _, fraction := range []float64{0, 1, -0.5, 1.5} {
		if _, err := TrainTestSplit(X, y, fraction, 42); err == nil {
			t.Errorf("fraction %v: expected an error", fraction)
		}
	}
}

func TestTrainTestSplitTinyDataset(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewVecDense(2, []float64{1, 2})
	split, err := TrainTestSplit(X, y, 0.5, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	trainRows, _ := split.XTrain.Dims()
	testRows, _ := split.XTest.Dims()
	if trainRows != 1 || testRows != 1 {
		t.Errorf("split sizes = %d/%d, want 1/1", trainRows, testRows)
	}
}
