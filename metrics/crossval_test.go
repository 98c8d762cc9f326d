package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/linear"
)

func TestKFoldPartitions(t *testing.T) {
	X := mat.NewDense(10, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	kf := NewKFold(5, 42)

	folds := kf.Split(X, nil)
	if len(folds) != 5 {
		t.Fatalf("got %d folds, want 5", len(folds))
	}

	seen := make(map[int]int)
	for _, fold := range folds {
		if len(fold.TestIndices) != 2 {
			t.Errorf("fold test size = %d, want 2", len(fold.TestIndices))
		}
		if len(fold.TrainIndices) != 8 {
			t.Errorf("fold train size = %d, want 8", len(fold.TrainIndices))
		}
		for _, idx := range fold.TestIndices {
			seen[idx]++
		}
	}
	for i := 0; i < 10; i++ {
		if seen[i] != 1 {
			t.Errorf("index %d appeared %d times across test folds, want 1", i, seen[i])
		}
	}
}

func TestKFoldDeterministic(t *testing.T) {
	X := mat.NewDense(8, 1, nil)
	a := NewKFold(4, 7).Split(X, nil)
	b := NewKFold(4, 7).Split(X, nil)
	for i := range a {
		if len(a[i].TestIndices) != len(b[i].TestIndices) {
			t.Fatal("fold sizes differ between identical splitters")
		}
		for j := range a[i].TestIndices {
			if a[i].TestIndices[j] != b[i].TestIndices[j] {
				t.Fatal("same seed produced different folds")
			}
		}
	}
}

func TestStratifiedKFoldKeepsClassesTogether(t *testing.T) {
	// 12 samples, balanced binary target.
	X := mat.NewDense(12, 1, nil)
	y := mat.NewVecDense(12, []float64{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1})

	skf := NewStratifiedKFold(3, 42)
	folds := skf.Split(X, y)
	if len(folds) != 3 {
		t.Fatalf("got %d folds, want 3", len(folds))
	}
	for i, fold := range folds {
		count := map[float64]int{}
		for _, idx := range fold.TestIndices {
			count[y.AtVec(idx)]++
		}
		if count[0] != 2 || count[1] != 2 {
			t.Errorf("fold %d class balance = %v, want 2 of each", i, count)
		}
	}
}

func TestCrossValidateLinearData(t *testing.T) {
	// y = 3x, noiseless: every fold should score an r2 of 1.
	n := 20
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = float64(i)
		ys[i] = 3 * float64(i)
	}
	X := mat.NewDense(n, 1, xs)
	y := mat.NewVecDense(n, ys)

	factory := func() model.Estimator { return linear.NewLinearRegression() }
	stats, err := CrossValidate(factory, X, y, NewKFold(5, 42), R2Score)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats.Scores) != 5 {
		t.Fatalf("got %d scores, want 5", len(stats.Scores))
	}
	if math.Abs(stats.Mean-1) > 1e-6 {
		t.Errorf("mean score = %v, want 1", stats.Mean)
	}
	if stats.Std > 1e-6 {
		t.Errorf("std = %v, want ~0", stats.Std)
	}
	if stats.Min > stats.Max {
		t.Errorf("min %v exceeds max %v", stats.Min, stats.Max)
	}
}
