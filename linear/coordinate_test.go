package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestLassoRecoversSparseSignal(t *testing.T) {
	// y depends only on the first feature; the second is pure noise from
	// the model's point of view (constant zero coefficient).
	X := mat.NewDense(8, 2, []float64{
		0, 1,
		1, -1,
		2, 1,
		3, -1,
		4, 1,
		5, -1,
		6, 1,
		7, -1,
	})
	y := mat.NewVecDense(8, []float64{0, 2, 4, 6, 8, 10, 12, 14})

	lasso := NewLasso(0.01)
	if err := lasso.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(lasso.Weights.AtVec(0)-2) > 0.1 {
		t.Errorf("active weight = %v, want ~2", lasso.Weights.AtVec(0))
	}
	if math.Abs(lasso.Weights.AtVec(1)) > 0.1 {
		t.Errorf("inactive weight = %v, want ~0", lasso.Weights.AtVec(1))
	}
}

func TestElasticNetPredicts(t *testing.T) {
	// y = 3x with a weak penalty: predictions should track the signal.
	n := 10
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = float64(i)
		ys[i] = 3 * float64(i)
	}
	X := mat.NewDense(n, 1, xs)
	y := mat.NewVecDense(n, ys)

	en := NewElasticNet(0.01, 0.5)
	if err := en.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pred, err := en.Predict(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < n; i++ {
		if math.Abs(pred.At(i, 0)-ys[i]) > 0.5 {
			t.Errorf("pred[%d] = %v, want ~%v", i, pred.At(i, 0), ys[i])
		}
	}
}

func TestNewLassoIsPureL1(t *testing.T) {
	lasso := NewLasso(0.5)
	if lasso.L1Ratio != 1 {
		t.Errorf("L1Ratio = %v, want 1", lasso.L1Ratio)
	}
	if lasso.Alpha != 0.5 {
		t.Errorf("Alpha = %v, want 0.5", lasso.Alpha)
	}
}
