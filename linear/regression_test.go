package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestLinearRegressionExactFit(t *testing.T) {
	// y = 2x + 1
	X := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
	y := mat.NewVecDense(5, []float64{1, 3, 5, 7, 9})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(lr.Weights.AtVec(0)-2) > 1e-8 {
		t.Errorf("weight = %v, want 2", lr.Weights.AtVec(0))
	}
	if math.Abs(lr.Intercept-1) > 1e-8 {
		t.Errorf("intercept = %v, want 1", lr.Intercept)
	}

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 10}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(pred.At(0, 0)-11) > 1e-8 || math.Abs(pred.At(1, 0)-21) > 1e-8 {
		t.Errorf("predictions = (%v, %v), want (11, 21)", pred.At(0, 0), pred.At(1, 0))
	}
}

func TestLinearRegressionTwoFeatures(t *testing.T) {
	// y = x1 + 2*x2
	X := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
		2, 1,
	})
	y := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(lr.Weights.AtVec(0)-1) > 1e-8 || math.Abs(lr.Weights.AtVec(1)-2) > 1e-8 {
		t.Errorf("weights = (%v, %v), want (1, 2)", lr.Weights.AtVec(0), lr.Weights.AtVec(1))
	}
}

func TestLinearRegressionNotFitted(t *testing.T) {
	lr := NewLinearRegression()
	if _, err := lr.Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Fatal("expected an error before fitting")
	}
}

func TestLinearRegressionDimensionMismatch(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := lr.Predict(mat.NewDense(1, 3, []float64{1, 2, 3})); err == nil {
		t.Fatal("expected an error for mismatched feature count")
	}
}

func TestRidgeShrinksWeights(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
	y := mat.NewVecDense(5, []float64{1, 3, 5, 7, 9})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ridge := NewRidge(10)
	if err := ridge.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(ridge.Weights.AtVec(0)) >= math.Abs(lr.Weights.AtVec(0)) {
		t.Errorf("ridge weight %v not smaller than ols weight %v",
			ridge.Weights.AtVec(0), lr.Weights.AtVec(0))
	}
}

func TestRidgeDefaultAlpha(t *testing.T) {
	ridge := NewRidge(-1)
	if ridge.Alpha != 1.0 {
		t.Errorf("Alpha = %v, want 1.0 for non-positive input", ridge.Alpha)
	}
}
