package classifier

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
)

// separableData returns two well-separated clusters labelled 0 and 1.
func separableData() (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(8, 2, []float64{
		-2.0, -2.0,
		-2.5, -1.5,
		-1.5, -2.5,
		-2.0, -1.0,
		2.0, 2.0,
		2.5, 1.5,
		1.5, 2.5,
		2.0, 1.0,
	})
	y := mat.NewVecDense(8, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func assertSeparates(t *testing.T, est model.Estimator) {
	t.Helper()
	X, y := separableData()
	if err := est.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := est.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 8; i++ {
		if pred.At(i, 0) != y.AtVec(i) {
			t.Errorf("sample %d predicted %v, want %v", i, pred.At(i, 0), y.AtVec(i))
		}
	}
}

func TestLogisticRegressionSeparable(t *testing.T) {
	assertSeparates(t, NewLogisticRegression())
}

func TestGaussianNBSeparable(t *testing.T) {
	assertSeparates(t, NewGaussianNB())
}

func TestPerceptronSeparable(t *testing.T) {
	assertSeparates(t, NewPerceptron())
}

func TestNearestCentroidSeparable(t *testing.T) {
	assertSeparates(t, NewNearestCentroid())
}

func TestDecisionStumpSeparable(t *testing.T) {
	assertSeparates(t, NewDecisionStump())
}

func TestClassesReported(t *testing.T) {
	X, y := separableData()
	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	classes := lr.Classes()
	if len(classes) != 2 || classes[0] != 0 || classes[1] != 1 {
		t.Errorf("Classes = %v, want [0 1]", classes)
	}
}

func TestLogisticRegressionProbabilities(t *testing.T) {
	X, y := separableData()
	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	proba, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	r, c := proba.Dims()
	if r != 8 || c != 2 {
		t.Fatalf("proba dims = %dx%d, want 8x2", r, c)
	}
	for i := 0; i < r; i++ {
		sum := proba.At(i, 0) + proba.At(i, 1)
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("row %d probabilities sum to %v", i, sum)
		}
	}
}

func TestSingleClassRejected(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewVecDense(3, []float64{0, 0, 0})
	if err := NewGaussianNB().Fit(X, y); err == nil {
		t.Fatal("expected an error for a single-class target")
	}
}

func TestPredictBeforeFit(t *testing.T) {
	ests := []model.Estimator{
		NewLogisticRegression(),
		NewGaussianNB(),
		NewPerceptron(),
		NewNearestCentroid(),
		NewDecisionStump(),
	}
	X := mat.NewDense(1, 2, []float64{0, 0})
	for _, est := range ests {
		if _, err := est.Predict(X); err == nil {
			t.Errorf("%T: expected an error before fitting", est)
		}
	}
}

func TestThreeClasses(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		-3, -3,
		-3.5, -2.5,
		-2.5, -3.5,
		0, 3,
		0.5, 3.5,
		-0.5, 2.5,
		3, -3,
		3.5, -2.5,
		2.5, -3.5,
	})
	y := mat.NewVecDense(9, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	nb := NewGaussianNB()
	if err := nb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := nb.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 9; i++ {
		if pred.At(i, 0) != y.AtVec(i) {
			t.Errorf("sample %d predicted %v, want %v", i, pred.At(i, 0), y.AtVec(i))
		}
	}
}
