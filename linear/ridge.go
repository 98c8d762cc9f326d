package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// Ridge fits L2-regularised least squares in closed form:
// w = (X^T X + alpha*I)^-1 X^T y. The intercept is not penalised.
type Ridge struct {
	State     *model.StateManager
	Alpha     float64
	Weights   *mat.VecDense
	Intercept float64
	NFeatures int
}

// NewRidge creates an unfitted Ridge with the given regularisation
// strength. Non-positive alpha falls back to 1.0.
func NewRidge(alpha float64) *Ridge {
	if alpha <= 0 {
		alpha = 1.0
	}
	return &Ridge{State: model.NewStateManager(), Alpha: alpha}
}

// Fit solves the regularised normal equations.
func (rg *Ridge) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Ridge.Fit")
	}
	if ry != r {
		return errors.NewDimensionError("Ridge.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Ridge.Fit", "y must be a column vector")
	}

	rg.NFeatures = c

	XWithIntercept := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		XWithIntercept.Set(i, 0, 1.0)
		for j := 0; j < c; j++ {
			XWithIntercept.Set(i, j+1, X.At(i, j))
		}
	}

	var XT mat.Dense
	XT.CloneFrom(XWithIntercept.T())

	var XTX mat.Dense
	XTX.Mul(&XT, XWithIntercept)

	// Penalise every coefficient except the intercept at index 0.
	for j := 1; j <= c; j++ {
		XTX.Set(j, j, XTX.At(j, j)+rg.Alpha)
	}

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.Wrap(errors.ErrSingularMatrix, "Ridge.Fit")
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)

	rg.Intercept = weights.AtVec(0)
	rg.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		rg.Weights.SetVec(i, weights.AtVec(i+1))
	}

	rg.State.SetDimensions(c, r)
	rg.State.SetFitted()
	return nil
}

// Predict computes y = X*w + b.
func (rg *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rg.State.RequireFitted("Ridge", "Predict"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != rg.NFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", rg.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := rg.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * rg.Weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}
