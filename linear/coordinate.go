package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// ElasticNet fits least squares with combined L1/L2 regularisation by
// cyclic coordinate descent. L1Ratio=1 is the lasso, L1Ratio=0 pure ridge.
type ElasticNet struct {
	State     *model.StateManager
	Alpha     float64
	L1Ratio   float64
	MaxIter   int
	Tol       float64
	Weights   *mat.VecDense
	Intercept float64
	NFeatures int
}

// NewElasticNet creates an unfitted ElasticNet.
func NewElasticNet(alpha, l1Ratio float64) *ElasticNet {
	if alpha <= 0 {
		alpha = 1.0
	}
	if l1Ratio < 0 || l1Ratio > 1 {
		l1Ratio = 0.5
	}
	return &ElasticNet{
		State:   model.NewStateManager(),
		Alpha:   alpha,
		L1Ratio: l1Ratio,
		MaxIter: 1000,
		Tol:     1e-4,
	}
}

// NewLasso creates an ElasticNet with L1Ratio=1, i.e. the lasso.
func NewLasso(alpha float64) *ElasticNet {
	en := NewElasticNet(alpha, 1.0)
	return en
}

// Fit runs cyclic coordinate descent on the objective
// 1/(2n)||y - Xw - b||^2 + alpha*(l1Ratio*||w||_1 + (1-l1Ratio)/2*||w||^2).
func (en *ElasticNet) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "ElasticNet.Fit")
	}
	if ry != r {
		return errors.NewDimensionError("ElasticNet.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("ElasticNet.Fit", "y must be a column vector")
	}

	en.NFeatures = c
	n := float64(r)
	l1 := en.Alpha * en.L1Ratio
	l2 := en.Alpha * (1 - en.L1Ratio)

	// Center y through the intercept; the intercept itself is unpenalised
	// and recomputed every sweep.
	w := make([]float64, c)
	residual := make([]float64, r)
	yv := make([]float64, r)
	for i := 0; i < r; i++ {
		yv[i] = y.At(i, 0)
		residual[i] = yv[i]
	}
	intercept := meanOf(residual)
	for i := range residual {
		residual[i] -= intercept
	}

	// Per-feature squared norms, constant across sweeps.
	colNorm := make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			colNorm[j] += v * v
		}
		colNorm[j] /= n
	}

	for iter := 0; iter < en.MaxIter; iter++ {
		maxDelta := 0.0
		for j := 0; j < c; j++ {
			if colNorm[j] == 0 {
				continue
			}
			// Partial residual correlation for coordinate j.
			rho := 0.0
			for i := 0; i < r; i++ {
				rho += X.At(i, j) * (residual[i] + X.At(i, j)*w[j])
			}
			rho /= n

			updated := softThreshold(rho, l1) / (colNorm[j] + l2)
			delta := updated - w[j]
			if delta != 0 {
				for i := 0; i < r; i++ {
					residual[i] -= X.At(i, j) * delta
				}
				w[j] = updated
			}
			maxDelta = math.Max(maxDelta, math.Abs(delta))
		}

		// Refresh the intercept against the current residual.
		shift := meanOf(residual)
		if shift != 0 {
			intercept += shift
			for i := range residual {
				residual[i] -= shift
			}
		}

		if maxDelta < en.Tol {
			break
		}
	}

	en.Intercept = intercept
	en.Weights = mat.NewVecDense(c, w)
	en.State.SetDimensions(c, r)
	en.State.SetFitted()
	return nil
}

// Predict computes y = X*w + b.
func (en *ElasticNet) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := en.State.RequireFitted("ElasticNet", "Predict"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != en.NFeatures {
		return nil, errors.NewDimensionError("ElasticNet.Predict", en.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := en.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * en.Weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
