// Package classifier implements the classification catalog: multinomial
// logistic regression, a perceptron, gaussian naive bayes and a nearest
// centroid baseline. Targets are expected as encoded class indices
// 0..n_classes-1 in a column vector.
package classifier

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// LogisticRegression fits a multinomial logistic model with full-batch
// gradient descent on the softmax cross-entropy loss.
type LogisticRegression struct {
	State        *model.StateManager
	LearningRate float64
	MaxIter      int
	Tol          float64
	L2           float64

	// Coef is n_classes x n_features, Intercept n_classes.
	Coef       *mat.Dense
	Intercept  []float64
	ClassList  []int
	NFeatures_ int
}

// NewLogisticRegression creates an unfitted LogisticRegression with the
// defaults used by the catalog.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		State:        model.NewStateManager(),
		LearningRate: 0.1,
		MaxIter:      1000,
		Tol:          1e-5,
		L2:           1e-4,
	}
}

// Fit trains on X and the encoded class vector y.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "LogisticRegression.Fit")
	}
	if ry != r {
		return errors.NewDimensionError("LogisticRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}

	labels, classes, err := encodedClasses(y, r)
	if err != nil {
		return errors.Wrap(err, "LogisticRegression.Fit")
	}
	k := len(classes)

	lr.ClassList = classes
	lr.NFeatures_ = c
	lr.Coef = mat.NewDense(k, c, nil)
	lr.Intercept = make([]float64, k)

	n := float64(r)
	logits := mat.NewDense(r, k, nil)
	probs := mat.NewDense(r, k, nil)

	prevLoss := math.Inf(1)
	for iter := 0; iter < lr.MaxIter; iter++ {
		// Forward pass.
		for i := 0; i < r; i++ {
			for cls := 0; cls < k; cls++ {
				z := lr.Intercept[cls]
				for j := 0; j < c; j++ {
					z += X.At(i, j) * lr.Coef.At(cls, j)
				}
				logits.Set(i, cls, z)
			}
		}
		loss := 0.0
		for i := 0; i < r; i++ {
			maxZ := math.Inf(-1)
			for cls := 0; cls < k; cls++ {
				maxZ = math.Max(maxZ, logits.At(i, cls))
			}
			sum := 0.0
			for cls := 0; cls < k; cls++ {
				e := math.Exp(logits.At(i, cls) - maxZ)
				probs.Set(i, cls, e)
				sum += e
			}
			for cls := 0; cls < k; cls++ {
				probs.Set(i, cls, probs.At(i, cls)/sum)
			}
			loss -= math.Log(math.Max(probs.At(i, labels[i]), 1e-15))
		}
		loss /= n

		// Gradient step.
		for cls := 0; cls < k; cls++ {
			gradB := 0.0
			for i := 0; i < r; i++ {
				indicator := 0.0
				if labels[i] == cls {
					indicator = 1.0
				}
				gradB += probs.At(i, cls) - indicator
			}
			lr.Intercept[cls] -= lr.LearningRate * gradB / n

			for j := 0; j < c; j++ {
				grad := 0.0
				for i := 0; i < r; i++ {
					indicator := 0.0
					if labels[i] == cls {
						indicator = 1.0
					}
					grad += (probs.At(i, cls) - indicator) * X.At(i, j)
				}
				grad = grad/n + lr.L2*lr.Coef.At(cls, j)
				lr.Coef.Set(cls, j, lr.Coef.At(cls, j)-lr.LearningRate*grad)
			}
		}

		if math.Abs(prevLoss-loss) < lr.Tol {
			break
		}
		prevLoss = loss
	}

	lr.State.SetDimensions(c, r)
	lr.State.SetFitted()
	return nil
}

// Predict returns the most probable class per row.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probs, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, k := probs.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestP := 0, probs.At(i, 0)
		for cls := 1; cls < k; cls++ {
			if probs.At(i, cls) > bestP {
				best, bestP = cls, probs.At(i, cls)
			}
		}
		out.Set(i, 0, float64(lr.ClassList[best]))
	}
	return out, nil
}

// PredictProba returns per-class softmax probabilities.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.State.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != lr.NFeatures_ {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.NFeatures_, c, 1)
	}
	k := len(lr.ClassList)
	probs := mat.NewDense(r, k, nil)
	for i := 0; i < r; i++ {
		maxZ := math.Inf(-1)
		logits := make([]float64, k)
		for cls := 0; cls < k; cls++ {
			z := lr.Intercept[cls]
			for j := 0; j < c; j++ {
				z += X.At(i, j) * lr.Coef.At(cls, j)
			}
			logits[cls] = z
			maxZ = math.Max(maxZ, z)
		}
		sum := 0.0
		for cls := 0; cls < k; cls++ {
			logits[cls] = math.Exp(logits[cls] - maxZ)
			sum += logits[cls]
		}
		for cls := 0; cls < k; cls++ {
			probs.Set(i, cls, logits[cls]/sum)
		}
	}
	return probs, nil
}

// Classes returns the class labels seen during fitting.
func (lr *LogisticRegression) Classes() []int {
	return lr.ClassList
}

// encodedClasses validates that y holds dense integer class codes and
// returns the per-row labels plus the sorted class list.
func encodedClasses(y mat.Matrix, r int) ([]int, []int, error) {
	labels := make([]int, r)
	maxClass := 0
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		cls := int(v + 0.5)
		if v < 0 || math.Abs(v-float64(cls)) > 1e-9 {
			return nil, nil, errors.Newf("target is not an encoded class index at row %d: %v", i, v)
		}
		labels[i] = cls
		if cls > maxClass {
			maxClass = cls
		}
	}
	classes := make([]int, maxClass+1)
	for i := range classes {
		classes[i] = i
	}
	if len(classes) < 2 {
		return nil, nil, errors.New("need at least two classes")
	}
	return labels, classes, nil
}
