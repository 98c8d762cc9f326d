package classifier

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// Perceptron is a one-vs-rest linear perceptron with a fixed number of
// epochs over a seeded shuffle of the samples.
type Perceptron struct {
	State        *model.StateManager
	LearningRate float64
	Epochs       int
	Seed         int64

	Coef       *mat.Dense
	Intercept  []float64
	ClassList  []int
	NFeatures_ int
}

// NewPerceptron creates an unfitted Perceptron with catalog defaults.
func NewPerceptron() *Perceptron {
	return &Perceptron{
		State:        model.NewStateManager(),
		LearningRate: 1.0,
		Epochs:       50,
		Seed:         42,
	}
}

// Fit runs the perceptron update rule one binary problem per class.
func (p *Perceptron) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Perceptron.Fit")
	}
	if ry != r {
		return errors.NewDimensionError("Perceptron.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Perceptron.Fit", "y must be a column vector")
	}

	labels, classes, err := encodedClasses(y, r)
	if err != nil {
		return errors.Wrap(err, "Perceptron.Fit")
	}
	k := len(classes)

	p.ClassList = classes
	p.NFeatures_ = c
	p.Coef = mat.NewDense(k, c, nil)
	p.Intercept = make([]float64, k)

	rng := rand.New(rand.NewSource(p.Seed))
	order := rng.Perm(r)

	for cls := 0; cls < k; cls++ {
		for epoch := 0; epoch < p.Epochs; epoch++ {
			mistakes := 0
			for _, i := range order {
				target := -1.0
				if labels[i] == cls {
					target = 1.0
				}
				activation := p.Intercept[cls]
				for j := 0; j < c; j++ {
					activation += X.At(i, j) * p.Coef.At(cls, j)
				}
				if target*activation <= 0 {
					mistakes++
					for j := 0; j < c; j++ {
						p.Coef.Set(cls, j, p.Coef.At(cls, j)+p.LearningRate*target*X.At(i, j))
					}
					p.Intercept[cls] += p.LearningRate * target
				}
			}
			if mistakes == 0 {
				break
			}
		}
	}

	p.State.SetDimensions(c, r)
	p.State.SetFitted()
	return nil
}

// Predict returns the class with the highest activation per row.
func (p *Perceptron) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := p.State.RequireFitted("Perceptron", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != p.NFeatures_ {
		return nil, errors.NewDimensionError("Perceptron.Predict", p.NFeatures_, c, 1)
	}
	k := len(p.ClassList)
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestA := 0, activationOf(p, X, i, 0, c)
		for cls := 1; cls < k; cls++ {
			a := activationOf(p, X, i, cls, c)
			if a > bestA {
				best, bestA = cls, a
			}
		}
		out.Set(i, 0, float64(p.ClassList[best]))
	}
	return out, nil
}

// Classes returns the class labels seen during fitting.
func (p *Perceptron) Classes() []int {
	return p.ClassList
}

func activationOf(p *Perceptron, X mat.Matrix, row, cls, cols int) float64 {
	a := p.Intercept[cls]
	for j := 0; j < cols; j++ {
		a += X.At(row, j) * p.Coef.At(cls, j)
	}
	return a
}
