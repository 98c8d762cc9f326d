package classifier

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// GaussianNB is a gaussian naive bayes classifier: each feature is modelled
// as an independent gaussian per class.
type GaussianNB struct {
	State *model.StateManager

	// Theta and Sigma are n_classes x n_features mean and variance.
	Theta      *mat.Dense
	Sigma      *mat.Dense
	Priors     []float64
	ClassList  []int
	NFeatures_ int
}

// NewGaussianNB creates an unfitted GaussianNB.
func NewGaussianNB() *GaussianNB {
	return &GaussianNB{State: model.NewStateManager()}
}

// Fit estimates per-class feature means, variances and priors.
func (nb *GaussianNB) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "GaussianNB.Fit")
	}
	if ry != r {
		return errors.NewDimensionError("GaussianNB.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("GaussianNB.Fit", "y must be a column vector")
	}

	labels, classes, err := encodedClasses(y, r)
	if err != nil {
		return errors.Wrap(err, "GaussianNB.Fit")
	}
	k := len(classes)

	nb.ClassList = classes
	nb.NFeatures_ = c
	nb.Theta = mat.NewDense(k, c, nil)
	nb.Sigma = mat.NewDense(k, c, nil)
	nb.Priors = make([]float64, k)

	counts := make([]int, k)
	for i := 0; i < r; i++ {
		cls := labels[i]
		counts[cls]++
		for j := 0; j < c; j++ {
			nb.Theta.Set(cls, j, nb.Theta.At(cls, j)+X.At(i, j))
		}
	}
	for cls := 0; cls < k; cls++ {
		if counts[cls] == 0 {
			return errors.Newf("GaussianNB.Fit: class %d has no samples", cls)
		}
		nb.Priors[cls] = float64(counts[cls]) / float64(r)
		for j := 0; j < c; j++ {
			nb.Theta.Set(cls, j, nb.Theta.At(cls, j)/float64(counts[cls]))
		}
	}
	for i := 0; i < r; i++ {
		cls := labels[i]
		for j := 0; j < c; j++ {
			diff := X.At(i, j) - nb.Theta.At(cls, j)
			nb.Sigma.Set(cls, j, nb.Sigma.At(cls, j)+diff*diff)
		}
	}
	// Variance smoothing keeps degenerate features from producing
	// infinite log-likelihoods.
	const epsilon = 1e-9
	for cls := 0; cls < k; cls++ {
		for j := 0; j < c; j++ {
			nb.Sigma.Set(cls, j, nb.Sigma.At(cls, j)/float64(counts[cls])+epsilon)
		}
	}

	nb.State.SetDimensions(c, r)
	nb.State.SetFitted()
	return nil
}

// Predict returns the class with the highest posterior per row.
func (nb *GaussianNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	ll, err := nb.logLikelihood(X)
	if err != nil {
		return nil, err
	}
	r, k := ll.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestL := 0, ll.At(i, 0)
		for cls := 1; cls < k; cls++ {
			if ll.At(i, cls) > bestL {
				best, bestL = cls, ll.At(i, cls)
			}
		}
		out.Set(i, 0, float64(nb.ClassList[best]))
	}
	return out, nil
}

// PredictProba returns normalised class posteriors.
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	ll, err := nb.logLikelihood(X)
	if err != nil {
		return nil, err
	}
	r, k := ll.Dims()
	probs := mat.NewDense(r, k, nil)
	for i := 0; i < r; i++ {
		maxL := math.Inf(-1)
		for cls := 0; cls < k; cls++ {
			maxL = math.Max(maxL, ll.At(i, cls))
		}
		sum := 0.0
		for cls := 0; cls < k; cls++ {
			e := math.Exp(ll.At(i, cls) - maxL)
			probs.Set(i, cls, e)
			sum += e
		}
		for cls := 0; cls < k; cls++ {
			probs.Set(i, cls, probs.At(i, cls)/sum)
		}
	}
	return probs, nil
}

// Classes returns the class labels seen during fitting.
func (nb *GaussianNB) Classes() []int {
	return nb.ClassList
}

func (nb *GaussianNB) logLikelihood(X mat.Matrix) (*mat.Dense, error) {
	if err := nb.State.RequireFitted("GaussianNB", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != nb.NFeatures_ {
		return nil, errors.NewDimensionError("GaussianNB.Predict", nb.NFeatures_, c, 1)
	}
	k := len(nb.ClassList)
	ll := mat.NewDense(r, k, nil)
	for i := 0; i < r; i++ {
		for cls := 0; cls < k; cls++ {
			sum := math.Log(nb.Priors[cls])
			for j := 0; j < c; j++ {
				variance := nb.Sigma.At(cls, j)
				diff := X.At(i, j) - nb.Theta.At(cls, j)
				sum += -0.5*math.Log(2*math.Pi*variance) - diff*diff/(2*variance)
			}
			ll.Set(i, cls, sum)
		}
	}
	return ll, nil
}
