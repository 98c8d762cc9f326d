package classifier

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// NearestCentroid assigns each sample to the class whose training centroid
// is closest in euclidean distance. A deliberately simple baseline for the
// catalog.
type NearestCentroid struct {
	State *model.StateManager

	// Centroids is n_classes x n_features.
	Centroids  *mat.Dense
	ClassList  []int
	NFeatures_ int
}

// NewNearestCentroid creates an unfitted NearestCentroid.
func NewNearestCentroid() *NearestCentroid {
	return &NearestCentroid{State: model.NewStateManager()}
}

// Fit computes the per-class centroids.
func (nc *NearestCentroid) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "NearestCentroid.Fit")
	}
	if ry != r {
		return errors.NewDimensionError("NearestCentroid.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("NearestCentroid.Fit", "y must be a column vector")
	}

	labels, classes, err := encodedClasses(y, r)
	if err != nil {
		return errors.Wrap(err, "NearestCentroid.Fit")
	}
	k := len(classes)

	nc.ClassList = classes
	nc.NFeatures_ = c
	nc.Centroids = mat.NewDense(k, c, nil)

	counts := make([]int, k)
	for i := 0; i < r; i++ {
		cls := labels[i]
		counts[cls]++
		for j := 0; j < c; j++ {
			nc.Centroids.Set(cls, j, nc.Centroids.At(cls, j)+X.At(i, j))
		}
	}
	for cls := 0; cls < k; cls++ {
		if counts[cls] == 0 {
			return errors.Newf("NearestCentroid.Fit: class %d has no samples", cls)
		}
		for j := 0; j < c; j++ {
			nc.Centroids.Set(cls, j, nc.Centroids.At(cls, j)/float64(counts[cls]))
		}
	}

	nc.State.SetDimensions(c, r)
	nc.State.SetFitted()
	return nil
}

// Predict returns the class of the closest centroid per row.
func (nc *NearestCentroid) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := nc.State.RequireFitted("NearestCentroid", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != nc.NFeatures_ {
		return nil, errors.NewDimensionError("NearestCentroid.Predict", nc.NFeatures_, c, 1)
	}
	k := len(nc.ClassList)
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestD := 0, math.Inf(1)
		for cls := 0; cls < k; cls++ {
			d := 0.0
			for j := 0; j < c; j++ {
				diff := X.At(i, j) - nc.Centroids.At(cls, j)
				d += diff * diff
			}
			if d < bestD {
				best, bestD = cls, d
			}
		}
		out.Set(i, 0, float64(nc.ClassList[best]))
	}
	return out, nil
}

// Classes returns the class labels seen during fitting.
func (nc *NearestCentroid) Classes() []int {
	return nc.ClassList
}
