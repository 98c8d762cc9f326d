// Package neighbors implements brute-force k-nearest-neighbour estimators
// for both problem types. Training memorises the data; prediction scans it.
package neighbors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// KNNClassifier predicts the majority class among the k nearest training
// samples. Ties break toward the smaller class index.
type KNNClassifier struct {
	State      *model.StateManager
	K          int
	XTrain     *mat.Dense
	YTrain     []int
	ClassList  []int
	NFeatures_ int
}

// NewKNNClassifier creates an unfitted KNNClassifier. Non-positive k falls
// back to 5.
func NewKNNClassifier(k int) *KNNClassifier {
	if k <= 0 {
		k = 5
	}
	return &KNNClassifier{State: model.NewStateManager(), K: k}
}

// Fit memorises the training data.
func (knn *KNNClassifier) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "KNNClassifier.Fit")
	}
	if ry != r {
		return errors.NewDimensionError("KNNClassifier.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("KNNClassifier.Fit", "y must be a column vector")
	}
	if knn.K > r {
		return errors.Newf("KNNClassifier.Fit: k=%d larger than sample count %d", knn.K, r)
	}

	knn.XTrain = mat.DenseCopyOf(X)
	knn.YTrain = make([]int, r)
	maxClass := 0
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		cls := int(v + 0.5)
		if v < 0 || math.Abs(v-float64(cls)) > 1e-9 {
			return errors.Newf("KNNClassifier.Fit: target is not an encoded class index at row %d: %v", i, v)
		}
		knn.YTrain[i] = cls
		if cls > maxClass {
			maxClass = cls
		}
	}
	knn.ClassList = make([]int, maxClass+1)
	for i := range knn.ClassList {
		knn.ClassList[i] = i
	}
	knn.NFeatures_ = c
	knn.State.SetDimensions(c, r)
	knn.State.SetFitted()
	return nil
}

// Predict returns the majority class among the k nearest neighbours.
func (knn *KNNClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := knn.State.RequireFitted("KNNClassifier", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != knn.NFeatures_ {
		return nil, errors.NewDimensionError("KNNClassifier.Predict", knn.NFeatures_, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		nearest := nearestIndices(knn.XTrain, X, i, knn.K)
		votes := make(map[int]int)
		for _, idx := range nearest {
			votes[knn.YTrain[idx]]++
		}
		best, bestVotes := 0, -1
		for cls := 0; cls < len(knn.ClassList); cls++ {
			if votes[cls] > bestVotes {
				best, bestVotes = cls, votes[cls]
			}
		}
		out.Set(i, 0, float64(best))
	}
	return out, nil
}

// Classes returns the class labels seen during fitting.
func (knn *KNNClassifier) Classes() []int {
	return knn.ClassList
}

// KNNRegressor predicts the mean target of the k nearest training samples.
type KNNRegressor struct {
	State      *model.StateManager
	K          int
	XTrain     *mat.Dense
	YTrain     []float64
	NFeatures_ int
}

// NewKNNRegressor creates an unfitted KNNRegressor. Non-positive k falls
// back to 5.
func NewKNNRegressor(k int) *KNNRegressor {
	if k <= 0 {
		k = 5
	}
	return &KNNRegressor{State: model.NewStateManager(), K: k}
}

// Fit memorises the training data.
func (knn *KNNRegressor) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "KNNRegressor.Fit")
	}
	if ry != r {
		return errors.NewDimensionError("KNNRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("KNNRegressor.Fit", "y must be a column vector")
	}
	if knn.K > r {
		return errors.Newf("KNNRegressor.Fit: k=%d larger than sample count %d", knn.K, r)
	}

	knn.XTrain = mat.DenseCopyOf(X)
	knn.YTrain = make([]float64, r)
	for i := 0; i < r; i++ {
		knn.YTrain[i] = y.At(i, 0)
	}
	knn.NFeatures_ = c
	knn.State.SetDimensions(c, r)
	knn.State.SetFitted()
	return nil
}

// Predict returns the mean neighbour target per row.
func (knn *KNNRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := knn.State.RequireFitted("KNNRegressor", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != knn.NFeatures_ {
		return nil, errors.NewDimensionError("KNNRegressor.Predict", knn.NFeatures_, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		nearest := nearestIndices(knn.XTrain, X, i, knn.K)
		sum := 0.0
		for _, idx := range nearest {
			sum += knn.YTrain[idx]
		}
		out.Set(i, 0, sum/float64(len(nearest)))
	}
	return out, nil
}

// nearestIndices returns the indices of the k training rows closest to row
// `row` of X, by squared euclidean distance. Ties break toward the lower
// training index, keeping predictions deterministic.
func nearestIndices(train *mat.Dense, X mat.Matrix, row, k int) []int {
	n, c := train.Dims()
	type distIdx struct {
		dist float64
		idx  int
	}
	dists := make([]distIdx, n)
	for t := 0; t < n; t++ {
		d := 0.0
		for j := 0; j < c; j++ {
			diff := X.At(row, j) - train.At(t, j)
			d += diff * diff
		}
		dists[t] = distIdx{dist: d, idx: t}
	}
	sort.Slice(dists, func(a, b int) bool {
		if dists[a].dist == dists[b].dist {
			return dists[a].idx < dists[b].idx
		}
		return dists[a].dist < dists[b].dist
	})
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = dists[i].idx
	}
	return out
}
