package classifier

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// DecisionStump is a one-level decision tree: it picks the single
// feature/threshold split that minimises weighted Gini impurity and
// predicts the majority class on each side. A weak but fast baseline.
type DecisionStump struct {
	State *model.StateManager

	Feature    int
	Threshold  float64
	LeftClass  int
	RightClass int
	ClassList  []int
	NFeatures_ int
}

// NewDecisionStump creates an unfitted DecisionStump.
func NewDecisionStump() *DecisionStump {
	return &DecisionStump{State: model.NewStateManager()}
}

// Fit searches every feature and every midpoint between consecutive
// distinct values for the split with the lowest Gini impurity.
func (ds *DecisionStump) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "DecisionStump.Fit")
	}
	if ry != r {
		return errors.NewDimensionError("DecisionStump.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("DecisionStump.Fit", "y must be a column vector")
	}

	labels, classes, err := encodedClasses(y, r)
	if err != nil {
		return errors.Wrap(err, "DecisionStump.Fit")
	}
	k := len(classes)

	type pair struct {
		v   float64
		cls int
	}

	bestImpurity := math.Inf(1)
	bestFeature, bestLeft, bestRight := 0, 0, 0
	bestThreshold := 0.0
	found := false

	for j := 0; j < c; j++ {
		pairs := make([]pair, r)
		for i := 0; i < r; i++ {
			pairs[i] = pair{X.At(i, j), labels[i]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		// Left counts grow as the threshold sweeps right.
		left := make([]int, k)
		right := make([]int, k)
		for i := 0; i < r; i++ {
			right[pairs[i].cls]++
		}
		for i := 0; i < r-1; i++ {
			left[pairs[i].cls]++
			right[pairs[i].cls]--
			if pairs[i].v == pairs[i+1].v {
				continue
			}
			nl, nr := i+1, r-i-1
			imp := float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)
			if imp < bestImpurity {
				bestImpurity = imp
				bestFeature = j
				bestThreshold = (pairs[i].v + pairs[i+1].v) / 2
				bestLeft = argmaxCount(left)
				bestRight = argmaxCount(right)
				found = true
			}
		}
	}

	if !found {
		// Every feature is constant; fall back to the majority class.
		counts := make([]int, k)
		for _, cls := range labels {
			counts[cls]++
		}
		maj := argmaxCount(counts)
		bestFeature, bestThreshold = 0, math.Inf(1)
		bestLeft, bestRight = maj, maj
	}

	ds.Feature = bestFeature
	ds.Threshold = bestThreshold
	ds.LeftClass = bestLeft
	ds.RightClass = bestRight
	ds.ClassList = classes
	ds.NFeatures_ = c
	ds.State.SetDimensions(c, r)
	ds.State.SetFitted()
	return nil
}

// Predict routes each sample through the single split.
func (ds *DecisionStump) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := ds.State.RequireFitted("DecisionStump", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != ds.NFeatures_ {
		return nil, errors.NewDimensionError("DecisionStump.Predict", ds.NFeatures_, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		cls := ds.RightClass
		if X.At(i, ds.Feature) <= ds.Threshold {
			cls = ds.LeftClass
		}
		out.Set(i, 0, float64(ds.ClassList[cls]))
	}
	return out, nil
}

// Classes returns the class labels seen during fitting.
func (ds *DecisionStump) Classes() []int {
	return ds.ClassList
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func argmaxCount(counts []int) int {
	best, bestC := 0, -1
	for i, c := range counts {
		if c > bestC {
			best, bestC = i, c
		}
	}
	return best
}
