package metrics

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/pkg/errors"
)

// CVFold is one train/test index pair produced by a splitter.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter produces cross-validation folds over n samples.
type Splitter interface {
	Split(X, y mat.Matrix) []CVFold
	NumSplits() int
}

// KFold splits samples into k consecutive folds after a seeded shuffle.
type KFold struct {
	NSplits int
	Seed    int64
}

// NewKFold creates a k-fold splitter. Fewer than two splits falls back to
// five.
func NewKFold(nSplits int, seed int64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Seed: seed}
}

// NumSplits returns the number of folds.
func (kf *KFold) NumSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold.
func (kf *KFold) Split(X, _ mat.Matrix) []CVFold {
	nSamples, _ := X.Dims()
	indices := rand.New(rand.NewSource(kf.Seed)).Perm(nSamples)
	return foldsFrom(indices, kf.NSplits)
}

// StratifiedKFold keeps the class distribution of y approximately equal
// across folds. Used for classification, where a plain shuffle can starve
// a fold of a minority class.
type StratifiedKFold struct {
	NSplits int
	Seed    int64
}

// NewStratifiedKFold creates a stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, seed int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{NSplits: nSplits, Seed: seed}
}

// NumSplits returns the number of folds.
func (skf *StratifiedKFold) NumSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) []CVFold {
	nSamples, _ := X.Dims()
	rng := rand.New(rand.NewSource(skf.Seed))

	// Group sample indices by class, shuffle within each class, then deal
	// them round-robin over the folds.
	byClass := make(map[int][]int)
	var classOrder []int
	for i := 0; i < nSamples; i++ {
		c := classOf(y.At(i, 0))
		if _, seen := byClass[c]; !seen {
			classOrder = append(classOrder, c)
		}
		byClass[c] = append(byClass[c], i)
	}
	sort.Ints(classOrder)

	testSets := make([][]int, skf.NSplits)
	for _, c := range classOrder {
		members := byClass[c]
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		for i, idx := range members {
			fold := i % skf.NSplits
			testSets[fold] = append(testSets[fold], idx)
		}
	}

	folds := make([]CVFold, skf.NSplits)
	for f := 0; f < skf.NSplits; f++ {
		inTest := make(map[int]struct{}, len(testSets[f]))
		for _, idx := range testSets[f] {
			inTest[idx] = struct{}{}
		}
		var train []int
		for i := 0; i < nSamples; i++ {
			if _, ok := inTest[i]; !ok {
				train = append(train, i)
			}
		}
		folds[f] = CVFold{TrainIndices: train, TestIndices: testSets[f]}
	}
	return folds
}

func foldsFrom(indices []int, nSplits int) []CVFold {
	nSamples := len(indices)
	foldSize := nSamples / nSplits
	remainder := nSamples % nSplits

	folds := make([]CVFold, nSplits)
	start := 0
	for f := 0; f < nSplits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}
		test := append([]int(nil), indices[start:start+size]...)
		train := make([]int, 0, nSamples-size)
		train = append(train, indices[:start]...)
		train = append(train, indices[start+size:]...)
		folds[f] = CVFold{TrainIndices: train, TestIndices: test}
		start += size
	}
	return folds
}

// CVStats summarises per-fold validation scores.
type CVStats struct {
	Scores   []float64 `json:"scores"`
	Mean     float64   `json:"mean"`
	Std      float64   `json:"std"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Variance float64   `json:"variance"`
	Folds    int       `json:"folds"`
}

// Scorer maps true and predicted targets to a single score.
type Scorer func(yTrue, yPred *mat.VecDense) (float64, error)

// CrossValidate trains a fresh estimator per fold and scores it on the
// held-out portion. The factory must return an unfitted estimator; reusing
// a fitted one would leak state between folds.
func CrossValidate(factory func() model.Estimator, X *mat.Dense, y *mat.VecDense, splitter Splitter, score Scorer) (*CVStats, error) {
	n, cols := X.Dims()
	if n == 0 {
		return nil, errors.NewValueError("CrossValidate", "empty matrix")
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError("CrossValidate", n, y.Len(), 0)
	}

	yMat := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		yMat.Set(i, 0, y.AtVec(i))
	}

	folds := splitter.Split(X, yMat)
	scores := make([]float64, 0, len(folds))
	for _, fold := range folds {
		if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
			continue
		}
		XTrain := takeRows(X, fold.TrainIndices, cols)
		XTest := takeRows(X, fold.TestIndices, cols)
		yTrain := takeVec(y, fold.TrainIndices)
		yTest := takeVec(y, fold.TestIndices)

		est := factory()
		yTrainMat := mat.NewDense(yTrain.Len(), 1, nil)
		for i := 0; i < yTrain.Len(); i++ {
			yTrainMat.Set(i, 0, yTrain.AtVec(i))
		}
		if err := est.Fit(XTrain, yTrainMat); err != nil {
			return nil, errors.Wrap(err, "CrossValidate: fold fit")
		}
		pred, err := est.Predict(XTest)
		if err != nil {
			return nil, errors.Wrap(err, "CrossValidate: fold predict")
		}
		predVec := columnVec(pred)
		s, err := score(yTest, predVec)
		if err != nil {
			return nil, errors.Wrap(err, "CrossValidate: fold score")
		}
		scores = append(scores, s)
	}
	if len(scores) == 0 {
		return nil, errors.NewValueError("CrossValidate", "no usable folds")
	}

	stats := &CVStats{
		Scores: scores,
		Mean:   stat.Mean(scores, nil),
		Folds:  len(scores),
		Min:    math.Inf(1),
		Max:    math.Inf(-1),
	}
	stats.Variance = stat.Variance(scores, nil)
	if len(scores) < 2 {
		stats.Variance = 0
	}
	stats.Std = math.Sqrt(stats.Variance)
	for _, s := range scores {
		stats.Min = math.Min(stats.Min, s)
		stats.Max = math.Max(stats.Max, s)
	}
	return stats, nil
}

func takeRows(X *mat.Dense, indices []int, cols int) *mat.Dense {
	out := mat.NewDense(len(indices), cols, nil)
	for i, src := range indices {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(src, j))
		}
	}
	return out
}

func takeVec(y *mat.VecDense, indices []int) *mat.VecDense {
	out := mat.NewVecDense(len(indices), nil)
	for i, src := range indices {
		out.SetVec(i, y.AtVec(src))
	}
	return out
}

func columnVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
