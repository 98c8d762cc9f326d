package dataset

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/pkg/errors"
)

// Split holds the train/test partitions of a prepared dataset.
type Split struct {
	XTrain *mat.Dense
	XTest  *mat.Dense
	YTrain *mat.VecDense
	YTest  *mat.VecDense

	TrainIndices []int
	TestIndices  []int
}

// TrainTestSplit shuffles the row indices with the given seed and carves off
// testFraction of them as the test partition. The same seed always yields
// the same partition, which keeps benchmark runs reproducible.
func TrainTestSplit(X *mat.Dense, y *mat.VecDense, testFraction float64, seed int64) (*Split, error) {
	n, cols := X.Dims()
	if n == 0 || cols == 0 {
		return nil, errors.NewValueError("dataset.TrainTestSplit", "empty matrix")
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError("dataset.TrainTestSplit", n, y.Len(), 0)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, errors.NewConfigurationError("test_fraction", "must be strictly between 0 and 1", testFraction)
	}

	nTest := int(math.Round(float64(n) * testFraction))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	testIdx := append([]int(nil), perm[:nTest]...)
	trainIdx := append([]int(nil), perm[nTest:]...)

	split := &Split{
		XTrain:       mat.NewDense(len(trainIdx), cols, nil),
		XTest:        mat.NewDense(len(testIdx), cols, nil),
		YTrain:       mat.NewVecDense(len(trainIdx), nil),
		YTest:        mat.NewVecDense(len(testIdx), nil),
		TrainIndices: trainIdx,
		TestIndices:  testIdx,
	}
	for i, src := range trainIdx {
		for j := 0; j < cols; j++ {
			split.XTrain.Set(i, j, X.At(src, j))
		}
		split.YTrain.SetVec(i, y.AtVec(src))
	}
	for i, src := range testIdx {
		for j := 0; j < cols; j++ {
			split.XTest.Set(i, j, X.At(src, j))
		}
		split.YTest.SetVec(i, y.AtVec(src))
	}
	return split, nil
}
