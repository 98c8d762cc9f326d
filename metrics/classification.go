package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/pkg/errors"
)

// Accuracy computes the fraction of exactly matching predictions. Labels
// are compared as rounded integers, matching the encoded class range.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if classOf(yTrue.AtVec(i)) == classOf(yPred.AtVec(i)) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix counts (actual, predicted) pairs over the encoded class
// range 0..nClasses-1. Rows index actual classes, columns predicted.
func ConfusionMatrix(yTrue, yPred *mat.VecDense, nClasses int) ([][]int, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}
	if nClasses < 2 {
		return nil, errors.NewValueError("ConfusionMatrix", "need at least two classes")
	}

	counts := make([][]int, nClasses)
	for i := range counts {
		counts[i] = make([]int, nClasses)
	}
	for i := 0; i < n; i++ {
		actual := classOf(yTrue.AtVec(i))
		predicted := classOf(yPred.AtVec(i))
		if actual < 0 || actual >= nClasses || predicted < 0 || predicted >= nClasses {
			return nil, errors.Newf("ConfusionMatrix: label out of range at row %d", i)
		}
		counts[actual][predicted]++
	}
	return counts, nil
}

// PrecisionWeighted computes precision averaged over classes, weighted by
// class support. Classes with no predicted samples contribute zero.
func PrecisionWeighted(yTrue, yPred *mat.VecDense, nClasses int) (float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, nClasses)
	if err != nil {
		return 0, err
	}
	return weightedAverage(cm, func(c int) float64 {
		var predicted int
		for a := 0; a < len(cm); a++ {
			predicted += cm[a][c]
		}
		if predicted == 0 {
			return 0
		}
		return float64(cm[c][c]) / float64(predicted)
	}), nil
}

// RecallWeighted computes recall averaged over classes, weighted by class
// support. Classes with no actual samples contribute zero.
func RecallWeighted(yTrue, yPred *mat.VecDense, nClasses int) (float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, nClasses)
	if err != nil {
		return 0, err
	}
	return weightedAverage(cm, func(c int) float64 {
		var actual int
		for p := 0; p < len(cm); p++ {
			actual += cm[c][p]
		}
		if actual == 0 {
			return 0
		}
		return float64(cm[c][c]) / float64(actual)
	}), nil
}

// F1Weighted computes the harmonic mean of precision and recall per class,
// averaged with class-support weights.
func F1Weighted(yTrue, yPred *mat.VecDense, nClasses int) (float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, nClasses)
	if err != nil {
		return 0, err
	}
	return weightedAverage(cm, func(c int) float64 {
		var predicted, actual int
		for i := 0; i < len(cm); i++ {
			predicted += cm[i][c]
			actual += cm[c][i]
		}
		if predicted == 0 || actual == 0 {
			return 0
		}
		precision := float64(cm[c][c]) / float64(predicted)
		recall := float64(cm[c][c]) / float64(actual)
		if precision+recall == 0 {
			return 0
		}
		return 2 * precision * recall / (precision + recall)
	}), nil
}

// weightedAverage averages a per-class score weighted by the class support
// (row sums of the confusion matrix).
func weightedAverage(cm [][]int, score func(class int) float64) float64 {
	total := 0
	weighted := 0.0
	for c := 0; c < len(cm); c++ {
		support := 0
		for p := 0; p < len(cm); p++ {
			support += cm[c][p]
		}
		total += support
		weighted += float64(support) * score(c)
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total)
}

func classOf(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
