// Package evaluate re-derives detailed quality information for individual
// models of a persisted benchmark run: full metric sets, cross-validation
// distributions, prediction breakdowns and a fit assessment.
package evaluate

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/bench"
	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/metrics"
	"github.com/modelbench/modelbench/pkg/errors"
	"github.com/modelbench/modelbench/registry"
)

// Fit assessment verdicts, decided from the cross-validation distribution.
const (
	VerdictStable       = "stable"
	VerdictOverfitting  = "possible_overfitting"
	VerdictUnderfitting = "possible_underfitting"
	VerdictInconclusive = "inconclusive"
)

// Thresholds for the fit assessment.
const (
	overfitStdThreshold   = 0.1
	stableStdThreshold    = 0.03
	underfitMeanThreshold = 0.6
)

// PredictedActual pairs one test observation with its prediction.
type PredictedActual struct {
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// FitAssessment is the variance-based verdict on a model's fit.
type FitAssessment struct {
	Verdict string   `json:"verdict"`
	Notes   []string `json:"notes,omitempty"`
}

// DetailedEvaluation is the full picture for one model of a run.
type DetailedEvaluation struct {
	RunID       string             `json:"run_id"`
	ModelName   string             `json:"model_name"`
	ProblemType bench.ProblemType  `json:"problem_type"`
	Metrics     map[string]float64 `json:"metrics"`
	CV          *metrics.CVStats   `json:"cross_validation"`
	Assessment  FitAssessment      `json:"assessment"`

	// Predictions is populated for regression runs.
	Predictions []PredictedActual `json:"predictions,omitempty"`

	// Confusion and ClassLabels are populated for classification runs.
	// Confusion rows are actual classes, columns predicted.
	Confusion   [][]int  `json:"confusion,omitempty"`
	ClassLabels []string `json:"class_labels,omitempty"`
}

// ComparisonRow is one model's line in a side-by-side comparison.
type ComparisonRow struct {
	ModelName string             `json:"model_name"`
	Status    bench.ModelStatus  `json:"status"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Comparison is an aligned metric table over a subset of a run's models,
// best first by the run's primary metric.
type Comparison struct {
	RunID  string          `json:"run_id"`
	Metric string          `json:"metric"`
	Rows   []ComparisonRow `json:"rows"`
}

// Evaluator re-derives evaluations from persisted runs. The catalog
// supplies fresh estimators for cross-validation; seed and fold count
// mirror the orchestrator's so re-derived statistics are reproducible.
type Evaluator struct {
	Catalog *bench.Catalog
	Seed    int64
	CVFolds int
}

// NewEvaluator creates an Evaluator over the given catalog, defaulting to
// the built-in one.
func NewEvaluator(catalog *bench.Catalog) *Evaluator {
	if catalog == nil {
		catalog = bench.DefaultCatalog()
	}
	return &Evaluator{Catalog: catalog, Seed: bench.DefaultSeed, CVFolds: bench.DefaultCVFolds}
}

// Detail evaluates one model of a run in depth. The run is read but never
// mutated: a payload decode performed here stays local. Models without a
// usable trained object yield an UnavailableModelError.
func (e *Evaluator) Detail(run *bench.BenchmarkRun, modelName string) (*DetailedEvaluation, error) {
	res, err := run.Result(modelName)
	if err != nil {
		return nil, err
	}
	if res.Status == bench.StatusFailed {
		return nil, errors.NewUnavailableModelError(run.RunID, modelName, "model failed during the benchmark: "+res.ErrorMessage)
	}
	est, err := trainedObject(run, res)
	if err != nil {
		return nil, err
	}
	if run.Data == nil {
		return nil, errors.NewUnavailableModelError(run.RunID, modelName, "run carries no evaluation data")
	}

	xTrain := rowsToDense(run.Data.TrainFeatures)
	yTrain := sliceToVec(run.Data.TrainTarget)
	xTest := rowsToDense(run.Data.TestFeatures)
	yTest := sliceToVec(run.Data.TestTarget)

	pred, err := est.Predict(xTest)
	if err != nil {
		return nil, errors.Wrap(err, "evaluate.Detail")
	}
	yPred := predictionVec(pred)

	cv, err := e.crossValidate(run, modelName, xTrain, yTrain)
	if err != nil {
		return nil, err
	}

	out := &DetailedEvaluation{
		RunID:       run.RunID,
		ModelName:   modelName,
		ProblemType: run.ProblemType,
		Metrics:     res.Metrics,
		CV:          cv,
		Assessment:  assessFit(cv),
	}

	if run.ProblemType == bench.Classification {
		cm, err := metrics.ConfusionMatrix(yTest, yPred, len(run.ClassLabels))
		if err != nil {
			return nil, err
		}
		out.Confusion = cm
		out.ClassLabels = run.ClassLabels
	} else {
		out.Predictions = make([]PredictedActual, yTest.Len())
		for i := 0; i < yTest.Len(); i++ {
			out.Predictions[i] = PredictedActual{Actual: yTest.AtVec(i), Predicted: yPred.AtVec(i)}
		}
	}
	return out, nil
}

// Compare builds an aligned metric table for the named models, ordered
// best-first by the run's primary metric. Failed models sink to the
// bottom with empty metrics. Unknown names are an error.
func (e *Evaluator) Compare(run *bench.BenchmarkRun, names []string) (*Comparison, error) {
	if len(names) == 0 {
		return nil, errors.NewValueError("evaluate.Compare", "at least one model name is required")
	}
	rows := make([]ComparisonRow, 0, len(names))
	for _, name := range names {
		res, err := run.Result(name)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ComparisonRow{ModelName: res.ModelName, Status: res.Status, Metrics: res.Metrics})
	}
	primary := bench.PrimaryMetric(run.ProblemType)
	lower := bench.LowerIsBetter(primary)
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Status != rows[b].Status {
			return rows[a].Status == bench.StatusSuccess
		}
		va, vb := rows[a].Metrics[primary], rows[b].Metrics[primary]
		if lower {
			return va < vb
		}
		return va > vb
	})
	return &Comparison{RunID: run.RunID, Metric: primary, Rows: rows}, nil
}

// crossValidate re-runs cross-validation for the named model over the
// run's training partition with the run's seed policy.
func (e *Evaluator) crossValidate(run *bench.BenchmarkRun, modelName string, xTrain *mat.Dense, yTrain *mat.VecDense) (*metrics.CVStats, error) {
	var spec *bench.ModelSpec
	for _, ms := range e.Catalog.Models(run.ProblemType) {
		if ms.Name == modelName {
			s := ms
			spec = &s
			break
		}
	}
	if spec == nil {
		return nil, errors.NewNotFoundError("catalog entry", modelName, run.RunID)
	}

	var splitter metrics.Splitter
	var scorer metrics.Scorer
	if run.ProblemType == bench.Classification {
		splitter = metrics.NewStratifiedKFold(e.CVFolds, e.Seed)
		scorer = metrics.Accuracy
	} else {
		splitter = metrics.NewKFold(e.CVFolds, e.Seed)
		scorer = metrics.R2Score
	}
	return metrics.CrossValidate(spec.New, xTrain, yTrain, splitter, scorer)
}

// trainedObject returns the result's model, decoding the stored payload
// if the in-memory object is absent. The result itself is not modified.
func trainedObject(run *bench.BenchmarkRun, res *bench.ModelResult) (model.Estimator, error) {
	if res.Trained != nil {
		return res.Trained, nil
	}
	if res.Serialized == nil || !res.HasObject {
		return nil, errors.NewUnavailableModelError(run.RunID, res.ModelName, "no trained object was stored for this model")
	}
	if !res.Serialized.Decodable {
		return nil, errors.NewUnavailableModelError(run.RunID, res.ModelName, "stored object cannot be decoded: "+res.DecodeNote)
	}
	est, err := registry.Decode(res.Serialized.Payload)
	if err != nil {
		return nil, errors.NewUnavailableModelError(run.RunID, res.ModelName, "stored object cannot be decoded: "+err.Error())
	}
	return est, nil
}

// assessFit turns the cross-validation distribution into a verdict using
// the score spread and its mean.
func assessFit(cv *metrics.CVStats) FitAssessment {
	var notes []string
	verdict := VerdictInconclusive

	switch {
	case cv.Std > overfitStdThreshold:
		verdict = VerdictOverfitting
		notes = append(notes, "fold scores vary widely; the model may be fitting noise in parts of the data")
	case cv.Std < stableStdThreshold:
		verdict = VerdictStable
		notes = append(notes, "fold scores are consistent across partitions")
	}
	if cv.Mean < underfitMeanThreshold {
		verdict = VerdictUnderfitting
		notes = append(notes, "mean cross-validation score is low; the model may be too simple for the problem")
	}
	return FitAssessment{Verdict: verdict, Notes: notes}
}

func rowsToDense(rows [][]float64) *mat.Dense {
	r := len(rows)
	if r == 0 {
		return mat.NewDense(0, 0, nil)
	}
	c := len(rows[0])
	m := mat.NewDense(r, c, nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}

func sliceToVec(vals []float64) *mat.VecDense {
	data := make([]float64, len(vals))
	copy(data, vals)
	return mat.NewVecDense(len(data), data)
}

func predictionVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
