package bench

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/dataset"
	"github.com/modelbench/modelbench/internal/audit"
	"github.com/modelbench/modelbench/metrics"
	"github.com/modelbench/modelbench/pkg/errors"
	"github.com/modelbench/modelbench/pkg/log"
	"github.com/modelbench/modelbench/preprocessing"
)

// Defaults applied when the caller leaves a knob unset.
const (
	DefaultTestFraction = 0.2
	DefaultSeed         = 42
	DefaultCVFolds      = 5

	// classificationDistinctMax and classificationUniqueRatio drive
	// problem-type inference for numeric targets.
	classificationDistinctMax = 10
	classificationUniqueRatio = 0.05
)

// Orchestrator runs the full benchmark: one dataset, one problem spec,
// every catalog candidate trained and scored under a per-model failure
// boundary. A single Orchestrator is safe for sequential reuse across
// runs; each Run produces an independent BenchmarkRun.
type Orchestrator struct {
	Catalog *Catalog
	Sink    audit.Sink
	Seed    int64
	CVFolds int

	logger zerolog.Logger
}

// NewOrchestrator creates an Orchestrator with the default catalog, seed
// and fold count. A nil sink falls back to the structured log sink.
func NewOrchestrator(catalog *Catalog, sink audit.Sink) *Orchestrator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	logger := log.With("bench")
	if sink == nil {
		sink = audit.NewLogSink(log.With("audit"))
	}
	return &Orchestrator{
		Catalog: catalog,
		Sink:    sink,
		Seed:    DefaultSeed,
		CVFolds: DefaultCVFolds,
		logger:  logger,
	}
}

// InferProblemType decides classification vs regression from the target
// column: categorical targets are always classification; numeric targets
// are classification when they have fewer than ten distinct values or a
// distinct-to-row ratio under five percent; everything else is regression.
func InferProblemType(ds *dataset.Dataset, target string) (ProblemType, error) {
	col, ok := ds.Column(target)
	if !ok {
		return "", errors.NewNotFoundError("column", target, "")
	}
	switch col.Type {
	case dataset.Categorical:
		return Classification, nil
	case dataset.Temporal:
		return "", errors.NewConfigurationError("target_column", "temporal columns cannot be a prediction target", target)
	}
	distinct, err := ds.DistinctCount(target)
	if err != nil {
		return "", err
	}
	n := ds.NumRows()
	if distinct < classificationDistinctMax || float64(distinct)/float64(n) < classificationUniqueRatio {
		return Classification, nil
	}
	return Regression, nil
}

// Run trains and scores every catalog candidate for the given problem and
// returns the completed, immutable run record. Data preparation failures
// abort the whole run; individual model failures do not. The returned
// run always carries one ModelResult per catalog entry, in catalog order.
func (o *Orchestrator) Run(ctx context.Context, ds *dataset.Dataset, spec ProblemSpec, userID string) (*BenchmarkRun, error) {
	if ds == nil || ds.NumRows() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "bench.Run")
	}
	if spec.TestFraction == 0 {
		spec.TestFraction = DefaultTestFraction
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	pt := spec.ProblemType
	if pt == "" {
		inferred, err := InferProblemType(ds, spec.TargetColumn)
		if err != nil {
			return nil, err
		}
		pt = inferred
	}

	X, featNames, err := ds.FeatureMatrix(spec.PredictorColumns)
	if err != nil {
		return nil, err
	}
	y, classLabels, err := prepareTarget(ds, spec.TargetColumn, pt)
	if err != nil {
		return nil, err
	}

	split, err := dataset.TrainTestSplit(X, y, spec.TestFraction, o.Seed)
	if err != nil {
		return nil, err
	}

	// Scale on train statistics only so the test partition stays unseen.
	scaler := preprocessing.NewStandardScaler()
	if err := scaler.Fit(split.XTrain); err != nil {
		return nil, err
	}
	xTrain, err := scaler.Transform(split.XTrain)
	if err != nil {
		return nil, err
	}
	xTest, err := scaler.Transform(split.XTest)
	if err != nil {
		return nil, err
	}

	run := &BenchmarkRun{
		RunID:        uuid.NewString(),
		UserID:       userID,
		Spec:         spec,
		ProblemType:  pt,
		CreatedAt:    time.Now().UTC(),
		ClassLabels:  classLabels,
		FeatureNames: featNames,
		Data: &RunData{
			TrainFeatures: matrixRows(xTrain),
			TrainTarget:   vectorValues(split.YTrain),
			TestFeatures:  matrixRows(xTest),
			TestTarget:    vectorValues(split.YTest),
		},
	}

	specs := o.Catalog.Models(pt)
	run.Results = make([]ModelResult, 0, len(specs))
	for _, ms := range specs {
		res := o.trainOne(run.RunID, ms, pt, xTrain, split.YTrain, xTest, split.YTest, len(classLabels), featNames)
		if res.Status == StatusFailed {
			run.FailedCount++
			o.recordAudit(ctx, audit.Event{
				Actor:    userID,
				Action:   audit.ActionModelFailed,
				Entity:   "model",
				EntityID: ms.Name,
				Detail:   res.ErrorMessage,
				At:       time.Now().UTC(),
			})
		} else {
			run.SuccessfulCount++
		}
		run.Results = append(run.Results, res)
	}

	if ranked := RankSuccessful(run, PrimaryMetric(pt)); len(ranked) > 0 {
		run.BestModelName = ranked[0].ModelName
	}

	o.recordAudit(ctx, audit.Event{
		Actor:    userID,
		Action:   audit.ActionBenchmarkCompleted,
		Entity:   "run",
		EntityID: run.RunID,
		Detail:   fmt.Sprintf("%d succeeded, %d failed", run.SuccessfulCount, run.FailedCount),
		At:       time.Now().UTC(),
	})
	o.logger.Info().
		Str("run_id", run.RunID).
		Str("problem_type", string(pt)).
		Int("succeeded", run.SuccessfulCount).
		Int("failed", run.FailedCount).
		Str("best", run.BestModelName).
		Msg("benchmark run completed")

	return run, nil
}

// trainOne drives one candidate through construct, fit, predict and
// metrics. Every stage runs inside a recovery boundary so a panic in one
// model cannot poison the rest of the run.
func (o *Orchestrator) trainOne(runID string, ms ModelSpec, pt ProblemType, xTrain *mat.Dense, yTrain *mat.VecDense, xTest *mat.Dense, yTest *mat.VecDense, nClasses int, featNames []string) ModelResult {
	res := ModelResult{
		ModelName:          ms.Name,
		Status:             StatusFailed,
		FittedFeatureNames: featNames,
	}
	start := time.Now()

	var est model.Estimator
	if err := errors.SafeExecute(ms.Name+".construct", func() error {
		est = ms.New()
		if est == nil {
			return errors.NewValueError(ms.Name, "constructor returned nil")
		}
		return nil
	}); err != nil {
		return o.failResult(res, runID, ms.Name, "construct", err)
	}

	if err := errors.SafeExecute(ms.Name+".fit", func() error {
		return est.Fit(xTrain, yTrain)
	}); err != nil {
		return o.failResult(res, runID, ms.Name, "fit", err)
	}

	var yPred *mat.VecDense
	if err := errors.SafeExecute(ms.Name+".predict", func() error {
		pred, err := est.Predict(xTest)
		if err != nil {
			return err
		}
		yPred = predictionVec(pred)
		return nil
	}); err != nil {
		return o.failResult(res, runID, ms.Name, "predict", err)
	}

	var scores map[string]float64
	if err := errors.SafeExecute(ms.Name+".metrics", func() error {
		var err error
		scores, err = o.scoreModel(ms, pt, xTrain, yTrain, yTest, yPred, nClasses)
		return err
	}); err != nil {
		return o.failResult(res, runID, ms.Name, "metrics", err)
	}

	res.Status = StatusSuccess
	res.Metrics = scores
	res.Trained = est
	res.TrainingDuration = time.Since(start)
	o.logger.Debug().
		Str("run_id", runID).
		Str("model", ms.Name).
		Dur("duration", res.TrainingDuration).
		Msg("model trained")
	return res
}

// scoreModel computes the hold-out metric set plus cross-validation
// statistics over the training partition.
func (o *Orchestrator) scoreModel(ms ModelSpec, pt ProblemType, xTrain *mat.Dense, yTrain *mat.VecDense, yTest, yPred *mat.VecDense, nClasses int) (map[string]float64, error) {
	scores := make(map[string]float64)

	var splitter metrics.Splitter
	var scorer metrics.Scorer

	if pt == Classification {
		acc, err := metrics.Accuracy(yTest, yPred)
		if err != nil {
			return nil, err
		}
		prec, err := metrics.PrecisionWeighted(yTest, yPred, nClasses)
		if err != nil {
			return nil, err
		}
		rec, err := metrics.RecallWeighted(yTest, yPred, nClasses)
		if err != nil {
			return nil, err
		}
		f1, err := metrics.F1Weighted(yTest, yPred, nClasses)
		if err != nil {
			return nil, err
		}
		scores[MetricAccuracy] = acc
		scores[MetricPrecision] = prec
		scores[MetricRecall] = rec
		scores[MetricF1] = f1
		splitter = metrics.NewStratifiedKFold(o.CVFolds, o.Seed)
		scorer = metrics.Accuracy
	} else {
		r2, err := metrics.R2Score(yTest, yPred)
		if err != nil {
			return nil, err
		}
		mse, err := metrics.MSE(yTest, yPred)
		if err != nil {
			return nil, err
		}
		rmse, err := metrics.RMSE(yTest, yPred)
		if err != nil {
			return nil, err
		}
		mae, err := metrics.MAE(yTest, yPred)
		if err != nil {
			return nil, err
		}
		scores[MetricR2] = r2
		scores[MetricMSE] = mse
		scores[MetricRMSE] = rmse
		scores[MetricMAE] = mae
		splitter = metrics.NewKFold(o.CVFolds, o.Seed)
		scorer = metrics.R2Score
	}

	cv, err := metrics.CrossValidate(ms.New, xTrain, yTrain, splitter, scorer)
	if err != nil {
		return nil, err
	}
	scores[MetricCVMean] = cv.Mean
	scores[MetricCVStd] = cv.Std
	return scores, nil
}

func (o *Orchestrator) failResult(res ModelResult, runID, name, stage string, cause error) ModelResult {
	err := errors.NewTrainingError(runID, name, stage, cause)
	res.ErrorMessage = err.Error()
	o.logger.Warn().
		Str("run_id", runID).
		Str("model", name).
		Str("stage", stage).
		Err(cause).
		Msg("model failed")
	return res
}

func (o *Orchestrator) recordAudit(ctx context.Context, e audit.Event) {
	if err := o.Sink.Record(ctx, e); err != nil {
		o.logger.Warn().Err(err).Str("action", e.Action).Msg("audit record failed")
	}
}

// prepareTarget turns the target column into a numeric vector. For
// classification it also returns the label order: index i decodes class i.
func prepareTarget(ds *dataset.Dataset, target string, pt ProblemType) (*mat.VecDense, []string, error) {
	col, ok := ds.Column(target)
	if !ok {
		return nil, nil, errors.NewNotFoundError("column", target, "")
	}

	switch pt {
	case Regression:
		if col.Type != dataset.Numeric {
			return nil, nil, errors.NewConfigurationError("target_column", "regression requires a numeric target", target)
		}
		vals := make([]float64, len(col.Numeric))
		copy(vals, col.Numeric)
		return mat.NewVecDense(len(vals), vals), nil, nil

	case Classification:
		switch col.Type {
		case dataset.Categorical:
			enc := preprocessing.NewLabelEncoder()
			y, err := enc.FitTransform(col.Labels)
			if err != nil {
				return nil, nil, err
			}
			labels := make([]string, len(enc.ClassLabels))
			copy(labels, enc.ClassLabels)
			return y, labels, nil
		case dataset.Numeric:
			return encodeNumericClasses(col.Numeric)
		}
		return nil, nil, errors.NewConfigurationError("target_column", "temporal columns cannot be a prediction target", target)
	}
	return nil, nil, errors.NewConfigurationError("problem_type", "must be classification or regression", pt)
}

// encodeNumericClasses maps the distinct values of a numeric target onto
// dense codes 0..k-1 in ascending value order, so downstream classifiers
// see contiguous integer classes.
func encodeNumericClasses(values []float64) (*mat.VecDense, []string, error) {
	if len(values) == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "encodeNumericClasses")
	}
	distinct := make([]float64, 0)
	seen := make(map[float64]bool)
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	sort.Float64s(distinct)
	code := make(map[float64]int, len(distinct))
	labels := make([]string, len(distinct))
	for i, v := range distinct {
		code[v] = i
		labels[i] = fmt.Sprintf("%g", v)
	}
	data := make([]float64, len(values))
	for i, v := range values {
		data[i] = float64(code[v])
	}
	return mat.NewVecDense(len(data), data), labels, nil
}

// predictionVec flattens an r x 1 prediction matrix to a vector.
func predictionVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}

func matrixRows(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

func vectorValues(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = v.AtVec(i)
	}
	return out
}
