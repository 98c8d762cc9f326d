package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/modelbench/modelbench/bench"
	"github.com/modelbench/modelbench/linear"
	"github.com/modelbench/modelbench/registry"
)

func fittedModel(t *testing.T) *linear.LinearRegression {
	t.Helper()
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewVecDense(4, []float64{0, 2, 4, 6})
	lr := linear.NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))
	return lr
}

func TestDiagnoseHealthyRun(t *testing.T) {
	run := &bench.BenchmarkRun{RunID: "r1", Results: []bench.ModelResult{
		{ModelName: "a", Status: bench.StatusSuccess, Trained: fittedModel(t)},
		{ModelName: "b", Status: bench.StatusSuccess, Trained: fittedModel(t)},
	}}
	registry.EncodeRun(run)

	report := Diagnose(run)
	assert.True(t, report.Healthy())
	assert.Equal(t, 2, report.Usable)
	assert.Equal(t, 2, report.Total)
	assert.Empty(t, report.Findings)
}

func TestDiagnoseFailedModel(t *testing.T) {
	run := &bench.BenchmarkRun{RunID: "r1", Results: []bench.ModelResult{
		{ModelName: "broken", Status: bench.StatusFailed, ErrorMessage: "fit diverged"},
	}}

	report := Diagnose(run)
	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, "broken", f.ModelName)
	assert.Equal(t, IssueMissingObject, f.Issue)
	assert.Contains(t, f.Detail, "fit diverged")
	assert.NotEmpty(t, f.Recommendation)
}

func TestDiagnoseMetricsOnly(t *testing.T) {
	run := &bench.BenchmarkRun{RunID: "r1", Results: []bench.ModelResult{
		{ModelName: "ghost", Status: bench.StatusSuccess, Metrics: map[string]float64{"r2": 0.7}},
	}}

	report := Diagnose(run)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, IssueMetricsOnly, report.Findings[0].Issue)
	assert.Zero(t, report.Usable)
}

func TestDiagnoseDistinguishesFailureFromDroppedObject(t *testing.T) {
	run := &bench.BenchmarkRun{RunID: "r1", Results: []bench.ModelResult{
		{ModelName: "crashed", Status: bench.StatusFailed, ErrorMessage: "singular matrix"},
		{ModelName: "degraded", Status: bench.StatusSuccess, Metrics: map[string]float64{"f1": 0.91}},
	}}

	report := Diagnose(run)
	require.Len(t, report.Findings, 2)
	byName := map[string]Finding{}
	for _, f := range report.Findings {
		byName[f.ModelName] = f
	}
	assert.Equal(t, IssueMissingObject, byName["crashed"].Issue)
	assert.Equal(t, IssueMetricsOnly, byName["degraded"].Issue)
}

func TestDiagnoseCorruptPayload(t *testing.T) {
	run := &bench.BenchmarkRun{RunID: "r1", Results: []bench.ModelResult{
		{ModelName: "good", Status: bench.StatusSuccess, Trained: fittedModel(t)},
		{ModelName: "bad", Status: bench.StatusSuccess, Trained: fittedModel(t)},
	}}
	registry.EncodeRun(run)
	run.Results[0].Trained = nil
	run.Results[1].Trained = nil
	run.Results[1].Serialized.Payload = "@@@"
	registry.DecodeRun(run)

	report := Diagnose(run)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "bad", report.Findings[0].ModelName)
	assert.Equal(t, IssueDecodeFailed, report.Findings[0].Issue)
	assert.Equal(t, 1, report.Usable)
}

func TestDiagnoseDoesNotMutate(t *testing.T) {
	run := &bench.BenchmarkRun{RunID: "r1", Results: []bench.ModelResult{
		{ModelName: "broken", Status: bench.StatusFailed, ErrorMessage: "x"},
	}}
	before := run.Results[0]
	_ = Diagnose(run)
	assert.Equal(t, before, run.Results[0])
}
