package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemSpecValidate(t *testing.T) {
	valid := ProblemSpec{
		TargetColumn:     "y",
		PredictorColumns: []string{"a", "b"},
		TestFraction:     0.2,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*ProblemSpec)
	}{
		{"empty target", func(s *ProblemSpec) { s.TargetColumn = "" }},
		{"no predictors", func(s *ProblemSpec) { s.PredictorColumns = nil }},
		{"target in predictors", func(s *ProblemSpec) { s.PredictorColumns = []string{"a", "y"} }},
		{"zero fraction", func(s *ProblemSpec) { s.TestFraction = 0 }},
		{"fraction of one", func(s *ProblemSpec) { s.TestFraction = 1 }},
		{"unknown type", func(s *ProblemSpec) { s.ProblemType = "ranking" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := valid
			spec.PredictorColumns = append([]string(nil), valid.PredictorColumns...)
			tt.mutate(&spec)
			assert.Error(t, spec.Validate())
		})
	}
}

func TestPrimaryMetric(t *testing.T) {
	assert.Equal(t, MetricF1, PrimaryMetric(Classification))
	assert.Equal(t, MetricR2, PrimaryMetric(Regression))
}

func TestValidCriteria(t *testing.T) {
	assert.Contains(t, ValidCriteria(Classification), MetricAccuracy)
	assert.NotContains(t, ValidCriteria(Classification), MetricRMSE)
	assert.Contains(t, ValidCriteria(Regression), MetricMAE)
	assert.NotContains(t, ValidCriteria(Regression), MetricF1)
}

func TestLowerIsBetter(t *testing.T) {
	for _, m := range []string{MetricMSE, MetricRMSE, MetricMAE} {
		assert.True(t, LowerIsBetter(m), m)
	}
	for _, m := range []string{MetricF1, MetricR2, MetricAccuracy, MetricCVMean} {
		assert.False(t, LowerIsBetter(m), m)
	}
}

func TestRankSuccessful(t *testing.T) {
	run := &BenchmarkRun{
		ProblemType: Regression,
		Results: []ModelResult{
			{ModelName: "a", Status: StatusSuccess, Metrics: map[string]float64{MetricR2: 0.7, MetricRMSE: 3}},
			{ModelName: "b", Status: StatusFailed},
			{ModelName: "c", Status: StatusSuccess, Metrics: map[string]float64{MetricR2: 0.9, MetricRMSE: 1}},
			{ModelName: "d", Status: StatusSuccess, Metrics: map[string]float64{MetricR2: 0.9, MetricRMSE: 2}},
		},
	}

	byR2 := RankSuccessful(run, MetricR2)
	require.Len(t, byR2, 3)
	assert.Equal(t, "c", byR2[0].ModelName, "ties keep insertion order")
	assert.Equal(t, "d", byR2[1].ModelName)
	assert.Equal(t, "a", byR2[2].ModelName)

	byRMSE := RankSuccessful(run, MetricRMSE)
	assert.Equal(t, "c", byRMSE[0].ModelName, "error metric ranks ascending")
	assert.Equal(t, "a", byRMSE[2].ModelName)
}

func TestRunResultLookup(t *testing.T) {
	run := &BenchmarkRun{
		RunID:   "r1",
		Results: []ModelResult{{ModelName: "a", Status: StatusSuccess}},
	}
	res, err := run.Result("a")
	require.NoError(t, err)
	assert.Equal(t, "a", res.ModelName)

	_, err = run.Result("z")
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	assert.Len(t, catalog.Models(Classification), 6)
	assert.Len(t, catalog.Models(Regression), 5)

	for _, pt := range []ProblemType{Classification, Regression} {
		seen := map[string]bool{}
		for _, ms := range catalog.Models(pt) {
			require.NotNil(t, ms.New, ms.Name)
			assert.NotNil(t, ms.New(), ms.Name)
			assert.False(t, seen[ms.Name], "duplicate name %s", ms.Name)
			seen[ms.Name] = true
		}
	}
}
