// Package diagnostics inspects a benchmark run for models whose trained
// object is unusable, without mutating the run.
package diagnostics

import (
	"fmt"

	"github.com/modelbench/modelbench/bench"
)

// Issue classifies why a model's trained object is unavailable.
type Issue string

const (
	// IssueMissingObject means the model failed during the run, so no
	// object was ever captured; only its error record survives.
	IssueMissingObject Issue = "missing_object"
	// IssueDecodeFailed means a payload exists but cannot be decoded.
	IssueDecodeFailed Issue = "decode_failed"
	// IssueMetricsOnly means the model trained successfully but its object
	// was dropped at encode time; the metrics are retained.
	IssueMetricsOnly Issue = "metrics_only"
)

// Finding is one diagnosed problem with one model in a run.
type Finding struct {
	ModelName      string `json:"model_name"`
	Issue          Issue  `json:"issue"`
	Detail         string `json:"detail,omitempty"`
	Recommendation string `json:"recommendation"`
}

// Report summarises the health of a run's trained objects.
type Report struct {
	RunID    string    `json:"run_id"`
	Total    int       `json:"total"`
	Usable   int       `json:"usable"`
	Findings []Finding `json:"findings,omitempty"`
}

// Healthy reports whether every model in the run has a usable object.
func (r *Report) Healthy() bool {
	return len(r.Findings) == 0
}

// Diagnose checks every result in the run and returns a finding for each
// model whose trained object cannot be used. The run itself is read-only
// to this function: re-running the benchmark is the caller's decision.
func Diagnose(run *bench.BenchmarkRun) *Report {
	report := &Report{RunID: run.RunID, Total: len(run.Results)}
	for i := range run.Results {
		res := &run.Results[i]

		if res.Status == bench.StatusFailed {
			report.Findings = append(report.Findings, Finding{
				ModelName:      res.ModelName,
				Issue:          IssueMissingObject,
				Detail:         res.ErrorMessage,
				Recommendation: "exclude this model or fix the underlying training failure and re-run the benchmark",
			})
			continue
		}

		// A decodable payload counts as usable even before the objects
		// have been reattached.
		if res.Trained != nil || (res.HasObject && res.Serialized != nil && res.Serialized.Decodable) {
			report.Usable++
			continue
		}

		if res.Serialized != nil && !res.Serialized.Decodable {
			report.Findings = append(report.Findings, Finding{
				ModelName:      res.ModelName,
				Issue:          IssueDecodeFailed,
				Detail:         res.DecodeNote,
				Recommendation: "the stored payload is corrupt or from an incompatible build; re-run the benchmark to regenerate it",
			})
			continue
		}

		if res.Serialized == nil || !res.HasObject {
			report.Findings = append(report.Findings, Finding{
				ModelName:      res.ModelName,
				Issue:          IssueMetricsOnly,
				Detail:         fmt.Sprintf("model %s has metrics but no stored object", res.ModelName),
				Recommendation: "accept the metrics-only result or re-run the benchmark to regenerate the object",
			})
		}
	}
	return report
}
