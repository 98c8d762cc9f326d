// Package recommend ranks the successful models of a run under a chosen
// criterion and records the user's final selection. Both operations are
// pure with respect to the run: recommending twice under the same
// criterion yields the same answer, and a selection never mutates the run.
package recommend

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modelbench/modelbench/bench"
	"github.com/modelbench/modelbench/pkg/errors"
)

// RankedModel is one entry of a recommendation ranking.
type RankedModel struct {
	ModelName string  `json:"model_name"`
	Value     float64 `json:"value"`
}

// Recommendation is the ranked answer to "which model should I use".
type Recommendation struct {
	RunID         string        `json:"run_id"`
	Criterion     string        `json:"criterion"`
	Ranking       []RankedModel `json:"ranking"`
	BestModelName string        `json:"best_model_name,omitempty"`
	Justification string        `json:"justification"`
}

// ValidateCriterion checks that the criterion is a metric the run's
// problem type produces. An empty criterion resolves to the primary
// metric for the problem type.
func ValidateCriterion(pt bench.ProblemType, criterion string) (string, error) {
	if criterion == "" {
		return bench.PrimaryMetric(pt), nil
	}
	for _, valid := range bench.ValidCriteria(pt) {
		if criterion == valid {
			return criterion, nil
		}
	}
	return "", errors.NewConfigurationError("criterion",
		fmt.Sprintf("not a valid %s metric", pt), criterion)
}

// Recommend ranks the run's successful models under the criterion, best
// first. Error metrics rank ascending, score metrics descending; ties
// keep catalog order. A run with no successful models yields an empty
// ranking and no best model, which is not an error.
func Recommend(run *bench.BenchmarkRun, criterion string) (*Recommendation, error) {
	criterion, err := ValidateCriterion(run.ProblemType, criterion)
	if err != nil {
		return nil, err
	}

	ranked := bench.RankSuccessful(run, criterion)
	rec := &Recommendation{RunID: run.RunID, Criterion: criterion}
	for _, res := range ranked {
		rec.Ranking = append(rec.Ranking, RankedModel{ModelName: res.ModelName, Value: res.Metrics[criterion]})
	}

	if len(rec.Ranking) == 0 {
		rec.Justification = "no model trained successfully in this run"
		return rec, nil
	}

	rec.BestModelName = rec.Ranking[0].ModelName
	rec.Justification = justify(rec.Ranking, criterion)
	return rec, nil
}

// RecordSelection validates and materialises a user's final model choice
// for a run. The named model must exist and have trained successfully;
// the criterion must be valid for the run. The returned Selection is
// append-only: callers persist it, never update it.
func RecordSelection(run *bench.BenchmarkRun, modelName, criterion, comments, user string) (*bench.Selection, error) {
	criterion, err := ValidateCriterion(run.ProblemType, criterion)
	if err != nil {
		return nil, err
	}
	res, err := run.Result(modelName)
	if err != nil {
		return nil, err
	}
	if res.Status != bench.StatusSuccess {
		return nil, errors.NewUnavailableModelError(run.RunID, modelName, "cannot select a model that failed during the benchmark")
	}

	rec, err := Recommend(run, criterion)
	if err != nil {
		return nil, err
	}
	justification := fmt.Sprintf("%s selected by %s=%.4f", modelName, criterion, res.Metrics[criterion])
	if rec.BestModelName == modelName {
		justification = rec.Justification
	}

	return &bench.Selection{
		SelectionID:   uuid.NewString(),
		RunID:         run.RunID,
		ModelName:     modelName,
		Criterion:     criterion,
		Justification: justification,
		Comments:      comments,
		SelectedAt:    time.Now().UTC(),
		SelectedBy:    user,
	}, nil
}

// justify explains the top of the ranking, quoting the margin over the
// runner-up when there is one.
func justify(ranking []RankedModel, criterion string) string {
	best := ranking[0]
	if len(ranking) == 1 {
		return fmt.Sprintf("%s is the only successful model, with %s=%.4f", best.ModelName, criterion, best.Value)
	}
	runnerUp := ranking[1]
	margin := best.Value - runnerUp.Value
	if bench.LowerIsBetter(criterion) {
		margin = runnerUp.Value - best.Value
	}
	return fmt.Sprintf("%s leads on %s with %.4f, ahead of %s by %.4f",
		best.ModelName, criterion, best.Value, runnerUp.ModelName, margin)
}
