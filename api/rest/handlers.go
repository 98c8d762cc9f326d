package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/modelbench/modelbench/bench"
	"github.com/modelbench/modelbench/dataset"
	"github.com/modelbench/modelbench/diagnostics"
	"github.com/modelbench/modelbench/internal/audit"
	"github.com/modelbench/modelbench/pkg/errors"
	"github.com/modelbench/modelbench/recommend"
	"github.com/modelbench/modelbench/registry"
	"github.com/modelbench/modelbench/visuals"
)

// ColumnRequest is one dataset column in a run request. Exactly one of
// Values, Labels or Times must be set, matching Type.
type ColumnRequest struct {
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Values []float64   `json:"values,omitempty"`
	Labels []string    `json:"labels,omitempty"`
	Times  []time.Time `json:"times,omitempty"`
}

// CreateRunRequest submits a dataset and problem declaration for a full
// benchmark pass.
type CreateRunRequest struct {
	UserID           string          `json:"user_id"`
	TargetColumn     string          `json:"target_column"`
	PredictorColumns []string        `json:"predictor_columns"`
	ProblemType      string          `json:"problem_type,omitempty"`
	TestFraction     float64         `json:"test_fraction,omitempty"`
	Columns          []ColumnRequest `json:"columns"`
}

// ModelResultResponse is the API view of one candidate's outcome.
type ModelResultResponse struct {
	Name         string             `json:"name"`
	Status       bench.ModelStatus  `json:"status"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

// RunResponse summarises a completed run without the heavy payloads.
type RunResponse struct {
	RunID           string                `json:"run_id"`
	UserID          string                `json:"user_id"`
	ProblemType     bench.ProblemType     `json:"problem_type"`
	CreatedAt       time.Time             `json:"created_at"`
	SuccessfulCount int                   `json:"successful_count"`
	FailedCount     int                   `json:"failed_count"`
	BestModelName   string                `json:"best_model_name,omitempty"`
	Models          []ModelResultResponse `json:"models"`
}

func runResponse(run *bench.BenchmarkRun) RunResponse {
	resp := RunResponse{
		RunID:           run.RunID,
		UserID:          run.UserID,
		ProblemType:     run.ProblemType,
		CreatedAt:       run.CreatedAt,
		SuccessfulCount: run.SuccessfulCount,
		FailedCount:     run.FailedCount,
		BestModelName:   run.BestModelName,
	}
	for _, res := range run.Results {
		resp.Models = append(resp.Models, ModelResultResponse{
			Name:         res.ModelName,
			Status:       res.Status,
			Metrics:      res.Metrics,
			ErrorMessage: res.ErrorMessage,
		})
	}
	return resp
}

// CreateRun handles POST /v1/runs: parse the dataset, run the full
// benchmark, serialise the trained objects and persist the run.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.NewValueError("rest.CreateRun", "invalid request body: "+err.Error()))
		return
	}
	ds, err := datasetFrom(req.Columns)
	if err != nil {
		s.writeError(w, err)
		return
	}
	spec := bench.ProblemSpec{
		TargetColumn:     req.TargetColumn,
		PredictorColumns: req.PredictorColumns,
		ProblemType:      bench.ProblemType(req.ProblemType),
		TestFraction:     req.TestFraction,
	}

	run, err := s.orchestrator.Run(r.Context(), ds, spec, req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	registry.EncodeRun(run)
	if err := s.store.SaveRun(r.Context(), run); err != nil {
		s.writeError(w, err)
		return
	}
	s.recordAudit(r.Context(), audit.Event{
		Actor:    req.UserID,
		Action:   audit.ActionRunPersisted,
		Entity:   "run",
		EntityID: run.RunID,
		At:       time.Now().UTC(),
	})
	writeJSON(w, http.StatusCreated, runResponse(run))
}

// GetRun handles GET /v1/runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse(run))
}

// LatestRun handles GET /v1/runs/latest?user=.
func (s *Server) LatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.LastRun(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse(run))
}

// ListRuns handles GET /v1/runs?user=&limit=.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, errors.NewValueError("rest.ListRuns", "limit must be an integer"))
			return
		}
		limit = n
	}
	summaries, err := s.store.ListRuns(r.Context(), r.URL.Query().Get("user"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// RunDiagnostics handles GET /v1/runs/{id}/diagnostics.
func (s *Server) RunDiagnostics(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diagnostics.Diagnose(run))
}

// RunRecommendation handles GET /v1/runs/{id}/recommendation?criterion=.
func (s *Server) RunRecommendation(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := recommend.Recommend(run, r.URL.Query().Get("criterion"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SelectionRequest records the user's final model choice.
type SelectionRequest struct {
	ModelName string `json:"model_name"`
	Criterion string `json:"criterion,omitempty"`
	Comments  string `json:"comments,omitempty"`
	UserID    string `json:"user_id"`
}

// CreateSelection handles POST /v1/runs/{id}/selection.
func (s *Server) CreateSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.NewValueError("rest.CreateSelection", "invalid request body: "+err.Error()))
		return
	}
	run, err := s.store.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	sel, err := recommend.RecordSelection(run, req.ModelName, req.Criterion, req.Comments, req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SaveSelection(r.Context(), sel); err != nil {
		s.writeError(w, err)
		return
	}
	s.recordAudit(r.Context(), audit.Event{
		Actor:    req.UserID,
		Action:   audit.ActionModelSelected,
		Entity:   "selection",
		EntityID: sel.SelectionID,
		Detail:   sel.ModelName,
		At:       time.Now().UTC(),
	})
	writeJSON(w, http.StatusCreated, sel)
}

// ListSelections handles GET /v1/runs/{id}/selections.
func (s *Server) ListSelections(w http.ResponseWriter, r *http.Request) {
	sels, err := s.store.ListSelections(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sels)
}

// CompareModels handles GET /v1/runs/{id}/comparison?models=a,b,c.
func (s *Server) CompareModels(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	names := strings.Split(r.URL.Query().Get("models"), ",")
	if len(names) == 1 && names[0] == "" {
		names = nil
	}
	cmp, err := s.evaluator.Compare(run, names)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// ModelEvaluation handles GET /v1/runs/{id}/models/{name}/evaluation.
func (s *Server) ModelEvaluation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	run, err := s.store.GetRun(r.Context(), vars["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	detail, err := s.evaluator.Detail(run, vars["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ModelChart handles GET /v1/runs/{id}/models/{name}/charts/{kind} where
// kind is scatter, residuals or cv.
func (s *Server) ModelChart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	run, err := s.store.GetRun(r.Context(), vars["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	detail, err := s.evaluator.Detail(run, vars["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	title := vars["name"]
	kind := vars["kind"]
	if kind == "cv" {
		w.Header().Set("Content-Type", "image/png")
		if err := visuals.CVFoldBars(w, detail.CV.Scores, title+" cross-validation"); err != nil {
			s.logger.Error().Err(err).Msg("chart render failed")
		}
		return
	}

	if run.ProblemType != bench.Regression {
		s.writeError(w, errors.NewValueError("rest.ModelChart", "scatter and residual charts require a regression run"))
		return
	}
	actual := make([]float64, len(detail.Predictions))
	predicted := make([]float64, len(detail.Predictions))
	for i, pa := range detail.Predictions {
		actual[i] = pa.Actual
		predicted[i] = pa.Predicted
	}

	w.Header().Set("Content-Type", "image/png")
	switch kind {
	case "scatter":
		err = visuals.PredictedActualScatter(w, actual, predicted, title+" predicted vs actual")
	case "residuals":
		err = visuals.ResidualHistogram(w, actual, predicted, title+" residuals")
	default:
		s.writeError(w, errors.NewNotFoundError("chart", kind, run.RunID))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("chart render failed")
	}
}

// datasetFrom converts request columns into a Dataset.
func datasetFrom(cols []ColumnRequest) (*dataset.Dataset, error) {
	if len(cols) == 0 {
		return nil, errors.NewValueError("rest.CreateRun", "at least one column is required")
	}
	out := make([]dataset.Column, 0, len(cols))
	for _, c := range cols {
		col := dataset.Column{Name: c.Name}
		switch c.Type {
		case "numeric":
			col.Type = dataset.Numeric
			col.Numeric = c.Values
		case "categorical":
			col.Type = dataset.Categorical
			col.Labels = c.Labels
		case "temporal":
			col.Type = dataset.Temporal
			col.Times = c.Times
		default:
			return nil, errors.NewValueError("rest.CreateRun", "column "+c.Name+" has unknown type "+c.Type)
		}
		out = append(out, col)
	}
	return dataset.New(out...)
}
