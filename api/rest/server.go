// Package rest exposes the benchmarking engine over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/modelbench/modelbench/bench"
	"github.com/modelbench/modelbench/evaluate"
	"github.com/modelbench/modelbench/internal/audit"
	"github.com/modelbench/modelbench/internal/storage"
	"github.com/modelbench/modelbench/pkg/errors"
	"github.com/modelbench/modelbench/pkg/log"
)

// Server wires the engine's components behind the HTTP API.
type Server struct {
	orchestrator *bench.Orchestrator
	evaluator    *evaluate.Evaluator
	store        *storage.Store
	audit        audit.Sink
	logger       zerolog.Logger
}

// NewServer creates a Server over the given components. Audit events for
// persistence and selection share the orchestrator's sink.
func NewServer(orchestrator *bench.Orchestrator, evaluator *evaluate.Evaluator, store *storage.Store) *Server {
	return &Server{
		orchestrator: orchestrator,
		evaluator:    evaluator,
		store:        store,
		audit:        orchestrator.Sink,
		logger:       log.With("rest"),
	}
}

// recordAudit is best-effort: a sink failure never fails the request.
func (s *Server) recordAudit(ctx context.Context, e audit.Event) {
	if err := s.audit.Record(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("action", e.Action).Msg("audit record failed")
	}
}

// Routes registers all API endpoints on the router.
func (s *Server) Routes(r *mux.Router) {
	r.HandleFunc("/healthz", s.Health).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/runs", s.CreateRun).Methods("POST")
	api.HandleFunc("/runs", s.ListRuns).Methods("GET")
	api.HandleFunc("/runs/latest", s.LatestRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.GetRun).Methods("GET")
	api.HandleFunc("/runs/{id}/diagnostics", s.RunDiagnostics).Methods("GET")
	api.HandleFunc("/runs/{id}/recommendation", s.RunRecommendation).Methods("GET")
	api.HandleFunc("/runs/{id}/selection", s.CreateSelection).Methods("POST")
	api.HandleFunc("/runs/{id}/selections", s.ListSelections).Methods("GET")
	api.HandleFunc("/runs/{id}/comparison", s.CompareModels).Methods("GET")
	api.HandleFunc("/runs/{id}/models/{name}/evaluation", s.ModelEvaluation).Methods("GET")
	api.HandleFunc("/runs/{id}/models/{name}/charts/{kind}", s.ModelChart).Methods("GET")
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the engine's error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var nfe *errors.NotFoundError
	var cfg *errors.ConfigurationError
	var val *errors.ValueError
	var dim *errors.DimensionError
	var unavail *errors.UnavailableModelError
	switch {
	case errors.As(err, &nfe):
		status = http.StatusNotFound
	case errors.As(err, &cfg), errors.As(err, &val), errors.As(err, &dim):
		status = http.StatusBadRequest
	case errors.As(err, &unavail):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
