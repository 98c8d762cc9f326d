// Package audit records who did what to which entity. Recording is
// best-effort: callers treat sink errors as non-fatal.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Event is one audit record.
type Event struct {
	Actor    string    `json:"actor"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// Actions emitted by the engine.
const (
	ActionBenchmarkCompleted = "benchmark_completed"
	ActionModelFailed        = "model_failed"
	ActionRunPersisted       = "run_persisted"
	ActionModelSelected      = "model_selected"
)

// Sink persists audit events.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// LogSink writes audit events to a structured logger. It is the default
// sink when no durable store is configured.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a LogSink over the given logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Record logs the event at info level.
func (s *LogSink) Record(_ context.Context, e Event) error {
	s.logger.Info().
		Str("actor", e.Actor).
		Str("action", e.Action).
		Str("entity", e.Entity).
		Str("entity_id", e.EntityID).
		Str("detail", e.Detail).
		Time("at", e.At).
		Msg("audit event")
	return nil
}

// Discard is a Sink that drops every event. Useful in tests.
type Discard struct{}

// Record implements Sink.
func (Discard) Record(context.Context, Event) error { return nil }
