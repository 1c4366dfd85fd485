// Package audit defines the observability sink invoked by the core on every
// mutating operation and on stale-lock reclamation.
//
// The sink is a collaborator interface: CLIs and orchestrators plug in their
// own implementations (metrics, tracing, external audit trails). The core
// only requires that a sink be safely skippable, so the default is a no-op.
package audit

import (
	"time"

	"github.com/seghcder/crewkan/internal/logging"
)

// Sink receives observability callbacks from the core. Implementations must
// be safe for concurrent use and must never fail the calling operation.
type Sink interface {
	// Mutation is invoked after a mutating operation has been persisted.
	// op is the operation name (e.g. "create", "move", "reassign"),
	// actor the acting agent id, target the mutated entity id.
	Mutation(op, actor, target string, details map[string]any)

	// StaleReclaim is invoked when a stale lock marker has been forcibly
	// removed during acquisition.
	StaleReclaim(path string, age time.Duration)
}

// nopSink discards all callbacks.
type nopSink struct{}

func (nopSink) Mutation(op, actor, target string, details map[string]any) {}
func (nopSink) StaleReclaim(path string, age time.Duration)               {}

// NopSink returns a Sink that discards everything. It is the default for
// all core components.
func NopSink() Sink {
	return nopSink{}
}

// LogSink adapts a logging.Logger into a Sink, recording mutations at INFO
// and stale reclamations at WARN.
type LogSink struct {
	log *logging.Logger
}

// NewLogSink creates a LogSink writing to the given logger.
func NewLogSink(log *logging.Logger) *LogSink {
	if log == nil {
		log = logging.NopLogger()
	}
	return &LogSink{log: log}
}

// Mutation implements Sink.
func (s *LogSink) Mutation(op, actor, target string, details map[string]any) {
	args := []any{"op", op, "actor", actor, "target", target}
	for k, v := range details {
		args = append(args, k, v)
	}
	s.log.Info("mutation", args...)
}

// StaleReclaim implements Sink.
func (s *LogSink) StaleReclaim(path string, age time.Duration) {
	s.log.Warn("stale lock reclaimed", "path", path, "age", age.String())
}
