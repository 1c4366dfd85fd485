package filelock

import (
	"time"

	"github.com/seghcder/crewkan/internal/logging"
)

// Option configures a Lock.
type Option func(*Lock)

// WithTimeout sets the bound on lock acquisition. Zero or negative values
// are ignored.
func WithTimeout(d time.Duration) Option {
	return func(l *Lock) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithRetryInterval sets the sleep between acquisition polls. Zero or
// negative values are ignored.
func WithRetryInterval(d time.Duration) Option {
	return func(l *Lock) {
		if d > 0 {
			l.retry = d
		}
	}
}

// WithStaleAfter sets the marker age beyond which a lock is considered
// abandoned and reclaimable. Zero or negative values are ignored.
func WithStaleAfter(d time.Duration) Option {
	return func(l *Lock) {
		if d > 0 {
			l.staleAfter = d
		}
	}
}

// WithLogger sets the logger used for lock diagnostics.
func WithLogger(log *logging.Logger) Option {
	return func(l *Lock) {
		if log != nil {
			l.log = log
		}
	}
}

// WithStaleReclaimHandler registers a handler invoked after a stale marker
// has been removed, with the record path and the marker's age.
func WithStaleReclaimHandler(fn func(path string, age time.Duration)) Option {
	return func(l *Lock) {
		l.onStaleReclaim = fn
	}
}
