package board

import (
	"github.com/seghcder/crewkan/internal/audit"
	"github.com/seghcder/crewkan/internal/config"
	"github.com/seghcder/crewkan/internal/filelock"
	"github.com/seghcder/crewkan/internal/logging"
	"github.com/seghcder/crewkan/internal/record"
)

type clientOptions struct {
	log           *logging.Logger
	sink          audit.Sink
	recordOpts    []record.Option
	notifications bool
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		log:           logging.NopLogger(),
		sink:          audit.NopSink(),
		notifications: true,
	}
}

// Option configures a Client.
type Option func(*clientOptions)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *logging.Logger) Option {
	return func(o *clientOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithAuditSink sets the audit sink notified on every mutating operation.
// Defaults to a no-op sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(o *clientOptions) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithRecordOptions appends options applied to every record load and save
// the client performs.
func WithRecordOptions(opts ...record.Option) Option {
	return func(o *clientOptions) {
		o.recordOpts = append(o.recordOpts, opts...)
	}
}

// WithoutNotifications disables mailbox event emission on move-to-done and
// reassignment. Issue mutations are unaffected.
func WithoutNotifications() Option {
	return func(o *clientOptions) {
		o.notifications = false
	}
}

// WithConfig applies lock, record, and notification settings from a loaded
// configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *clientOptions) {
		if cfg == nil {
			return
		}
		o.recordOpts = append(o.recordOpts,
			record.WithMaxRetries(cfg.Record.MaxRetries),
			record.WithRetryDelay(cfg.RecordRetryDelay()),
			record.WithLockOptions(
				filelock.WithTimeout(cfg.LockTimeout()),
				filelock.WithRetryInterval(cfg.LockRetryInterval()),
				filelock.WithStaleAfter(cfg.LockStaleAfter()),
			),
		)
		if !cfg.Record.Backup {
			o.recordOpts = append(o.recordOpts, record.WithoutBackup())
		}
		o.notifications = cfg.Notifications.Enabled
	}
}
