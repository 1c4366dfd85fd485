package record

import (
	"time"

	"github.com/seghcder/crewkan/internal/filelock"
	"github.com/seghcder/crewkan/internal/logging"
)

// options holds the per-call configuration for Load and Save.
type options struct {
	validator  Validator
	lockOpts   []filelock.Option
	maxRetries int
	retryDelay time.Duration
	backup     bool
	log        *logging.Logger
}

// Option configures a Load or Save call.
type Option func(*options)

func applyOptions(opts []Option) *options {
	o := &options{
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		backup:     true,
		log:        logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithValidator sets the schema validation hook. On Load it runs after the
// version tag is injected; on Save it runs before anything touches disk.
func WithValidator(v Validator) Option {
	return func(o *options) {
		o.validator = v
	}
}

// WithLockOptions passes options through to the advisory lock guarding the
// record file.
func WithLockOptions(opts ...filelock.Option) Option {
	return func(o *options) {
		o.lockOpts = append(o.lockOpts, opts...)
	}
}

// WithMaxRetries bounds retries of transient I/O failures. Negative values
// are ignored.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithRetryDelay sets the pause between transient-failure retries. Zero or
// negative values are ignored.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryDelay = d
		}
	}
}

// WithoutBackup disables the pre-overwrite .bak copy.
func WithoutBackup() Option {
	return func(o *options) {
		o.backup = false
	}
}

// WithLogger sets the logger used for I/O diagnostics.
func WithLogger(log *logging.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}
