package mailbox

import (
	"github.com/seghcder/crewkan/internal/logging"
	"github.com/seghcder/crewkan/internal/record"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for mailbox diagnostics.
func WithLogger(log *logging.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRecordOptions passes options through to the record layer for every
// event read and write (lock tuning, retry bounds, validators).
func WithRecordOptions(opts ...record.Option) Option {
	return func(s *Store) {
		s.recordOpts = append(s.recordOpts, opts...)
	}
}
