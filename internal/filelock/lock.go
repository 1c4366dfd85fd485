package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seghcder/crewkan/internal/errors"
	"github.com/seghcder/crewkan/internal/logging"
)

const (
	// DefaultTimeout is the default bound on lock acquisition.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryInterval is the default sleep between acquisition polls.
	DefaultRetryInterval = 100 * time.Millisecond

	// DefaultStaleAfter is the default marker age beyond which a lock is
	// presumed abandoned and eligible for reclamation.
	DefaultStaleAfter = 300 * time.Second

	// Suffix is appended to a record path to form its lock marker path.
	Suffix = ".lck"
)

// Lock is an advisory lock on a single record file, backed by a sidecar
// marker file. A Lock value is not safe for concurrent use; each goroutine
// should construct its own.
type Lock struct {
	path       string // protected record path
	lockPath   string // sidecar marker path
	timeout    time.Duration
	retry      time.Duration
	staleAfter time.Duration
	log        *logging.Logger

	// onStaleReclaim, when set, is invoked after a stale marker has been
	// removed. Used to feed the audit sink without coupling this package
	// to it.
	onStaleReclaim func(path string, age time.Duration)
}

// New creates a Lock for the record at path. The marker lives at
// path + ".lck".
func New(path string, opts ...Option) *Lock {
	l := &Lock{
		path:       path,
		lockPath:   path + Suffix,
		timeout:    DefaultTimeout,
		retry:      DefaultRetryInterval,
		staleAfter: DefaultStaleAfter,
		log:        logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the protected record path.
func (l *Lock) Path() string {
	return l.path
}

// LockPath returns the sidecar marker path.
func (l *Lock) LockPath() string {
	return l.lockPath
}

// Acquire obtains the lock, polling until it succeeds, the timeout elapses,
// or ctx is canceled. A timeout is surfaced as a *errors.LockError wrapping
// errors.ErrLockTimeout so callers can distinguish it and retry after
// backoff.
func (l *Lock) Acquire(ctx context.Context) error {
	deadline := time.Now().Add(l.timeout)

	for {
		acquired, err := l.tryAcquire()
		if err != nil {
			return err
		}
		if acquired {
			l.log.Debug("lock acquired", "path", l.path)
			return nil
		}

		if time.Now().After(deadline) {
			l.log.Warn("lock acquisition timed out", "path", l.path, "timeout", l.timeout.String())
			return errors.NewLockError(
				fmt.Sprintf("could not acquire lock within %s", l.timeout),
				errors.ErrLockTimeout,
			).WithPath(l.path)
		}

		select {
		case <-ctx.Done():
			return errors.NewLockError("lock acquisition canceled", ctx.Err()).WithPath(l.path)
		case <-time.After(l.retry):
		}
	}
}

// tryAcquire makes a single acquisition attempt. Returns true if the marker
// was created, false if the lock is held by another process.
func (l *Lock) tryAcquire() (bool, error) {
	info, err := os.Stat(l.lockPath)
	if err == nil {
		age := time.Since(info.ModTime())
		if age <= l.staleAfter {
			return false, nil // held by another process
		}

		// Stale marker: the holder is presumed crashed. Remove and retry
		// immediately. Losing the removal race to another reclaimer is fine.
		l.log.Warn("stale lock detected, reclaiming",
			"path", l.path, "age", age.Round(time.Second).String())
		if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
			l.log.Warn("failed to remove stale lock", "path", l.path, "error", err.Error())
			return false, nil
		}
		if l.onStaleReclaim != nil {
			l.onStaleReclaim(l.path, age)
		}
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat lock marker: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.lockPath), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	// O_EXCL makes the create call the exclusivity primitive: if two
	// processes race here, exactly one wins.
	f, err := os.OpenFile(l.lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil // another process beat us to it
		}
		return false, fmt.Errorf("create lock marker: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%s\n", time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		_ = f.Close()
		_ = os.Remove(l.lockPath)
		return false, fmt.Errorf("write lock marker: %w", err)
	}
	return true, f.Close()
}

// Release removes the lock marker. A missing marker is not an error. A
// failed removal is logged and reported but is non-fatal for the system:
// the marker will eventually be reclaimed by staleness.
func (l *Lock) Release() error {
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		l.log.Warn("failed to release lock", "path", l.path, "error", err.Error())
		return errors.NewLockError("failed to remove lock marker", errors.ErrLockReleaseFailed).WithPath(l.path)
	}
	l.log.Debug("lock released", "path", l.path)
	return nil
}

// WithLock runs fn while holding the lock for path, releasing it on every
// exit path. The function's error is returned unchanged; a release failure
// after a successful fn is logged inside Release and not surfaced.
func WithLock(ctx context.Context, path string, fn func() error, opts ...Option) error {
	l := New(path, opts...)
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	return fn()
}
