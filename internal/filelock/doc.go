// Package filelock provides advisory per-file locking for board records.
//
// Multiple agents mutate the same board from independent processes with no
// shared memory, so every read-modify-write of a record file is guarded by a
// sidecar marker file next to the record:
//
//	<record>.yaml      -- the record
//	<record>.yaml.lck  -- lock marker: existence = held, absence = free
//
// The marker's content is the acquisition timestamp. Creation uses O_EXCL so
// the filesystem's create call is the only exclusivity primitive required.
//
// # Acquisition
//
// Acquire polls: if the marker is absent it is created and the lock is held.
// If present, its age is computed from the modification time; markers older
// than the staleness threshold (default 300s) are presumed abandoned by a
// crashed holder, forcibly removed, and reacquisition is attempted
// immediately. Otherwise the caller sleeps for the retry interval and polls
// again until the timeout elapses, at which point an
// [errors.ErrLockTimeout] lock error is returned.
//
// Stale reclamation is a best-effort liveness mechanism, not a correctness
// guarantee: two processes can both believe they reclaimed the same stale
// marker in a narrow race window. This is an accepted risk.
//
// # Usage
//
//	err := filelock.WithLock(ctx, recordPath, func() error {
//	    // read-modify-write the record
//	    return nil
//	})
//
// WithLock releases the marker on every exit path: normal return, error, or
// context cancellation. Locking is advisory; correctness depends on all
// writers cooperating.
package filelock
