package record

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seghcder/crewkan/internal/errors"
	"github.com/seghcder/crewkan/internal/filelock"
)

const (
	// SchemaVersionKey is the record key carrying the schema version tag.
	SchemaVersionKey = "schema_version"

	// CurrentSchemaVersion is stamped into every record on load and save.
	CurrentSchemaVersion = 1

	// DefaultMaxRetries bounds retries of transient I/O failures.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the pause between transient-failure retries.
	DefaultRetryDelay = 50 * time.Millisecond

	// tmpSuffix is the staging sibling used for atomic writes.
	tmpSuffix = ".tmp"

	// bakSuffix is the pre-overwrite backup sibling.
	bakSuffix = ".bak"
)

// Record is a parsed record file: a YAML mapping with string keys.
type Record = map[string]any

// Validator checks a record before it is returned from Load or persisted by
// Save. A non-nil error aborts the operation before any disk mutation.
type Validator func(Record) error

// Load reads the record at path. If the path does not exist the
// caller-supplied default is returned unchanged. Content that fails to parse
// surfaces a *errors.ParseError; content that parses to a non-mapping
// surfaces a *errors.StructureError. The schema version tag is injected if
// absent, and the configured validator (if any) runs before returning.
func Load(ctx context.Context, path string, def Record, opts ...Option) (Record, error) {
	o := applyOptions(opts)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return def, nil
	}

	var rec Record
	err := withRetry(o, func() error {
		return filelock.WithLock(ctx, path, func() error {
			var err error
			rec, err = readRecord(path, def)
			return err
		}, o.lockOpts...)
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return def, nil
	}

	if _, ok := rec[SchemaVersionKey]; !ok {
		rec[SchemaVersionKey] = CurrentSchemaVersion
	}

	if o.validator != nil {
		if err := o.validator(rec); err != nil {
			return nil, wrapValidation(err, path)
		}
	}
	return rec, nil
}

// readRecord reads and parses a single record file. Returns nil (meaning
// "use the default") for empty content.
func readRecord(path string, def Record) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return def, nil
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var parsed any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, errors.NewParseError("record content is not valid YAML", errors.ErrRecordCorrupted).WithPath(path)
	}
	if parsed == nil {
		return nil, nil
	}

	rec, ok := parsed.(map[string]any)
	if !ok {
		return nil, errors.NewStructureError(
			fmt.Sprintf("record parsed to %T, expected a mapping", parsed),
			errors.ErrRecordNotMapping,
		).WithPath(path)
	}
	return rec, nil
}

// Save persists the record to path. The schema version tag is injected if
// absent and the configured validator (if any) runs before anything touches
// disk. The write itself is atomic: content goes to a .tmp sibling that is
// renamed over the target, after the prior version (if any) is copied to a
// .bak sibling best-effort.
func Save(ctx context.Context, path string, rec Record, opts ...Option) error {
	o := applyOptions(opts)

	if rec == nil {
		return errors.NewStructureError("cannot save nil record", errors.ErrRecordNotMapping).WithPath(path)
	}

	// Stamp the version on a shallow copy so the caller's map is not mutated.
	out := make(Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	if _, ok := out[SchemaVersionKey]; !ok {
		out[SchemaVersionKey] = CurrentSchemaVersion
	}

	if o.validator != nil {
		if err := o.validator(out); err != nil {
			return wrapValidation(err, path)
		}
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}

	return withRetry(o, func() error {
		return filelock.WithLock(ctx, path, func() error {
			return writeAtomic(path, data, o)
		}, o.lockOpts...)
	})
}

// writeAtomic performs the backup + temp-write + rename sequence. The rename
// is the only disk-visible mutation step.
func writeAtomic(path string, data []byte, o *options) error {
	if o.backup {
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, path+bakSuffix); err != nil {
				o.log.Warn("record backup failed", "path", path, "error", err.Error())
			}
		}
	}

	tmp := path + tmpSuffix
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// copyFile copies src to dst, truncating dst if it exists.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// withRetry runs fn, retrying transient failures up to the configured bound.
// Deterministic errors (parse, structure, validation) and lock timeouts
// propagate immediately: retrying cannot help the former, and lock
// acquisition already polls internally.
func withRetry(o *options, fn func() error) error {
	var err error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if isDeterministic(err) {
			return err
		}
		if attempt < o.maxRetries {
			o.log.Debug("transient record I/O failure, retrying",
				"attempt", attempt+1, "error", err.Error())
			time.Sleep(o.retryDelay)
		}
	}
	return err
}

// isDeterministic reports whether retrying err is pointless.
func isDeterministic(err error) bool {
	var (
		parseErr    *errors.ParseError
		structErr   *errors.StructureError
		validateErr *errors.ValidationError
		lockErr     *errors.LockError
	)
	return errors.As(err, &parseErr) ||
		errors.As(err, &structErr) ||
		errors.As(err, &validateErr) ||
		errors.As(err, &lockErr)
}

// wrapValidation normalizes validator failures into *errors.ValidationError.
func wrapValidation(err error, path string) error {
	var validateErr *errors.ValidationError
	if errors.As(err, &validateErr) {
		return err
	}
	return errors.NewValidationError(err.Error(), errors.ErrSchemaInvalid).WithPath(path)
}

// Encode converts a typed value into a Record via its yaml tags.
func Encode(v any) (Record, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return rec, nil
}

// Decode converts a Record into a typed value via its yaml tags.
func Decode(rec Record, out any) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
