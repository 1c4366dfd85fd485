// Package registry tracks the set of known boards in a single registry.yaml
// record, typically one per deployment root. It answers "which boards exist
// and where do they live" for callers that manage more than one board.
package registry

import (
	"context"
	"fmt"

	"github.com/seghcder/crewkan/internal/errors"
	"github.com/seghcder/crewkan/internal/logging"
	"github.com/seghcder/crewkan/internal/record"
)

// Board statuses tracked by the registry.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Entry describes one registered board.
type Entry struct {
	ID            string `yaml:"id"`
	Path          string `yaml:"path"`
	OwnerAgent    string `yaml:"owner_agent"`
	Purpose       string `yaml:"purpose,omitempty"`
	ParentBoardID string `yaml:"parent_board_id,omitempty"`
	Status        string `yaml:"status"`
}

type registryFile struct {
	SchemaVersion int     `yaml:"schema_version,omitempty"`
	Boards        []Entry `yaml:"boards"`
}

// Registry reads and writes one registry record. Every operation re-reads
// the file under lock, so concurrent processes sharing a registry stay
// consistent.
type Registry struct {
	path       string
	log        *logging.Logger
	recordOpts []record.Option
}

// New returns a Registry over the record at path. The file is created on
// first Register.
func New(path string, opts ...Option) *Registry {
	r := &Registry{
		path: path,
		log:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) load(ctx context.Context) (registryFile, error) {
	var rf registryFile
	rec, err := record.Load(ctx, r.path, record.Record{}, r.recordOpts...)
	if err != nil {
		return rf, fmt.Errorf("load board registry: %w", err)
	}
	if err := record.Decode(rec, &rf); err != nil {
		return rf, fmt.Errorf("decode board registry: %w", err)
	}
	return rf, nil
}

func (r *Registry) save(ctx context.Context, rf registryFile) error {
	rec, err := record.Encode(&rf)
	if err != nil {
		return fmt.Errorf("encode board registry: %w", err)
	}
	return record.Save(ctx, r.path, rec, r.recordOpts...)
}

// Register adds a board or updates an existing entry with the same id.
// Status defaults to active.
func (r *Registry) Register(ctx context.Context, e Entry) error {
	if e.ID == "" || e.Path == "" || e.OwnerAgent == "" {
		return errors.NewDomainError("board id, path, and owner are required", errors.ErrMissingInput)
	}
	if e.Status == "" {
		e.Status = StatusActive
	}

	rf, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range rf.Boards {
		if rf.Boards[i].ID == e.ID {
			// Keep prior purpose and parent when the update omits them.
			if e.Purpose == "" {
				e.Purpose = rf.Boards[i].Purpose
			}
			if e.ParentBoardID == "" {
				e.ParentBoardID = rf.Boards[i].ParentBoardID
			}
			rf.Boards[i] = e
			r.log.Info("board registration updated", "board_id", e.ID, "path", e.Path)
			return r.save(ctx, rf)
		}
	}
	rf.Boards = append(rf.Boards, e)
	r.log.Info("board registered", "board_id", e.ID, "path", e.Path)
	return r.save(ctx, rf)
}

// Get looks up a board by id. The boolean reports whether it was found.
func (r *Registry) Get(ctx context.Context, boardID string) (Entry, bool, error) {
	rf, err := r.load(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	for _, b := range rf.Boards {
		if b.ID == boardID {
			return b, true, nil
		}
	}
	return Entry{}, false, nil
}

// List returns all boards, optionally filtered by status.
func (r *Registry) List(ctx context.Context, status string) ([]Entry, error) {
	rf, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return rf.Boards, nil
	}
	var out []Entry
	for _, b := range rf.Boards {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

// Archive marks a board archived. It reports whether the board was found.
func (r *Registry) Archive(ctx context.Context, boardID string) (bool, error) {
	rf, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range rf.Boards {
		if rf.Boards[i].ID == boardID {
			rf.Boards[i].Status = StatusArchived
			r.log.Info("board archived", "board_id", boardID)
			return true, r.save(ctx, rf)
		}
	}
	return false, nil
}

// Delete removes a board from the registry. It reports whether the board
// was present. The board's files on disk are untouched.
func (r *Registry) Delete(ctx context.Context, boardID string) (bool, error) {
	rf, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	kept := rf.Boards[:0]
	found := false
	for _, b := range rf.Boards {
		if b.ID == boardID {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	if !found {
		return false, nil
	}
	rf.Boards = kept
	r.log.Info("board deleted from registry", "board_id", boardID)
	return true, r.save(ctx, rf)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *logging.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRecordOptions appends options applied to registry record I/O.
func WithRecordOptions(opts ...record.Option) Option {
	return func(r *Registry) {
		r.recordOpts = append(r.recordOpts, opts...)
	}
}
