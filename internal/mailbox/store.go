package mailbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/seghcder/crewkan/internal/errors"
	"github.com/seghcder/crewkan/internal/logging"
	"github.com/seghcder/crewkan/internal/record"
	"github.com/seghcder/crewkan/internal/util"
)

const (
	// eventsDir is the directory under the board root holding mailboxes.
	eventsDir = "events"

	// eventIDPrefix is the prefix of generated event ids.
	eventIDPrefix = "EVT"
)

// Store is a file-based notification mailbox rooted at a board directory.
// Each agent owns the subdirectory events/<agent-id>; each event is one
// record file inside it. Store is safe for concurrent use across processes:
// every event file is guarded by the record layer's advisory lock.
type Store struct {
	root       string
	log        *logging.Logger
	recordOpts []record.Option
}

// NewStore creates a Store rooted at the given board directory. Mailbox
// directories are created lazily on first write.
func NewStore(root string, opts ...Option) *Store {
	s := &Store{
		root: root,
		log:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the mailbox directory for the given agent.
func (s *Store) Dir(agentID string) string {
	return filepath.Join(s.root, eventsDir, agentID)
}

// Create stores a new pending event in the target agent's mailbox and
// returns its id.
func (s *Store) Create(ctx context.Context, typ EventType, notifyAgent, createdBy string, data map[string]any) (string, error) {
	if typ == "" {
		return "", errors.NewDomainError("event type is required", errors.ErrMissingInput)
	}
	if notifyAgent == "" {
		return "", errors.NewDomainError("notify agent is required", errors.ErrMissingInput)
	}
	if createdBy == "" {
		return "", errors.NewDomainError("creating agent is required", errors.ErrMissingInput)
	}

	event := Event{
		ID:          generateEventID(),
		Type:        typ,
		CreatedAt:   util.NowISO(),
		CreatedBy:   createdBy,
		NotifyAgent: notifyAgent,
		Status:      StatusPending,
		Data:        data,
	}

	rec, err := record.Encode(event)
	if err != nil {
		return "", err
	}
	if err := record.Save(ctx, s.eventPath(notifyAgent, event.ID), rec, s.recordOpts...); err != nil {
		return "", err
	}

	s.log.Info("event created",
		"event_id", event.ID, "type", string(typ),
		"notify_agent", notifyAgent, "created_by", createdBy)
	return event.ID, nil
}

// ListPending returns the target agent's pending events, most recent first
// by file modification time, optionally filtered by type and capped at
// limit. Unreadable event files are skipped rather than failing the scan.
func (s *Store) ListPending(ctx context.Context, agentID string, typeFilter EventType, limit int) ([]Event, error) {
	dir := s.Dir(agentID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read mailbox directory: %w", err)
	}

	type candidate struct {
		name  string
		mtime int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !isEventFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{entry.Name(), info.ModTime().UnixNano()})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].mtime > candidates[j].mtime
	})

	var events []Event
	for _, c := range candidates {
		event, ok := s.loadEvent(ctx, filepath.Join(dir, c.name))
		if !ok {
			continue
		}
		if !event.Pending() {
			continue
		}
		if typeFilter != "" && event.Type != typeFilter {
			continue
		}
		events = append(events, event)
		if limit > 0 && len(events) >= limit {
			break
		}
	}
	return events, nil
}

// Get returns the event with the given id from the agent's mailbox.
// The boolean reports whether the event exists.
func (s *Store) Get(ctx context.Context, agentID, eventID string) (Event, bool, error) {
	path := s.eventPath(agentID, eventID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Event{}, false, nil
	}

	rec, err := record.Load(ctx, path, nil, s.recordOpts...)
	if err != nil {
		return Event{}, false, err
	}
	if rec == nil {
		return Event{}, false, nil
	}

	var event Event
	if err := record.Decode(rec, &event); err != nil {
		return Event{}, false, err
	}
	return event, true, nil
}

// MarkRead transitions the event to read. Returns false if the event does
// not exist. Marking an already-read or archived event rewrites its status
// to read; the transition is idempotent for the pending-to-read path.
func (s *Store) MarkRead(ctx context.Context, agentID, eventID string) (bool, error) {
	return s.transition(ctx, agentID, eventID, StatusRead)
}

// Archive transitions the event to archived. Returns false if the event
// does not exist.
func (s *Store) Archive(ctx context.Context, agentID, eventID string) (bool, error) {
	return s.transition(ctx, agentID, eventID, StatusArchived)
}

// transition rewrites a single event file with the new status and the
// matching timestamp field.
func (s *Store) transition(ctx context.Context, agentID, eventID string, to Status) (bool, error) {
	event, found, err := s.Get(ctx, agentID, eventID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	now := util.NowISO()
	event.Status = to
	switch to {
	case StatusRead:
		event.ReadAt = now
	case StatusArchived:
		event.ArchivedAt = now
	}

	rec, err := record.Encode(event)
	if err != nil {
		return false, err
	}
	if err := record.Save(ctx, s.eventPath(agentID, eventID), rec, s.recordOpts...); err != nil {
		return false, err
	}

	s.log.Info("event transitioned", "event_id", eventID, "agent_id", agentID, "status", string(to))
	return true, nil
}

// ClearPending marks every pending event in the agent's mailbox as read and
// returns the number cleared.
func (s *Store) ClearPending(ctx context.Context, agentID string) (int, error) {
	pending, err := s.ListPending(ctx, agentID, "", 0)
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, event := range pending {
		ok, err := s.MarkRead(ctx, agentID, event.ID)
		if err != nil {
			return cleared, err
		}
		if ok {
			cleared++
		}
	}
	s.log.Info("pending events cleared", "agent_id", agentID, "count", cleared)
	return cleared, nil
}

// loadEvent reads one event file for a directory scan. Scan reads are
// query-path: a broken file is logged and skipped instead of failing the
// whole listing.
func (s *Store) loadEvent(ctx context.Context, path string) (Event, bool) {
	rec, err := record.Load(ctx, path, nil, s.recordOpts...)
	if err != nil || rec == nil {
		if err != nil {
			s.log.Warn("skipping unreadable event file", "path", path, "error", err.Error())
		}
		return Event{}, false
	}

	var event Event
	if err := record.Decode(rec, &event); err != nil {
		s.log.Warn("skipping undecodable event file", "path", path, "error", err.Error())
		return Event{}, false
	}
	return event, true
}

// eventPath returns the record path for an event id.
func (s *Store) eventPath(agentID, eventID string) string {
	return filepath.Join(s.Dir(agentID), eventID+".yaml")
}

// isEventFile reports whether a directory entry is an event record, as
// opposed to a lock, backup, or staging sidecar.
func isEventFile(name string) bool {
	return strings.HasSuffix(name, ".yaml")
}

// generateEventID produces a unique event id: EVT-<utc timestamp>-<random>.
func generateEventID() string {
	ts := util.NowISO()
	ts = strings.NewReplacer("-", "", ":", "", "T", "-", "Z", "").Replace(ts)
	return fmt.Sprintf("%s-%s-%s", eventIDPrefix, ts, uuid.NewString()[:6])
}
