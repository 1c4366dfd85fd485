package mailbox

// EventType identifies the kind of notification.
type EventType string

const (
	// EventCompletion signals that an issue reached the board's done column.
	// Sent to the issue's requesting agent.
	EventCompletion EventType = "issue_completed"

	// EventAssignment signals that an issue was assigned to an agent.
	EventAssignment EventType = "issue_assigned"
)

// Status is the lifecycle state of an event. Transitions are monotonic:
// pending to read, or pending to archived.
type Status string

const (
	// StatusPending marks an event not yet seen by its target agent.
	StatusPending Status = "pending"

	// StatusRead marks an event the target agent has consumed.
	StatusRead Status = "read"

	// StatusArchived marks an event retained for history only.
	StatusArchived Status = "archived"
)

// Event is a single one-way notification stored in a target agent's mailbox.
type Event struct {
	ID          string         `yaml:"id"`
	Type        EventType      `yaml:"type"`
	CreatedAt   string         `yaml:"created_at"`
	CreatedBy   string         `yaml:"created_by"`
	NotifyAgent string         `yaml:"notify_agent"`
	Status      Status         `yaml:"status"`
	ReadAt      string         `yaml:"read_at,omitempty"`
	ArchivedAt  string         `yaml:"archived_at,omitempty"`
	Data        map[string]any `yaml:"data,omitempty"`
}

// Pending reports whether the event has not yet been read or archived.
func (e Event) Pending() bool {
	return e.Status == StatusPending
}
