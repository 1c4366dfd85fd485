package board

// History event names. Every mutating operation appends exactly one entry
// using one of these.
const (
	HistoryCreated    = "created"
	HistoryMoved      = "moved"
	HistoryUpdated    = "updated"
	HistoryAssigned   = "assigned"
	HistoryReassigned = "reassigned"
	HistoryComment    = "comment"
)

// HistoryEntry is one immutable audit record in an issue's history. Entries
// are appended on every mutation and never edited or removed. Comment
// entries additionally carry a CommentID.
type HistoryEntry struct {
	At        string `yaml:"at"`
	By        string `yaml:"by"`
	Event     string `yaml:"event"`
	Details   string `yaml:"details"`
	CommentID string `yaml:"comment_id,omitempty"`
}

// Issue is the primary mutable entity of the board. Column and Status are
// kept equal at all times; older records predating the column field carry
// only status, which is why both survive.
type Issue struct {
	SchemaVersion int            `yaml:"schema_version,omitempty"`
	ID            string         `yaml:"id"`
	Title         string         `yaml:"title"`
	Description   string         `yaml:"description"`
	Status        string         `yaml:"status"`
	Column        string         `yaml:"column"`
	IssueType     string         `yaml:"issue_type,omitempty"`
	Priority      string         `yaml:"priority"`
	Tags          []string       `yaml:"tags"`
	Assignees     []string       `yaml:"assignees"`
	Dependencies  []string       `yaml:"dependencies"`
	CreatedAt     string         `yaml:"created_at"`
	UpdatedAt     string         `yaml:"updated_at"`
	DueDate       string         `yaml:"due_date,omitempty"`
	RequestedBy   string         `yaml:"requested_by,omitempty"`
	History       []HistoryEntry `yaml:"history"`
}

// CurrentColumn returns the issue's column, falling back to the legacy
// status field for records written before column existed.
func (i *Issue) CurrentColumn() string {
	if i.Column != "" {
		return i.Column
	}
	return i.Status
}

// Column is one named stage in the board's workflow. WIPLimit is advisory
// and nil means unlimited.
type Column struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	WIPLimit *int   `yaml:"wip_limit"`
}

// Settings holds board-level defaults applied when issue fields are omitted.
type Settings struct {
	DefaultPriority     string `yaml:"default_priority,omitempty"`
	DefaultIssueType    string `yaml:"default_issue_type,omitempty"`
	IDPrefix            string `yaml:"issue_filename_prefix,omitempty"`
	Timezone            string `yaml:"timezone,omitempty"`
	DefaultSuperagentID string `yaml:"default_superagent_id,omitempty"`
}

// Board is the board.yaml record: identity, the ordered column list, and
// settings. It is written once by InitBoard and treated as read-only by
// Client operations.
type Board struct {
	SchemaVersion int      `yaml:"schema_version,omitempty"`
	BoardID       string   `yaml:"board_id"`
	BoardName     string   `yaml:"board_name"`
	Version       int      `yaml:"version"`
	Columns       []Column `yaml:"columns"`
	Settings      Settings `yaml:"settings"`
}

// Agent is one known actor. The agent set is the authorization universe:
// every acting identity, assignee, and notification target must exist in it.
type Agent struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Role     string         `yaml:"role"`
	Kind     string         `yaml:"kind"`
	Status   string         `yaml:"status"`
	Skills   []string       `yaml:"skills"`
	Metadata map[string]any `yaml:"metadata"`
}

// AgentFile is the agents/agents.yaml record.
type AgentFile struct {
	SchemaVersion int     `yaml:"schema_version,omitempty"`
	Agents        []Agent `yaml:"agents"`
}

// IssueSummary is the compact listing shape returned by ListMine.
type IssueSummary struct {
	ID        string   `yaml:"id" json:"id"`
	Title     string   `yaml:"title" json:"title"`
	Column    string   `yaml:"column" json:"column"`
	Priority  string   `yaml:"priority" json:"priority"`
	Assignees []string `yaml:"assignees" json:"assignees"`
	DueDate   string   `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	Tags      []string `yaml:"tags" json:"tags"`
}
