package board

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seghcder/crewkan/internal/errors"
	"github.com/seghcder/crewkan/internal/record"
)

func intPtr(n int) *int { return &n }

// DefaultColumns is the workflow used when InitBoard is given none. The last
// column is the terminal one.
func DefaultColumns() []Column {
	return []Column{
		{ID: "backlog", Name: "Backlog"},
		{ID: "todo", Name: "To Do", WIPLimit: intPtr(10)},
		{ID: "doing", Name: "Doing", WIPLimit: intPtr(5)},
		{ID: "blocked", Name: "Blocked", WIPLimit: intPtr(5)},
		{ID: "done", Name: "Done"},
	}
}

// InitParams carries the inputs for InitBoard.
type InitParams struct {
	BoardID             string
	BoardName           string
	OwnerAgentID        string
	DefaultSuperagentID string
	Columns             []Column
	// Force allows initializing into a non-empty directory.
	Force bool
}

// InitBoard creates a new board under root: board.yaml, an agent roster
// seeded with the owner (and superagent, when distinct), and the issue,
// workspace, event, and archive directories. The target directory must be
// empty (a .git entry is tolerated) unless Force is set.
func InitBoard(ctx context.Context, root string, p InitParams, opts ...Option) (string, error) {
	if p.BoardID == "" || p.OwnerAgentID == "" {
		return "", errors.NewDomainError("board id and owner agent are required", errors.ErrMissingInput)
	}
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if entries, err := os.ReadDir(root); err == nil && !p.Force {
		for _, e := range entries {
			if e.Name() == ".git" {
				continue
			}
			return "", errors.NewDomainError(
				fmt.Sprintf("directory %s exists and is not empty", root), errors.ErrBoardExists)
		}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create board root: %w", err)
	}

	columns := p.Columns
	if len(columns) == 0 {
		columns = DefaultColumns()
	}
	name := p.BoardName
	if name == "" {
		name = p.BoardID
	}

	b := Board{
		BoardID:   p.BoardID,
		BoardName: name,
		Version:   1,
		Columns:   columns,
		Settings: Settings{
			DefaultPriority:     "medium",
			IDPrefix:            DefaultIDPrefix,
			Timezone:            "UTC",
			DefaultSuperagentID: p.DefaultSuperagentID,
		},
	}
	boardRec, err := record.Encode(&b)
	if err != nil {
		return "", fmt.Errorf("encode board record: %w", err)
	}
	if err := record.Save(ctx, filepath.Join(root, "board.yaml"), boardRec, o.recordOpts...); err != nil {
		return "", err
	}

	roster := AgentFile{Agents: []Agent{{
		ID:       p.OwnerAgentID,
		Name:     p.OwnerAgentID,
		Role:     "Board Owner",
		Kind:     "ai",
		Status:   "active",
		Skills:   []string{},
		Metadata: map[string]any{},
	}}}
	if p.DefaultSuperagentID != "" && p.DefaultSuperagentID != p.OwnerAgentID {
		roster.Agents = append(roster.Agents, Agent{
			ID:       p.DefaultSuperagentID,
			Name:     p.DefaultSuperagentID,
			Role:     "Superagent",
			Kind:     "ai",
			Status:   "active",
			Skills:   []string{},
			Metadata: map[string]any{},
		})
	}
	rosterRec, err := record.Encode(&roster)
	if err != nil {
		return "", fmt.Errorf("encode agent roster: %w", err)
	}
	if err := record.Save(ctx, filepath.Join(root, "agents", "agents.yaml"), rosterRec, o.recordOpts...); err != nil {
		return "", err
	}

	for _, col := range columns {
		if err := os.MkdirAll(filepath.Join(root, "issues", col.ID), 0o755); err != nil {
			return "", fmt.Errorf("create column directory %s: %w", col.ID, err)
		}
	}
	for _, dir := range []string{
		filepath.Join(root, "workspaces"),
		filepath.Join(root, "events"),
		filepath.Join(root, "archive", "issues"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}

	o.log.Info("board initialized", "board_id", p.BoardID, "root", root, "columns", len(columns))
	o.sink.Mutation("init_board", p.OwnerAgentID, p.BoardID, map[string]any{"root": root})
	return root, nil
}
