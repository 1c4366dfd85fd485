// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/seghcder/crewkan/internal/board"
	"github.com/seghcder/crewkan/internal/record"
)

// SetupTestBoard initializes a board in a temp directory with the given
// agents in its roster. The first agent is the board owner. It returns the
// board root.
func SetupTestBoard(t *testing.T, agents ...string) string {
	t.Helper()
	if len(agents) == 0 {
		t.Fatal("SetupTestBoard needs at least one agent")
	}

	root := t.TempDir()
	ctx := context.Background()
	_, err := board.InitBoard(ctx, root, board.InitParams{
		BoardID:      "test-board",
		BoardName:    "Test Board",
		OwnerAgentID: agents[0],
		Force:        true,
	})
	if err != nil {
		t.Fatalf("InitBoard() error = %v", err)
	}

	if len(agents) > 1 {
		AddAgents(t, root, agents[1:]...)
	}
	return root
}

// AddAgents appends agents to an existing board's roster.
func AddAgents(t *testing.T, root string, agents ...string) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(root, "agents", "agents.yaml")

	rec, err := record.Load(ctx, path, record.Record{})
	if err != nil {
		t.Fatalf("Load agent roster: %v", err)
	}
	var roster board.AgentFile
	if err := record.Decode(rec, &roster); err != nil {
		t.Fatalf("Decode agent roster: %v", err)
	}
	for _, id := range agents {
		roster.Agents = append(roster.Agents, board.Agent{
			ID:     id,
			Name:   id,
			Role:   "Agent",
			Kind:   "ai",
			Status: "active",
		})
	}
	out, err := record.Encode(&roster)
	if err != nil {
		t.Fatalf("Encode agent roster: %v", err)
	}
	if err := record.Save(ctx, path, out); err != nil {
		t.Fatalf("Save agent roster: %v", err)
	}
}

// NewTestClient opens a Client on root acting as agentID, failing the test
// on error.
func NewTestClient(t *testing.T, root, agentID string, opts ...board.Option) *board.Client {
	t.Helper()
	c, err := board.NewClient(context.Background(), root, agentID, opts...)
	if err != nil {
		t.Fatalf("NewClient(%q) error = %v", agentID, err)
	}
	return c
}
