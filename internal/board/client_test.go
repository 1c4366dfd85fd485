package board_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/seghcder/crewkan/internal/board"
	"github.com/seghcder/crewkan/internal/errors"
	"github.com/seghcder/crewkan/internal/mailbox"
	"github.com/seghcder/crewkan/internal/record"
	"github.com/seghcder/crewkan/internal/testutil"
)

// loadHistory reads an issue record straight off disk and returns its
// history, bypassing the client.
func loadHistory(t *testing.T, root, column, id string) []board.HistoryEntry {
	t.Helper()
	path := filepath.Join(root, "issues", column, id+".yaml")
	rec, err := record.Load(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Load(%s) error = %v", path, err)
	}
	var issue board.Issue
	if err := record.Decode(rec, &issue); err != nil {
		t.Fatalf("Decode(%s) error = %v", path, err)
	}
	return issue.History
}

func historyLen(t *testing.T, root, column, id string) int {
	t.Helper()
	return len(loadHistory(t, root, column, id))
}

func mustCreate(t *testing.T, c *board.Client, p board.CreateIssueParams) string {
	t.Helper()
	id, err := c.CreateIssue(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateIssue() error = %v", err)
	}
	return id
}

func issueByID(t *testing.T, c *board.Client, root, id string) board.IssueSummary {
	t.Helper()
	summaries, err := c.ListMine(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}
	for _, s := range summaries {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("issue %s not in ListMine results", id)
	return board.IssueSummary{}
}

func TestCreateIssueDefaults(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice")
	c := testutil.NewTestClient(t, root, "alice")

	id := mustCreate(t, c, board.CreateIssueParams{Title: "Write docs"})
	if !strings.HasPrefix(id, "T-") {
		t.Errorf("id = %q, want T- prefix", id)
	}

	// Defaults place it in the first column under the acting agent.
	path := filepath.Join(root, "issues", "backlog", id+".yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("issue record not at %s: %v", path, err)
	}

	s := issueByID(t, c, root, id)
	if s.Column != "backlog" {
		t.Errorf("Column = %q, want backlog", s.Column)
	}
	if s.Priority != "medium" {
		t.Errorf("Priority = %q, want medium", s.Priority)
	}
	if !reflect.DeepEqual(s.Assignees, []string{"alice"}) {
		t.Errorf("Assignees = %v, want [alice]", s.Assignees)
	}
}

func TestCreateIssueValidation(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()

	tests := []struct {
		name   string
		params board.CreateIssueParams
		want   error
	}{
		{name: "missing title", params: board.CreateIssueParams{}, want: errors.ErrMissingInput},
		{name: "unknown column", params: board.CreateIssueParams{Title: "x", Column: "shipping"}, want: errors.ErrColumnUnknown},
		{name: "unknown assignee", params: board.CreateIssueParams{Title: "x", Assignees: []string{"mallory"}}, want: errors.ErrAgentUnknown},
		{name: "unknown requester", params: board.CreateIssueParams{Title: "x", RequestedBy: "mallory"}, want: errors.ErrAgentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateIssue(ctx, tt.params)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateIssue() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestListMine(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice", "bob")
	alice := testutil.NewTestClient(t, root, "alice")
	bob := testutil.NewTestClient(t, root, "bob")
	ctx := context.Background()

	mustCreate(t, alice, board.CreateIssueParams{Title: "mine 1"})
	mustCreate(t, alice, board.CreateIssueParams{Title: "mine 2", Column: "todo"})
	mustCreate(t, alice, board.CreateIssueParams{Title: "theirs", Assignees: []string{"bob"}})

	t.Run("only mine", func(t *testing.T) {
		got, err := alice.ListMine(ctx, "", 0)
		if err != nil {
			t.Fatalf("ListMine() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
	})

	t.Run("column filter", func(t *testing.T) {
		got, err := alice.ListMine(ctx, "todo", 0)
		if err != nil {
			t.Fatalf("ListMine() error = %v", err)
		}
		if len(got) != 1 || got[0].Title != "mine 2" {
			t.Fatalf("got = %+v, want single todo issue", got)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := alice.ListMine(ctx, "", 1)
		if err != nil {
			t.Fatalf("ListMine() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
	})

	t.Run("assignee sees theirs", func(t *testing.T) {
		got, err := bob.ListMine(ctx, "", 0)
		if err != nil {
			t.Fatalf("ListMine() error = %v", err)
		}
		if len(got) != 1 || got[0].Title != "theirs" {
			t.Fatalf("got = %+v, want single issue for bob", got)
		}
	})
}

func TestMove(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()

	id := mustCreate(t, c, board.CreateIssueParams{Title: "Move me"})

	msg, err := c.Move(ctx, id, "todo")
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if !strings.Contains(msg, "backlog") || !strings.Contains(msg, "todo") {
		t.Errorf("message = %q, want both columns named", msg)
	}

	if _, err := os.Stat(filepath.Join(root, "issues", "todo", id+".yaml")); err != nil {
		t.Errorf("record not relocated to todo: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "issues", "backlog", id+".yaml")); !os.IsNotExist(err) {
		t.Errorf("old record still present in backlog (err = %v)", err)
	}

	s := issueByID(t, c, root, id)
	if s.Column != "todo" {
		t.Errorf("Column = %q, want todo", s.Column)
	}
}

func TestMoveUnknownTargets(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()

	if _, err := c.Move(ctx, "T-nope", "todo"); !errors.Is(err, errors.ErrIssueNotFound) {
		t.Errorf("Move(unknown issue) error = %v, want ErrIssueNotFound", err)
	}
	id := mustCreate(t, c, board.CreateIssueParams{Title: "x"})
	if _, err := c.Move(ctx, id, "shipping"); !errors.Is(err, errors.ErrColumnUnknown) {
		t.Errorf("Move(unknown column) error = %v, want ErrColumnUnknown", err)
	}
}

func TestMoveNoOp(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()

	id := mustCreate(t, c, board.CreateIssueParams{Title: "Stay put"})
	before := historyLen(t, root, "backlog", id)

	msg, err := c.Move(ctx, id, "backlog")
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if !strings.Contains(msg, "already in column") {
		t.Errorf("message = %q, want already-in-column notice", msg)
	}
	if got := historyLen(t, root, "backlog", id); got != before {
		t.Errorf("history grew on no-op move: %d -> %d", before, got)
	}
	if _, err := os.Stat(filepath.Join(root, "issues", "backlog", id+".yaml")); err != nil {
		t.Errorf("record moved on no-op: %v", err)
	}
}

func TestUpdateField(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()

	id := mustCreate(t, c, board.CreateIssueParams{Title: "before"})

	t.Run("title", func(t *testing.T) {
		msg, err := c.UpdateField(ctx, id, "title", "after")
		if err != nil {
			t.Fatalf("UpdateField() error = %v", err)
		}
		if !strings.Contains(msg, `"before"`) || !strings.Contains(msg, `"after"`) {
			t.Errorf("message = %q, want old and new values", msg)
		}
		if s := issueByID(t, c, root, id); s.Title != "after" {
			t.Errorf("Title = %q, want after", s.Title)
		}
	})

	t.Run("tags from delimited string", func(t *testing.T) {
		if _, err := c.UpdateField(ctx, id, "tags", "infra, urgent; infra"); err != nil {
			t.Fatalf("UpdateField() error = %v", err)
		}
		s := issueByID(t, c, root, id)
		if !reflect.DeepEqual(s.Tags, []string{"infra", "urgent"}) {
			t.Errorf("Tags = %v, want [infra urgent]", s.Tags)
		}
	})

	t.Run("disallowed field", func(t *testing.T) {
		_, err := c.UpdateField(ctx, id, "assignees", "bob")
		if !errors.Is(err, errors.ErrFieldNotAllowed) {
			t.Errorf("UpdateField(assignees) error = %v, want ErrFieldNotAllowed", err)
		}
	})
}

func TestAddCommentAndComments(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()

	id := mustCreate(t, c, board.CreateIssueParams{Title: "Discuss"})

	first, err := c.AddComment(ctx, id, "first thoughts")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	second, err := c.AddComment(ctx, id, "second thoughts")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if first == "" || first == second {
		t.Errorf("comment ids not unique: %q, %q", first, second)
	}

	got, err := c.Comments(ctx, id)
	if err != nil {
		t.Fatalf("Comments() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].CommentID != first || got[0].Details != "first thoughts" {
		t.Errorf("first comment = %+v", got[0])
	}
	if got[1].CommentID != second || got[1].By != "alice" {
		t.Errorf("second comment = %+v", got[1])
	}

	if _, err := c.AddComment(ctx, id, "  "); !errors.Is(err, errors.ErrMissingInput) {
		t.Errorf("AddComment(blank) error = %v, want ErrMissingInput", err)
	}
}

func TestHistoryAppendOnly(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice", "bob")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()

	id := mustCreate(t, c, board.CreateIssueParams{Title: "Audited"})
	column := "backlog"
	prev := loadHistory(t, root, column, id)
	if len(prev) != 1 || prev[0].Event != board.HistoryCreated {
		t.Fatalf("history after create = %+v, want single created entry", prev)
	}

	steps := []struct {
		name string
		op   func() error
		want string
	}{
		{"move", func() error { _, err := c.Move(ctx, id, "todo"); column = "todo"; return err }, board.HistoryMoved},
		{"update-field", func() error { _, err := c.UpdateField(ctx, id, "priority", "high"); return err }, board.HistoryUpdated},
		{"add-comment", func() error { _, err := c.AddComment(ctx, id, "note"); return err }, board.HistoryComment},
		{"reassign", func() error { _, err := c.Reassign(ctx, id, "bob", false, true); return err }, board.HistoryReassigned},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			if err := step.op(); err != nil {
				t.Fatalf("%s error = %v", step.name, err)
			}
			got := loadHistory(t, root, column, id)
			if len(got) != len(prev)+1 {
				t.Fatalf("history length = %d, want %d", len(got), len(prev)+1)
			}
			if !reflect.DeepEqual(got[:len(prev)], prev) {
				t.Error("prior history entries changed")
			}
			if last := got[len(got)-1]; last.Event != step.want {
				t.Errorf("appended event = %q, want %q", last.Event, step.want)
			}
			prev = got
		})
	}
}

func TestLifecycleEmitsOneCompletionEvent(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice", "bob")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()

	id := mustCreate(t, c, board.CreateIssueParams{
		Title:       "Spec core",
		Column:      "backlog",
		Assignees:   []string{"alice"},
		RequestedBy: "bob",
	})
	for _, col := range []string{"todo", "doing"} {
		if _, err := c.Move(ctx, id, col); err != nil {
			t.Fatalf("Move(%s) error = %v", col, err)
		}
	}
	if _, err := c.AddComment(ctx, id, "starting"); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if _, err := c.Move(ctx, id, "done"); err != nil {
		t.Fatalf("Move(done) error = %v", err)
	}

	events, err := mailbox.NewStore(root).ListPending(ctx, "bob", mailbox.EventCompletion, 0)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("pending completion events = %d, want exactly 1", len(events))
	}
	if got := events[0].Data["issue_id"]; got != id {
		t.Errorf("event issue_id = %v, want %s", got, id)
	}
	if events[0].CreatedBy != "alice" {
		t.Errorf("event CreatedBy = %q, want alice", events[0].CreatedBy)
	}
}

func TestMoveToDoneDoesNotNotifySelf(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()

	id := mustCreate(t, c, board.CreateIssueParams{Title: "Self-requested"})
	if _, err := c.Move(ctx, id, "done"); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	events, err := mailbox.NewStore(root).ListPending(ctx, "alice", "", 0)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("self-requester received %d events, want 0", len(events))
	}
}

func TestReassignSemantics(t *testing.T) {
	root := testutil.SetupTestBoard(t, "alice", "bob", "carol")
	c := testutil.NewTestClient(t, root, "alice")
	ctx := context.Background()
	mbox := mailbox.NewStore(root)

	id := mustCreate(t, c, board.CreateIssueParams{Title: "Shared work", Assignees: []string{"alice"}})

	t.Run("keep existing unions", func(t *testing.T) {
		if _, err := c.Reassign(ctx, id, "bob", false, true); err != nil {
			t.Fatalf("Reassign() error = %v", err)
		}
		s := issueByID(t, c, root, id)
		if !reflect.DeepEqual(s.Assignees, []string{"alice", "bob"}) {
			t.Fatalf("Assignees = %v, want [alice bob]", s.Assignees)
		}

		bobEvents, err := mbox.ListPending(ctx, "bob", mailbox.EventAssignment, 0)
		if err != nil {
			t.Fatalf("ListPending() error = %v", err)
		}
		if len(bobEvents) != 1 {
			t.Errorf("bob assignment events = %d, want 1", len(bobEvents))
		}
		aliceEvents, err := mbox.ListPending(ctx, "alice", "", 0)
		if err != nil {
			t.Fatalf("ListPending() error = %v", err)
		}
		if len(aliceEvents) != 0 {
			t.Errorf("pre-existing assignee alice got %d events, want 0", len(aliceEvents))
		}
	})

	t.Run("replace drops everyone else", func(t *testing.T) {
		if _, err := c.Reassign(ctx, id, "carol", false, false); err != nil {
			t.Fatalf("Reassign() error = %v", err)
		}
		carol := testutil.NewTestClient(t, root, "carol")
		s := issueByID(t, carol, root, id)
		if !reflect.DeepEqual(s.Assignees, []string{"carol"}) {
			t.Fatalf("Assignees = %v, want [carol]", s.Assignees)
		}
	})

	t.Run("unknown assignee", func(t *testing.T) {
		if _, err := c.Reassign(ctx, id, "mallory", false, true); !errors.Is(err, errors.ErrAgentUnknown) {
			t.Errorf("Reassign() error = %v, want ErrAgentUnknown", err)
		}
	})

	t.Run("missing assignee without superagent", func(t *testing.T) {
		if _, err := c.Reassign(ctx, id, "", false, true); !errors.Is(err, errors.ErrMissingInput) {
			t.Errorf("Reassign() error = %v, want ErrMissingInput", err)
		}
	})
}

func TestReassignToSuperagent(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	if _, err := board.InitBoard(ctx, root, board.InitParams{
		BoardID:             "b1",
		OwnerAgentID:        "alice",
		DefaultSuperagentID: "super",
	}); err != nil {
		t.Fatalf("InitBoard() error = %v", err)
	}
	c := testutil.NewTestClient(t, root, "alice")

	id := mustCreate(t, c, board.CreateIssueParams{Title: "Escalate"})
	if _, err := c.Reassign(ctx, id, "", true, false); err != nil {
		t.Fatalf("Reassign(toSuperagent) error = %v", err)
	}
	super := testutil.NewTestClient(t, root, "super")
	s := issueByID(t, super, root, id)
	if !reflect.DeepEqual(s.Assignees, []string{"super"}) {
		t.Errorf("Assignees = %v, want [super]", s.Assignees)
	}
}
