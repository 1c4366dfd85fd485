package board

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/seghcder/crewkan/internal/errors"
	"github.com/seghcder/crewkan/internal/mailbox"
	"github.com/seghcder/crewkan/internal/record"
	"github.com/seghcder/crewkan/internal/util"
)

// allowedFields is the set of simple issue fields UpdateField may touch.
// Everything else (id, column, assignees, history, timestamps) has a
// dedicated operation or is immutable.
// DefaultListLimit caps ListMine results when the caller passes no limit.
const DefaultListLimit = 50

// errStopWalk is a walk-internal signal, never returned to callers.
var errStopWalk = errors.New("stop walk")

var allowedFields = map[string]bool{
	"title":       true,
	"description": true,
	"issue_type":  true,
	"priority":    true,
	"due_date":    true,
	"tags":        true,
}

// Client performs board operations on behalf of one acting agent. It is the
// unit of identity: the agent id given to NewClient is the author of every
// history entry and the actor reported to the audit sink.
//
// A Client loads board.yaml and the agent roster once at construction and
// treats them as read-only; issue records are re-read under lock on every
// operation, so concurrent Clients over the same root stay consistent.
type Client struct {
	root    string
	agentID string

	board   Board
	agents  map[string]Agent
	order   []string
	columns []string

	opts clientOptions
	mbox *mailbox.Store
}

// NewClient opens the board at root acting as agentID. The agent must exist
// in the board's roster.
func NewClient(ctx context.Context, root, agentID string, opts ...Option) (*Client, error) {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		root:    root,
		agentID: agentID,
		agents:  make(map[string]Agent),
		opts:    o,
	}

	boardRec, err := record.Load(ctx, filepath.Join(root, "board.yaml"), record.Record{}, o.recordOpts...)
	if err != nil {
		return nil, fmt.Errorf("load board record: %w", err)
	}
	if err := record.Decode(boardRec, &c.board); err != nil {
		return nil, fmt.Errorf("decode board record: %w", err)
	}

	var roster AgentFile
	agentsRec, err := record.Load(ctx, filepath.Join(root, "agents", "agents.yaml"), record.Record{}, o.recordOpts...)
	if err != nil {
		return nil, fmt.Errorf("load agent roster: %w", err)
	}
	if err := record.Decode(agentsRec, &roster); err != nil {
		return nil, fmt.Errorf("decode agent roster: %w", err)
	}
	for _, a := range roster.Agents {
		c.agents[a.ID] = a
		c.order = append(c.order, a.ID)
	}

	for _, col := range c.board.Columns {
		c.columns = append(c.columns, col.ID)
	}

	if _, ok := c.agents[agentID]; !ok {
		return nil, errors.NewDomainError("unknown agent id", errors.ErrAgentUnknown).WithAgentID(agentID)
	}

	c.opts.log = c.opts.log.WithBoard(c.board.BoardID).WithAgent(agentID)
	c.mbox = mailbox.NewStore(root,
		mailbox.WithLogger(c.opts.log),
		mailbox.WithRecordOptions(o.recordOpts...))
	return c, nil
}

// AgentID returns the acting agent identity this client was opened with.
func (c *Client) AgentID() string { return c.agentID }

// Board returns the board record loaded at construction.
func (c *Client) Board() Board { return c.board }

// Agent looks up one agent in the roster.
func (c *Client) Agent(id string) (Agent, bool) {
	a, ok := c.agents[id]
	return a, ok
}

// Agents returns the roster in declaration order.
func (c *Client) Agents() []Agent {
	out := make([]Agent, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.agents[id])
	}
	return out
}

// DefaultSuperagentID returns the board's configured escalation target, or
// empty when none is set.
func (c *Client) DefaultSuperagentID() string {
	return c.board.Settings.DefaultSuperagentID
}

// terminalColumn is the last declared column, the stage at which an issue is
// considered complete and its requester gets notified.
func (c *Client) terminalColumn() string {
	if len(c.columns) == 0 {
		return ""
	}
	return c.columns[len(c.columns)-1]
}

func (c *Client) knownColumn(id string) bool {
	for _, col := range c.columns {
		if col == id {
			return true
		}
	}
	return false
}

func (c *Client) issuesRoot() string {
	return filepath.Join(c.root, "issues")
}

func (c *Client) issuePath(column, issueID string) string {
	return filepath.Join(c.issuesRoot(), column, issueID+".yaml")
}

// CreateIssueParams carries the caller-supplied fields for CreateIssue.
// Zero values fall back to board defaults: Column to the first declared
// column, Assignees to the acting agent, RequestedBy to the acting agent,
// Priority and IssueType to the board settings.
type CreateIssueParams struct {
	Title        string
	Description  string
	Column       string
	Assignees    []string
	Priority     string
	IssueType    string
	Tags         []string
	Dependencies []string
	DueDate      string
	RequestedBy  string
}

// CreateIssue creates a new issue and returns its generated id.
func (c *Client) CreateIssue(ctx context.Context, p CreateIssueParams) (string, error) {
	if strings.TrimSpace(p.Title) == "" {
		return "", errors.NewDomainError("issue title is required", errors.ErrMissingInput).WithField("title")
	}

	column := p.Column
	if column == "" && len(c.columns) > 0 {
		column = c.columns[0]
	}
	if !c.knownColumn(column) {
		return "", errors.NewDomainError("unknown column", errors.ErrColumnUnknown).WithColumn(column)
	}

	assignees := p.Assignees
	if len(assignees) == 0 {
		assignees = []string{c.agentID}
	}
	for _, a := range assignees {
		if _, ok := c.agents[a]; !ok {
			return "", errors.NewDomainError("unknown assignee id", errors.ErrAgentUnknown).WithAgentID(a)
		}
	}
	requestedBy := p.RequestedBy
	if requestedBy == "" {
		requestedBy = c.agentID
	}
	if _, ok := c.agents[requestedBy]; !ok {
		return "", errors.NewDomainError("unknown requester id", errors.ErrAgentUnknown).WithAgentID(requestedBy)
	}

	priority := p.Priority
	if priority == "" {
		priority = c.board.Settings.DefaultPriority
	}
	if priority == "" {
		priority = "medium"
	}
	issueType := p.IssueType
	if issueType == "" {
		issueType = c.board.Settings.DefaultIssueType
	}

	id := GenerateIssueID(c.board.Settings.IDPrefix)
	now := util.NowISO()
	issue := Issue{
		ID:           id,
		Title:        p.Title,
		Description:  p.Description,
		Status:       column,
		Column:       column,
		IssueType:    issueType,
		Priority:     priority,
		Tags:         util.NormalizeTags(p.Tags),
		Assignees:    sortedUnique(assignees),
		Dependencies: p.Dependencies,
		CreatedAt:    now,
		UpdatedAt:    now,
		DueDate:      p.DueDate,
		RequestedBy:  requestedBy,
		History: []HistoryEntry{{
			At:      now,
			By:      c.agentID,
			Event:   HistoryCreated,
			Details: fmt.Sprintf("Issue created in column %s", column),
		}},
	}
	if issue.Tags == nil {
		issue.Tags = []string{}
	}
	if issue.Dependencies == nil {
		issue.Dependencies = []string{}
	}

	if err := c.saveIssue(ctx, c.issuePath(column, id), &issue); err != nil {
		return "", err
	}
	c.opts.sink.Mutation("create", c.agentID, id, map[string]any{"column": column, "title": p.Title})
	c.opts.log.Info("issue created", "issue_id", id, "column", column)
	return id, nil
}

// ListMine returns summaries of issues assigned to the acting agent,
// optionally filtered by column. limit 0 uses DefaultListLimit.
func (c *Client) ListMine(ctx context.Context, column string, limit int) ([]IssueSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var out []IssueSummary
	err := c.walkIssues(ctx, func(path string, issue *Issue) (bool, error) {
		if !containsString(issue.Assignees, c.agentID) {
			return true, nil
		}
		if column != "" && issue.CurrentColumn() != column {
			return true, nil
		}
		out = append(out, IssueSummary{
			ID:        issue.ID,
			Title:     issue.Title,
			Column:    issue.CurrentColumn(),
			Priority:  issue.Priority,
			Assignees: issue.Assignees,
			DueDate:   issue.DueDate,
			Tags:      issue.Tags,
		})
		return len(out) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Move relocates an issue to another column: the record's column and status
// fields, its history, its file location, and the acting agent's workspace
// links all change together. Moving to the current column is a no-op that
// appends nothing. Moving to the board's terminal column emits a completion
// event to the issue's requester.
func (c *Client) Move(ctx context.Context, issueID, newColumn string) (string, error) {
	if !c.knownColumn(newColumn) {
		return "", errors.NewDomainError("unknown column", errors.ErrColumnUnknown).WithColumn(newColumn)
	}

	path, issue, err := c.findIssue(ctx, issueID)
	if err != nil {
		return "", err
	}
	oldColumn := issue.CurrentColumn()
	if oldColumn == newColumn {
		return fmt.Sprintf("Issue %s is already in column %q.", issueID, newColumn), nil
	}

	issue.Column = newColumn
	issue.Status = newColumn
	c.appendHistory(issue, HistoryMoved, fmt.Sprintf("%s -> %s", oldColumn, newColumn))

	newPath := c.issuePath(newColumn, issueID)
	if err := c.saveIssue(ctx, newPath, issue); err != nil {
		return "", err
	}
	if newPath != path {
		if err := os.Remove(path); err != nil {
			// The new copy is already durable; the stale one only shadows it
			// until the next successful move or a manual sweep.
			c.opts.log.Warn("could not remove old issue file after move",
				"issue_id", issueID, "path", path, "error", err.Error())
		}
	}

	c.updateWorkspaceLinks(issueID, oldColumn, newColumn)
	c.opts.sink.Mutation("move", c.agentID, issueID, map[string]any{"from": oldColumn, "to": newColumn})
	c.opts.log.Info("issue moved", "issue_id", issueID, "from", oldColumn, "to", newColumn)

	if newColumn == c.terminalColumn() {
		c.notifyCompletion(ctx, issue)
	}
	return fmt.Sprintf("Moved issue %s from %q to %q.", issueID, oldColumn, newColumn), nil
}

// UpdateField updates one simple top-level issue field. Only title,
// description, issue_type, priority, due_date, and tags are allowed; tags
// accepts a []string or a delimited string and is normalized to a sorted set.
func (c *Client) UpdateField(ctx context.Context, issueID, field string, value any) (string, error) {
	if !allowedFields[field] {
		return "", errors.NewDomainError(
			fmt.Sprintf("field not allowed, allowed: %s", strings.Join(sortedKeys(allowedFields), ", ")),
			errors.ErrFieldNotAllowed).WithField(field)
	}

	path, issue, err := c.findIssue(ctx, issueID)
	if err != nil {
		return "", err
	}

	var oldValue, newValue string
	switch field {
	case "title":
		oldValue, newValue = issue.Title, fmt.Sprint(value)
		issue.Title = newValue
	case "description":
		oldValue, newValue = issue.Description, fmt.Sprint(value)
		issue.Description = newValue
	case "issue_type":
		oldValue, newValue = issue.IssueType, fmt.Sprint(value)
		issue.IssueType = newValue
	case "priority":
		oldValue, newValue = issue.Priority, fmt.Sprint(value)
		issue.Priority = newValue
	case "due_date":
		oldValue, newValue = issue.DueDate, fmt.Sprint(value)
		issue.DueDate = newValue
	case "tags":
		tags := util.NormalizeTags(value)
		oldValue, newValue = strings.Join(issue.Tags, ","), strings.Join(tags, ",")
		issue.Tags = tags
	}

	c.appendHistory(issue, HistoryUpdated, fmt.Sprintf("%s: %q -> %q", field, oldValue, newValue))
	if err := c.saveIssue(ctx, path, issue); err != nil {
		return "", err
	}
	c.opts.sink.Mutation("update_field", c.agentID, issueID, map[string]any{"field": field})
	return fmt.Sprintf("Updated issue %s field %q from %q to %q.", issueID, field, oldValue, newValue), nil
}

// AddComment appends a comment history entry and returns its comment id.
// Earlier comments are never modified.
func (c *Client) AddComment(ctx context.Context, issueID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.NewDomainError("comment text is required", errors.ErrMissingInput).WithField("comment")
	}

	path, issue, err := c.findIssue(ctx, issueID)
	if err != nil {
		return "", err
	}

	commentID := generateCommentID()
	issue.UpdatedAt = util.NowISO()
	issue.History = append(issue.History, HistoryEntry{
		At:        issue.UpdatedAt,
		By:        c.agentID,
		Event:     HistoryComment,
		Details:   text,
		CommentID: commentID,
	})
	if err := c.saveIssue(ctx, path, issue); err != nil {
		return "", err
	}
	c.opts.sink.Mutation("add_comment", c.agentID, issueID, map[string]any{"comment_id": commentID})
	return commentID, nil
}

// Comments returns the issue's comment history entries in order.
func (c *Client) Comments(ctx context.Context, issueID string) ([]HistoryEntry, error) {
	_, issue, err := c.findIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	var out []HistoryEntry
	for _, h := range issue.History {
		if h.Event == HistoryComment {
			out = append(out, h)
		}
	}
	return out, nil
}

// Reassign changes an issue's assignee set. With toSuperagent, the board's
// default superagent is the new assignee and newAssignee is ignored. With
// keepExisting the new assignee joins the existing set; otherwise the set is
// replaced entirely. Newly-added assignees other than the acting agent get
// an assignment event.
func (c *Client) Reassign(ctx context.Context, issueID, newAssignee string, toSuperagent, keepExisting bool) (string, error) {
	if toSuperagent {
		newAssignee = c.DefaultSuperagentID()
		if newAssignee == "" {
			return "", errors.NewDomainError("no default superagent configured on board", errors.ErrMissingInput)
		}
	}
	if newAssignee == "" {
		return "", errors.NewDomainError("new assignee is required unless reassigning to superagent", errors.ErrMissingInput).WithField("assignee")
	}
	if _, ok := c.agents[newAssignee]; !ok {
		return "", errors.NewDomainError("unknown assignee id", errors.ErrAgentUnknown).WithAgentID(newAssignee)
	}

	path, issue, err := c.findIssue(ctx, issueID)
	if err != nil {
		return "", err
	}

	old := issue.Assignees
	var updated []string
	if keepExisting {
		updated = util.UnionSorted(old, newAssignee)
	} else {
		updated = []string{newAssignee}
	}
	var added []string
	for _, a := range updated {
		if !containsString(old, a) {
			added = append(added, a)
		}
	}

	details := fmt.Sprintf("%v -> %v", old, updated)
	issue.Assignees = updated
	c.appendHistory(issue, HistoryReassigned, details)
	if err := c.saveIssue(ctx, path, issue); err != nil {
		return "", err
	}
	c.opts.sink.Mutation("reassign", c.agentID, issueID, map[string]any{"assignees": updated})

	for _, a := range added {
		if a == c.agentID {
			continue
		}
		c.notifyAssignment(ctx, issue, a)
	}
	return fmt.Sprintf("Reassigned issue %s: %s", issueID, details), nil
}

// appendHistory stamps updated_at and appends one history entry.
func (c *Client) appendHistory(issue *Issue, event, details string) {
	issue.UpdatedAt = util.NowISO()
	issue.History = append(issue.History, HistoryEntry{
		At:      issue.UpdatedAt,
		By:      c.agentID,
		Event:   event,
		Details: details,
	})
}

// walkIssues visits every issue record under the issues root. The visitor
// returns false to stop early. Records that fail to load are skipped with a
// warning so one corrupt file cannot take down every listing.
func (c *Client) walkIssues(ctx context.Context, visit func(path string, issue *Issue) (bool, error)) error {
	root := c.issuesRoot()
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}
		issue, ok := c.loadIssue(ctx, path)
		if !ok {
			return nil
		}
		cont, verr := visit(path, issue)
		if verr != nil {
			return verr
		}
		if !cont {
			return errStopWalk
		}
		return nil
	})
	if errors.Is(err, errStopWalk) {
		return nil
	}
	return err
}

// findIssue locates an issue by id with a directory scan. There is no id
// index; the scan cost is accepted at board scale.
func (c *Client) findIssue(ctx context.Context, issueID string) (string, *Issue, error) {
	var foundPath string
	var found *Issue
	err := c.walkIssues(ctx, func(path string, issue *Issue) (bool, error) {
		if issue.ID == issueID {
			foundPath, found = path, issue
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return "", nil, err
	}
	if found == nil {
		return "", nil, errors.NewDomainError("issue not found", errors.ErrIssueNotFound).WithIssueID(issueID)
	}
	return foundPath, found, nil
}

func (c *Client) loadIssue(ctx context.Context, path string) (*Issue, bool) {
	rec, err := record.Load(ctx, path, nil, c.opts.recordOpts...)
	if err != nil || rec == nil {
		if err != nil {
			c.opts.log.Warn("skipping unreadable issue record", "path", path, "error", err.Error())
		}
		return nil, false
	}
	var issue Issue
	if err := record.Decode(rec, &issue); err != nil {
		c.opts.log.Warn("skipping undecodable issue record", "path", path, "error", err.Error())
		return nil, false
	}
	return &issue, true
}

func (c *Client) saveIssue(ctx context.Context, path string, issue *Issue) error {
	rec, err := record.Encode(issue)
	if err != nil {
		return fmt.Errorf("encode issue record: %w", err)
	}
	return record.Save(ctx, path, rec, c.opts.recordOpts...)
}

// notifyCompletion emits a completion event to the issue's requester,
// falling back to the board's default superagent. Failures are logged and
// swallowed: the move already succeeded and is the source of truth.
func (c *Client) notifyCompletion(ctx context.Context, issue *Issue) {
	if !c.opts.notifications {
		return
	}
	target := issue.RequestedBy
	if target == "" {
		target = c.DefaultSuperagentID()
	}
	if target == "" || target == c.agentID {
		return
	}
	data := map[string]any{
		"issue_id":          issue.ID,
		"issue_title":       issue.Title,
		"issue_description": issue.Description,
		"completed_by":      c.agentID,
		"completed_at":      util.NowISO(),
	}
	if _, err := c.mbox.Create(ctx, mailbox.EventCompletion, target, c.agentID, data); err != nil {
		c.opts.log.Warn("could not deliver completion event",
			"issue_id", issue.ID, "notify_agent", target, "error", err.Error())
	}
}

// notifyAssignment emits an assignment event to one newly-added assignee.
// Best-effort, same policy as notifyCompletion.
func (c *Client) notifyAssignment(ctx context.Context, issue *Issue, assignee string) {
	if !c.opts.notifications {
		return
	}
	data := map[string]any{
		"issue_id":          issue.ID,
		"issue_title":       issue.Title,
		"issue_description": issue.Description,
		"assigned_to":       assignee,
		"assigned_by":       c.agentID,
		"assigned_at":       util.NowISO(),
	}
	if _, err := c.mbox.Create(ctx, mailbox.EventAssignment, assignee, c.agentID, data); err != nil {
		c.opts.log.Warn("could not deliver assignment event",
			"issue_id", issue.ID, "notify_agent", assignee, "error", err.Error())
	}
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func sortedUnique(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
