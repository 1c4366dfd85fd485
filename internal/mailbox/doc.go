// Package mailbox provides per-agent asynchronous notifications for CrewKan
// boards.
//
// Agents coordinating through a shared board have no channel to signal each
// other directly, so the board emits events into per-agent mailbox
// directories: one YAML record file per event, written through the same
// durable record I/O as every other board record.
//
//	<root>/events/<agent-id>/<event-id>.yaml
//
// # Event Lifecycle
//
// Events are created pending and transition monotonically to read or
// archived; they are never resurrected. mark-read and archive are idempotent
// and report "not found" as a boolean rather than an error, since polling
// for an event that another process already handled is a normal race in
// this model.
//
// No agent or issue record is ever mutated by a mailbox operation, and
// event delivery is best-effort: a failed mailbox write never rolls back
// the board mutation that triggered it.
//
// # Main Types
//
//   - [Event]: one notification with type, creator, target, status, payload
//   - [Store]: file-based mailbox rooted at a board directory
//
// # Basic Usage
//
//	mb := mailbox.NewStore(boardRoot)
//
//	id, err := mb.Create(ctx, mailbox.EventCompletion, "bob", "alice", map[string]any{
//	    "issue_id": "T-1",
//	})
//
//	pending, err := mb.ListPending(ctx, "bob", "", 50)
//
//	ok, err := mb.MarkRead(ctx, "bob", id)
//
// [Store.Watch] delivers new pending events through fsnotify instead of
// polling.
package mailbox
