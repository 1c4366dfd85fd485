// Package board implements the record store and workflow engine for a
// filesystem-resident kanban board.
//
// A board lives in a single root directory: board.yaml declares the ordered
// workflow columns and board settings, agents/agents.yaml declares the set of
// known agents, and each issue is one YAML file under issues/<column>/. Column
// membership is encoded twice, as the issue's column field and as the
// directory the record file lives in; every operation keeps the two in sync.
//
// All operations act on behalf of a single agent identity carried by a
// Client. Every mutation appends exactly one entry to the issue's append-only
// history before persisting, and all record reads and writes go through
// package record, which provides advisory locking, backups, and atomic
// writes. Moving an issue to the board's terminal column and adding new
// assignees emit best-effort notification events through package mailbox;
// mailbox failures never roll back the issue mutation.
package board
