// Package record provides durable load/save of YAML record files.
//
// Records are the unit of persistence for boards, agents, issues and mailbox
// events: one human-readable YAML document per file, each a mapping at the
// top level, stamped with a schema_version tag.
//
// # Durability
//
// Save never leaves a partially-written record on disk. The new content is
// written to a temporary sibling (<record>.tmp) and renamed over the target;
// the rename is the only disk-visible mutation step, so a crash before it
// leaves the original intact and a crash after it leaves the new content
// intact. When a prior version of the file exists it is first copied to a
// .bak sibling, best-effort.
//
// Both Load and Save hold the record's advisory lock (see
// [github.com/seghcder/crewkan/internal/filelock]) for the duration of the
// filesystem work, and retry transient I/O failures up to a fixed bound.
// Parse, structure and validation errors are deterministic and are never
// retried.
//
// # Usage
//
//	rec, err := record.Load(ctx, path, record.Record{"agents": []any{}})
//
//	err = record.Save(ctx, path, rec, record.WithValidator(validateIssue))
//
// Typed entities convert to and from Record via [Encode] and [Decode].
package record
