// Package errors provides centralized error definitions and error handling
// utilities for the CrewKan core. It defines domain-specific errors, semantic
// error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides the error taxonomy shared by every core component:
//
//   - LockError: timeout or failure acquiring an advisory file lock
//   - ParseError: record content is unreadable or malformed
//   - StructureError: record content parsed but has the wrong shape
//   - ValidationError: record fields are semantically invalid
//   - DomainError: unknown column/agent/issue, disallowed field, missing input
//
// # Usage
//
// Creating errors:
//
//	// Lock acquisition timeout
//	err := errors.NewLockError("could not acquire lock", errors.ErrLockTimeout).WithPath(path)
//
//	// Domain error
//	err := errors.NewDomainError("unknown column", errors.ErrColumnUnknown).WithColumn("doing")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrLockTimeout) { ... }
//
//	var lockErr *errors.LockError
//	if errors.As(err, &lockErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry (lock timeouts,
//     transient I/O). Parse, structure, validation and domain errors are
//     deterministic and never retryable.
//   - UserFacing: errors safe to display to callers (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Lock-related sentinel errors
var (
	// ErrLockTimeout indicates that a lock could not be acquired within the timeout.
	ErrLockTimeout = New("lock acquisition timed out")
	// ErrLockReleaseFailed indicates that a lock marker could not be removed.
	ErrLockReleaseFailed = New("lock release failed")
)

// Record-related sentinel errors
var (
	// ErrRecordCorrupted indicates that record content could not be parsed.
	ErrRecordCorrupted = New("record content corrupted")
	// ErrRecordNotMapping indicates that record content parsed to a non-mapping value.
	ErrRecordNotMapping = New("record content is not a mapping")
	// ErrSchemaInvalid indicates that a record failed schema validation.
	ErrSchemaInvalid = New("record failed schema validation")
)

// Board-related sentinel errors
var (
	// ErrIssueNotFound indicates that an issue could not be located on the board.
	ErrIssueNotFound = New("issue not found")
	// ErrColumnUnknown indicates a column id not declared by the board.
	ErrColumnUnknown = New("unknown column")
	// ErrAgentUnknown indicates an agent id not present in the agent registry.
	ErrAgentUnknown = New("unknown agent")
	// ErrFieldNotAllowed indicates an update to a field outside the allow-list.
	ErrFieldNotAllowed = New("field not allowed")
	// ErrMissingInput indicates a required input was not provided.
	ErrMissingInput = New("missing required input")
	// ErrBoardExists indicates an attempt to initialize over an existing board.
	ErrBoardExists = New("board directory is not empty")
)

// Mailbox-related sentinel errors
var (
	// ErrEventNotFound indicates that a mailbox event could not be found.
	ErrEventNotFound = New("event not found")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CoreError is the base interface for all CrewKan errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type CoreError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Lock Errors
// -----------------------------------------------------------------------------

// LockError represents a failure to acquire or release an advisory file lock.
// Lock timeouts are retryable by the caller after backoff.
//
// Example:
//
//	err := errors.NewLockError("could not acquire lock", errors.ErrLockTimeout)
//	err = err.WithPath("/board/issues/todo/T-1.yaml")
type LockError struct {
	baseError
	Path string
}

// NewLockError creates a new LockError.
func NewLockError(message string, cause error) *LockError {
	return &LockError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
	}
}

// WithPath adds the locked resource path to the error context.
func (e *LockError) WithPath(path string) *LockError {
	e.Path = path
	return e
}

// WithSeverity sets the error severity.
func (e *LockError) WithSeverity(s Severity) *LockError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *LockError) Error() string {
	prefix := "lock error"
	if e.Path != "" {
		prefix = fmt.Sprintf("lock error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *LockError) Is(target error) bool {
	if _, ok := target.(*LockError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Record Errors
// -----------------------------------------------------------------------------

// ParseError represents record content that could not be parsed.
// It indicates external corruption and should be surfaced to an operator;
// retrying cannot help.
type ParseError struct {
	baseError
	Path string
}

// NewParseError creates a new ParseError.
func NewParseError(message string, cause error) *ParseError {
	return &ParseError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityCritical,
			retryable:  false,
			userFacing: false,
		},
	}
}

// WithPath adds the record file path to the error context.
func (e *ParseError) WithPath(path string) *ParseError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *ParseError) Error() string {
	prefix := "parse error"
	if e.Path != "" {
		prefix = fmt.Sprintf("parse error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ParseError) Is(target error) bool {
	if _, ok := target.(*ParseError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// StructureError represents record content that parsed successfully but has
// the wrong shape (e.g. a list or scalar where a mapping is required).
type StructureError struct {
	baseError
	Path string
}

// NewStructureError creates a new StructureError.
func NewStructureError(message string, cause error) *StructureError {
	return &StructureError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: false,
		},
	}
}

// WithPath adds the record file path to the error context.
func (e *StructureError) WithPath(path string) *StructureError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *StructureError) Error() string {
	prefix := "structure error"
	if e.Path != "" {
		prefix = fmt.Sprintf("structure error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StructureError) Is(target error) bool {
	if _, ok := target.(*StructureError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents a record with semantically invalid fields.
// It is raised before any disk mutation on save and is never retried.
type ValidationError struct {
	baseError
	Path  string
	Field string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithPath adds the record file path to the error context.
func (e *ValidationError) WithPath(path string) *ValidationError {
	e.Path = path
	return e
}

// WithField adds the offending field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Domain Errors
// -----------------------------------------------------------------------------

// DomainError represents a caller/business-logic fault: unknown column, agent
// or issue, a disallowed field, or missing required input.
//
// Example:
//
//	err := errors.NewDomainError("cannot move issue", errors.ErrColumnUnknown)
//	err = err.WithIssueID("T-1").WithColumn("shipping")
type DomainError struct {
	baseError
	IssueID string
	AgentID string
	Column  string
	Field   string
}

// NewDomainError creates a new DomainError.
func NewDomainError(message string, cause error) *DomainError {
	return &DomainError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithIssueID adds an issue id to the error context.
func (e *DomainError) WithIssueID(id string) *DomainError {
	e.IssueID = id
	return e
}

// WithAgentID adds an agent id to the error context.
func (e *DomainError) WithAgentID(id string) *DomainError {
	e.AgentID = id
	return e
}

// WithColumn adds a column id to the error context.
func (e *DomainError) WithColumn(column string) *DomainError {
	e.Column = column
	return e
}

// WithField adds a field name to the error context.
func (e *DomainError) WithField(field string) *DomainError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *DomainError) Error() string {
	var parts []string
	if e.IssueID != "" {
		parts = append(parts, fmt.Sprintf("issue=%s", e.IssueID))
	}
	if e.AgentID != "" {
		parts = append(parts, fmt.Sprintf("agent=%s", e.AgentID))
	}
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column=%s", e.Column))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}

	prefix := "domain error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("domain error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *DomainError) Is(target error) bool {
	if _, ok := target.(*DomainError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error is transient and the operation may
// succeed on retry. Errors that do not implement CoreError are not retryable.
func IsRetryable(err error) bool {
	var coreErr CoreError
	if As(err, &coreErr) {
		return coreErr.IsRetryable()
	}
	return false
}

// IsUserFacing returns true if the error message is safe to display to users.
func IsUserFacing(err error) bool {
	var coreErr CoreError
	if As(err, &coreErr) {
		return coreErr.IsUserFacing()
	}
	return false
}

// SeverityOf returns the severity of the error, or SeverityError for errors
// that do not implement CoreError.
func SeverityOf(err error) Severity {
	var coreErr CoreError
	if As(err, &coreErr) {
		return coreErr.Severity()
	}
	return SeverityError
}
