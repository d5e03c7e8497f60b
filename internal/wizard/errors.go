package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicatePending is returned by Submit when another application is
	// already pending for the same establishment, category and owner.
	ErrDuplicatePending = errors.New("a pending application already exists for this establishment and category")

	// ErrSubmissionInFlight guards against re-entrant session operations
	// while a submission round trip is outstanding.
	ErrSubmissionInFlight = errors.New("a submission is already in progress")

	// ErrSessionClosed is returned for operations on a session that was
	// closed after a successful submission.
	ErrSessionClosed = errors.New("wizard session is closed")
)

// ValidationError carries the per-field/per-slug messages that blocked a
// submission. It is recoverable: the session stays interactive.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// UploadError reports that resolving a staged file failed. The session is
// left intact so the user can retry or pick a different file.
type UploadError struct {
	Slug string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("document upload failed for %q: %v", e.Slug, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistenceError reports an insert/update failure. Session state is
// preserved so the user can resubmit without re-entering data.
type PersistenceError struct {
	Op  string // "insert", "update" or "lookup"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
