package store

import (
	"errors"
	"fmt"
)

// Common errors returned by remote store operations.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, store.ErrConflict) {
//	    // Another writer advanced the document; re-fetch and retry.
//	}
var (
	// ErrNotFound is returned when the document path does not exist in
	// the remote repository.
	ErrNotFound = errors.New("document not found")

	// ErrAuth is returned when the remote service rejects the credential.
	ErrAuth = errors.New("authentication rejected")

	// ErrConflict is returned when a write carries a stale revision
	// token, i.e. another writer committed first.
	ErrConflict = errors.New("remote revision conflict")

	// ErrConflictExhausted is returned when every retry attempt ended
	// in a revision conflict.
	ErrConflictExhausted = errors.New("conflict retries exhausted")

	// ErrTransient is returned for network failures, timeouts, and
	// remote 5xx responses.
	ErrTransient = errors.New("transient remote error")
)

// ConflictError reports a rejected write with the revision that was
// expected and, when the server discloses it, the revision currently at
// the path.
type ConflictError struct {
	ExpectedRevision string
	CurrentRevision  string
}

func (e *ConflictError) Error() string {
	if e.CurrentRevision != "" {
		return fmt.Sprintf("revision conflict: expected %s, remote is at %s", e.ExpectedRevision, e.CurrentRevision)
	}
	return fmt.Sprintf("revision conflict: expected %s", e.ExpectedRevision)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// APIError carries the HTTP status and server message of a failed call,
// classified into one of the sentinel errors above.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	class      error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.class }

// IsRetryable returns true if the error may succeed when the operation
// is re-run from a fresh fetch. Only revision conflicts qualify; any
// other write failure aborts the invocation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
