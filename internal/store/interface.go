// Package store provides versioned access to the status document in a
// remote Git-hosted repository via its contents API.
package store

import (
	"context"

	"github.com/statusdash/statusctl/internal/schema"
)

// DocumentStore reads and writes the status document with optimistic
// concurrency.
//
// The revision token returned by Fetch identifies the exact version
// read. It is opaque: callers compare it for equality and hand it back
// to Write, nothing else.
type DocumentStore interface {
	// Fetch retrieves the current document and its revision token.
	//
	// Returns ErrNotFound if the configured path does not exist,
	// ErrAuth if the credential is rejected, and ErrTransient on
	// network failures or remote 5xx responses.
	Fetch(ctx context.Context) (*schema.Document, string, error)

	// Write persists the document only if the remote resource is still
	// at the given revision, recording a human-readable commit message.
	// On success it returns the new revision token.
	//
	// Returns ErrConflict (a *ConflictError) when the remote revision
	// has advanced since the fetch.
	Write(ctx context.Context, doc *schema.Document, revision, message string) (string, error)
}
