// Package engine implements the optimistic read-modify-write loop that
// applies mutations to the remote status document.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/statusdash/statusctl/internal/schema"
	"github.com/statusdash/statusctl/internal/store"
)

// DefaultMaxAttempts bounds the retry loop. Retries are immediate, with
// no backoff: attempts are cheap and concurrent writers are expected to
// be infrequent.
const DefaultMaxAttempts = 3

// Mutation transforms the document in place. Returning an error aborts
// the whole update with that error; the engine never retries a failed
// mutation. A mutation is re-invoked against a freshly fetched document
// after a revision conflict, so it must be safe to apply more than once
// to progressively newer states.
type Mutation func(doc *schema.Document) error

// Result describes a completed update.
type Result struct {
	// Document is the state that was written, as mutated from the
	// final fetch.
	Document *schema.Document

	// Revision is the token identifying the committed version.
	Revision string

	// Attempts is how many fetch/write rounds were needed.
	Attempts int
}

// Engine runs mutations against a DocumentStore with bounded
// retry-on-conflict.
type Engine struct {
	store       store.DocumentStore
	maxAttempts int
	logger      *log.Logger
}

// New creates an Engine. If logger is nil, a default logger writing to
// stderr is used.
func New(st store.DocumentStore, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}
	return &Engine{
		store:       st,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger,
	}
}

// SetMaxAttempts overrides the retry budget. Values below 1 are ignored.
func (e *Engine) SetMaxAttempts(n int) {
	if n >= 1 {
		e.maxAttempts = n
	}
}

// Update fetches the document, applies mutate, and writes the result
// back with the revision token from the fetch. When the write reports a
// revision conflict the whole round is discarded and re-run from a
// fresh fetch, so the mutation lands on top of whatever the competing
// writer committed. Any other write failure aborts immediately.
//
// Exhausting the retry budget on repeated conflicts returns
// store.ErrConflictExhausted.
func (e *Engine) Update(ctx context.Context, mutate Mutation, message string) (*Result, error) {
	var lastConflict error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		doc, revision, err := e.store.Fetch(ctx)
		if err != nil {
			return nil, err
		}

		if err := mutate(doc); err != nil {
			return nil, err
		}

		newRevision, err := e.store.Write(ctx, doc, revision, message)
		if err == nil {
			return &Result{Document: doc, Revision: newRevision, Attempts: attempt}, nil
		}
		if !store.IsRetryable(err) {
			return nil, err
		}

		lastConflict = err
		e.logger.Printf("revision conflict on attempt %d/%d, retrying", attempt, e.maxAttempts)
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", store.ErrConflictExhausted, e.maxAttempts, lastConflict)
}
