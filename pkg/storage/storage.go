// Package storage defines the backend contract for persisting tracking
// documents, plus three interchangeable implementations: a bleve-backed
// search index, a flat-file directory, and an in-memory map.
//
// All backends share identical matching semantics for Search, so callers can
// swap implementations without behavioral change. Backends translate their
// native failure signals into exactly three error kinds: missing index,
// missing document, and client error (see errors.go).
package storage

import "context"

// Document is the persisted shape of a tracking document. Values are the
// JSON-compatible set: string, bool, float64/int, []any, map[string]any.
type Document = map[string]any

// Result is a single Search hit: the document plus its backend-assigned ID.
type Result struct {
	ID  string
	Doc Document
}

// Query is the structural predicate supported by every backend: an
// exact-match conjunction over fields, plus fields that must be absent.
//
// This is intentionally minimal - it is exactly the shape the uniqueness
// lookup needs and nothing more.
type Query struct {
	// Terms maps field name to required value. All terms must match.
	Terms map[string]any

	// NotExists lists fields that must not be present in a matching
	// document. Used to distinguish task-level documents from their
	// step-level children sharing a container.
	NotExists []string
}

// IndexOptions carries schema settings and field mappings for EnsureIndex.
// Backends that have no schema concept ignore what they cannot apply.
type IndexOptions struct {
	Settings map[string]any
	Mappings map[string]any
}

// Backend is the storage contract shared by all tracker levels.
//
// Implementations must:
//   - Auto-create the index on Save (write paths never fail with a
//     missing-index error).
//   - Make every write immediately visible to a subsequent Search. This is
//     the only ordering guarantee the uniqueness lookup relies on.
//   - Be safe for concurrent use.
type Backend interface {
	// Save creates or updates a document. An empty docID creates a new
	// document and returns the assigned ID; a non-empty docID upserts and
	// is safe to repeat (no duplicate creation).
	Save(ctx context.Context, index, docID string, doc Document) (string, error)

	// Get retrieves a document by ID. Returns a missing-index error if the
	// index does not exist, or a missing-document error if the ID is absent.
	Get(ctx context.Context, index, docID string) (Document, error)

	// Search returns documents matching q, ordered by document ID. A size
	// of zero means unbounded; a positive size caps the result count.
	Search(ctx context.Context, index string, q Query, size int) ([]Result, error)

	// EnsureIndex idempotently creates the index with the given options.
	// A no-op if the index already exists.
	EnsureIndex(ctx context.Context, index string, opts IndexOptions) error
}
