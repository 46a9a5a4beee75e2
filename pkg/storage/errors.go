package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend operations. Every implementation translates
// its native failure signals into exactly these kinds; no other error kind
// escapes this layer.
var (
	// ErrMissingIndex indicates the tracking index (container) does not
	// exist. Raised on read paths only; write paths auto-create.
	ErrMissingIndex = errors.New("index missing")

	// ErrMissingDocument indicates no document matches the requested ID or
	// predicate. Call sites that load history absorb this as "no prior
	// history", not an error.
	ErrMissingDocument = errors.New("document missing")

	// ErrClient indicates the storage medium itself failed (I/O, malformed
	// data, serialization).
	ErrClient = errors.New("storage client error")
)

// StorageError wraps a backend failure with operation context.
type StorageError struct {
	// Op is the operation that failed ("save", "get", "search", "ensure").
	Op string

	// Backend identifies the implementation ("bleve", "file", "memory").
	Backend string

	// Index is the index or container name.
	Index string

	// DocID is the document ID, if applicable.
	DocID string

	// Err is the underlying error, always one of the sentinels above or an
	// error wrapping one.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.DocID != "" {
		return fmt.Sprintf("%s %s: %s/%s: %v", e.Backend, e.Op, e.Index, e.DocID, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Backend, e.Op, e.Index, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsMissingIndex returns true if the error indicates an absent index.
func IsMissingIndex(err error) bool {
	return errors.Is(err, ErrMissingIndex)
}

// IsMissingDocument returns true if the error indicates an absent document.
func IsMissingDocument(err error) bool {
	return errors.Is(err, ErrMissingDocument)
}

// IsClient returns true if the error indicates a storage medium failure.
func IsClient(err error) bool {
	return errors.Is(err, ErrClient)
}
