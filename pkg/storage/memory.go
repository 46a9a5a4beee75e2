package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryBackend stores documents in a process-local map. No persistence;
// it serves as the reference implementation and as a test double for the
// other backends.
type MemoryBackend struct {
	mu  sync.RWMutex
	log *zap.Logger

	// store maps index name to document ID to document.
	store map[string]map[string]Document
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-memory backend. A nil logger
// disables logging.
func NewMemoryBackend(log *zap.Logger) *MemoryBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryBackend{
		log:   log,
		store: make(map[string]map[string]Document),
	}
}

// Save creates or upserts a document in memory. The index is created if
// absent.
func (b *MemoryBackend) Save(_ context.Context, index, docID string, doc Document) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.store[index]; !ok {
		b.store[index] = make(map[string]Document)
	}
	if docID == "" {
		docID = uuid.New().String()
	}
	b.store[index][docID] = cloneDocument(doc)
	b.log.Debug("document saved",
		zap.String("backend", "memory"),
		zap.String("index", index),
		zap.String("doc_id", docID))
	return docID, nil
}

// Get retrieves a document by ID.
func (b *MemoryBackend) Get(_ context.Context, index, docID string) (Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	docs, ok := b.store[index]
	if !ok {
		return nil, &StorageError{Op: "get", Backend: "memory", Index: index, DocID: docID, Err: ErrMissingIndex}
	}
	doc, ok := docs[docID]
	if !ok {
		return nil, &StorageError{Op: "get", Backend: "memory", Index: index, DocID: docID, Err: ErrMissingDocument}
	}
	return cloneDocument(doc), nil
}

// Search returns documents matching q, ordered by document ID.
func (b *MemoryBackend) Search(_ context.Context, index string, q Query, size int) ([]Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	docs, ok := b.store[index]
	if !ok {
		return nil, &StorageError{Op: "search", Backend: "memory", Index: index, Err: ErrMissingIndex}
	}
	var results []Result
	for id, doc := range docs {
		if matchDocument(doc, q) {
			results = append(results, Result{ID: id, Doc: cloneDocument(doc)})
		}
	}
	sortResults(results)
	return capResults(results, size), nil
}

// EnsureIndex creates the index entry if absent.
func (b *MemoryBackend) EnsureIndex(_ context.Context, index string, _ IndexOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.store[index]; !ok {
		b.store[index] = make(map[string]Document)
	}
	return nil
}
