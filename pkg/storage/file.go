package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// catalogName is the flat catalog file kept in each container directory.
// It maps document ID to the scalar field subset and is the only source
// Search consults; full documents are loaded lazily per matching entry.
const catalogName = "_catalog.json"

// FileBackend stores each document as one JSON file in a per-index
// directory.
//
// Directory layout:
//
//	<base>/<index>/<doc_id>.json
//	<base>/<index>/_catalog.json
//
// Writes go through a temp file and rename so a crashed process never
// leaves a half-written document behind.
type FileBackend struct {
	mu   sync.Mutex
	base string
	log  *zap.Logger
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates a file-backed store rooted at base, creating the
// directory if needed. A nil logger disables logging.
func NewFileBackend(base string, log *zap.Logger) (*FileBackend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, &StorageError{Op: "ensure", Backend: "file", Index: base, Err: wrapClient(err)}
	}
	return &FileBackend{base: base, log: log}, nil
}

func (b *FileBackend) indexDir(index string) string {
	return filepath.Join(b.base, index)
}

func (b *FileBackend) docPath(index, docID string) string {
	return filepath.Join(b.indexDir(index), docID+".json")
}

// Save writes the document file and refreshes its catalog entry. The index
// directory is created if absent.
func (b *FileBackend) Save(_ context.Context, index, docID string, doc Document) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureIndexDir(index); err != nil {
		return "", err
	}
	if docID == "" {
		docID = uuid.New().String()
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", &StorageError{Op: "save", Backend: "file", Index: index, DocID: docID, Err: wrapClient(err)}
	}
	if err := atomicWrite(b.docPath(index, docID), data); err != nil {
		return "", &StorageError{Op: "save", Backend: "file", Index: index, DocID: docID, Err: wrapClient(err)}
	}
	if err := b.updateCatalog(index, docID, doc); err != nil {
		return "", err
	}
	b.log.Debug("document saved",
		zap.String("backend", "file"),
		zap.String("index", index),
		zap.String("doc_id", docID))
	return docID, nil
}

// Get reads a document file by ID.
func (b *FileBackend) Get(_ context.Context, index, docID string) (Document, error) {
	if _, err := os.Stat(b.indexDir(index)); err != nil {
		return nil, &StorageError{Op: "get", Backend: "file", Index: index, DocID: docID, Err: ErrMissingIndex}
	}
	data, err := os.ReadFile(b.docPath(index, docID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StorageError{Op: "get", Backend: "file", Index: index, DocID: docID, Err: ErrMissingDocument}
		}
		return nil, &StorageError{Op: "get", Backend: "file", Index: index, DocID: docID, Err: wrapClient(err)}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &StorageError{Op: "get", Backend: "file", Index: index, DocID: docID, Err: wrapClient(err)}
	}
	return doc, nil
}

// Search matches catalog entries against q and loads the full document for
// each hit. A missing or corrupted catalog yields zero results, not an
// error.
func (b *FileBackend) Search(ctx context.Context, index string, q Query, size int) ([]Result, error) {
	if _, err := os.Stat(b.indexDir(index)); err != nil {
		return nil, &StorageError{Op: "search", Backend: "file", Index: index, Err: ErrMissingIndex}
	}
	catalog, err := b.loadCatalog(index)
	if err != nil {
		b.log.Warn("unreadable catalog treated as empty",
			zap.String("index", index),
			zap.Error(err))
		return nil, nil
	}
	var results []Result
	for docID, fields := range catalog {
		if !matchDocument(fields, q) {
			continue
		}
		doc, err := b.Get(ctx, index, docID)
		if err != nil {
			if IsMissingDocument(err) {
				// Catalog entry outlived its document; skip it.
				continue
			}
			return nil, err
		}
		results = append(results, Result{ID: docID, Doc: doc})
	}
	sortResults(results)
	return capResults(results, size), nil
}

// EnsureIndex creates the index directory and an empty catalog if absent.
func (b *FileBackend) EnsureIndex(_ context.Context, index string, _ IndexOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ensureIndexDir(index)
}

func (b *FileBackend) ensureIndexDir(index string) error {
	dir := b.indexDir(index)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "ensure", Backend: "file", Index: index, Err: wrapClient(err)}
	}
	catalogPath := filepath.Join(dir, catalogName)
	if _, err := os.Stat(catalogPath); os.IsNotExist(err) {
		if err := atomicWrite(catalogPath, []byte("{}\n")); err != nil {
			return &StorageError{Op: "ensure", Backend: "file", Index: index, Err: wrapClient(err)}
		}
	}
	return nil
}

// updateCatalog refreshes the scalar-field projection for one document.
func (b *FileBackend) updateCatalog(index, docID string, doc Document) error {
	catalog, err := b.loadCatalog(index)
	if err != nil {
		return &StorageError{Op: "save", Backend: "file", Index: index, DocID: docID, Err: wrapClient(err)}
	}
	if catalog == nil {
		catalog = make(map[string]Document)
	}
	catalog[docID] = scalarFields(doc)
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return &StorageError{Op: "save", Backend: "file", Index: index, DocID: docID, Err: wrapClient(err)}
	}
	if err := atomicWrite(filepath.Join(b.indexDir(index), catalogName), data); err != nil {
		return &StorageError{Op: "save", Backend: "file", Index: index, DocID: docID, Err: wrapClient(err)}
	}
	return nil
}

func (b *FileBackend) loadCatalog(index string) (map[string]Document, error) {
	data, err := os.ReadFile(filepath.Join(b.indexDir(index), catalogName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var catalog map[string]Document
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// scalarFields projects the subset of fields the catalog carries: strings,
// booleans, and numbers. Structured values stay in the document file only.
func scalarFields(doc Document) Document {
	out := make(Document)
	for k, v := range doc {
		switch v.(type) {
		case string, bool, int, int64, float64:
			out[k] = v
		}
	}
	return out
}

// atomicWrite writes data to path via a temp file and rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func wrapClient(err error) error {
	return &clientError{err: err}
}

// clientError ties an arbitrary underlying failure to the ErrClient kind.
type clientError struct {
	err error
}

func (e *clientError) Error() string        { return ErrClient.Error() + ": " + e.err.Error() }
func (e *clientError) Unwrap() error        { return e.err }
func (e *clientError) Is(target error) bool { return target == ErrClient }
