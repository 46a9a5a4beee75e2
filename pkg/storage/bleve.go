package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// searchAll is the request size used when the caller asks for unbounded
// results. The tracking index is a low-volume bookkeeping store, so this is
// effectively "everything".
const searchAll = 100000

// BleveBackend stores documents in per-index bleve search indexes on disk.
//
// Layout under the base directory:
//
//	<base>/<index>.bleve/      - the bleve index
//	<base>/<index>.docs.json   - full source documents by ID
//
// Bleve holds an inverted index, not source documents, so the full document
// bodies live in a sidecar catalog; the index answers the structural query
// and the catalog supplies the matching documents. Bleve writes are
// synchronous, which provides the read-your-write visibility the uniqueness
// lookup depends on.
type BleveBackend struct {
	mu   sync.Mutex
	base string
	log  *zap.Logger

	containers map[string]*bleveContainer
}

type bleveContainer struct {
	idx  bleve.Index
	docs map[string]Document
}

var _ Backend = (*BleveBackend)(nil)

// NewBleveBackend creates a bleve-backed store rooted at base, creating the
// directory if needed. A nil logger disables logging.
func NewBleveBackend(base string, log *zap.Logger) (*BleveBackend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, &StorageError{Op: "ensure", Backend: "bleve", Index: base, Err: wrapClient(err)}
	}
	return &BleveBackend{
		base:       base,
		log:        log,
		containers: make(map[string]*bleveContainer),
	}, nil
}

// Close closes all open bleve indexes. The backend is unusable afterwards.
func (b *BleveBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for name, c := range b.containers {
		if err := c.idx.Close(); err != nil && firstErr == nil {
			firstErr = &StorageError{Op: "close", Backend: "bleve", Index: name, Err: wrapClient(err)}
		}
		delete(b.containers, name)
	}
	return firstErr
}

// Save indexes the document and records its full body in the sidecar
// catalog. The index is created (with default mappings) if absent.
func (b *BleveBackend) Save(_ context.Context, index, docID string, doc Document) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.container(index, true, IndexOptions{})
	if err != nil {
		return "", err
	}
	if docID == "" {
		docID = uuid.New().String()
	}
	if err := c.idx.Index(docID, doc); err != nil {
		return "", &StorageError{Op: "save", Backend: "bleve", Index: index, DocID: docID, Err: wrapClient(err)}
	}
	c.docs[docID] = cloneDocument(doc)
	if err := b.writeSidecar(index, c); err != nil {
		return "", &StorageError{Op: "save", Backend: "bleve", Index: index, DocID: docID, Err: wrapClient(err)}
	}
	b.log.Debug("document saved",
		zap.String("backend", "bleve"),
		zap.String("index", index),
		zap.String("doc_id", docID))
	return docID, nil
}

// Get retrieves a document body from the sidecar catalog.
func (b *BleveBackend) Get(_ context.Context, index, docID string) (Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.container(index, false, IndexOptions{})
	if err != nil {
		return nil, &StorageError{Op: "get", Backend: "bleve", Index: index, DocID: docID, Err: unwrapKind(err)}
	}
	doc, ok := c.docs[docID]
	if !ok {
		return nil, &StorageError{Op: "get", Backend: "bleve", Index: index, DocID: docID, Err: ErrMissingDocument}
	}
	return cloneDocument(doc), nil
}

// Search compiles q into a bleve boolean query, then returns the matching
// documents ordered by ID.
func (b *BleveBackend) Search(_ context.Context, index string, q Query, size int) ([]Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.container(index, false, IndexOptions{})
	if err != nil {
		return nil, &StorageError{Op: "search", Backend: "bleve", Index: index, Err: unwrapKind(err)}
	}

	// Always fetch every hit, then order by ID and cap. Letting bleve cap
	// would trim by relevance score, which differs from the other backends.
	req := bleve.NewSearchRequest(compileQuery(q))
	req.Size = searchAll
	res, err := c.idx.Search(req)
	if err != nil {
		return nil, &StorageError{Op: "search", Backend: "bleve", Index: index, Err: wrapClient(err)}
	}

	var results []Result
	for _, hit := range res.Hits {
		doc, ok := c.docs[hit.ID]
		if !ok {
			// Indexed but absent from the catalog; nothing to return.
			continue
		}
		results = append(results, Result{ID: hit.ID, Doc: cloneDocument(doc)})
	}
	sortResults(results)
	return capResults(results, size), nil
}

// EnsureIndex creates the index with mappings built from opts if it does
// not already exist.
func (b *BleveBackend) EnsureIndex(_ context.Context, index string, opts IndexOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.container(index, true, opts)
	return err
}

func (b *BleveBackend) indexPath(index string) string {
	return filepath.Join(b.base, index+".bleve")
}

func (b *BleveBackend) sidecarPath(index string) string {
	return filepath.Join(b.base, index+".docs.json")
}

// container returns the open container for index, opening it from disk if
// present. When create is true an absent index is created; otherwise a
// missing-index error is returned.
func (b *BleveBackend) container(index string, create bool, opts IndexOptions) (*bleveContainer, error) {
	if c, ok := b.containers[index]; ok {
		return c, nil
	}

	path := b.indexPath(index)
	var idx bleve.Index
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !create {
			return nil, &StorageError{Op: "open", Backend: "bleve", Index: index, Err: ErrMissingIndex}
		}
		idx, err = bleve.New(path, buildIndexMapping(opts))
		if err != nil {
			return nil, &StorageError{Op: "ensure", Backend: "bleve", Index: index, Err: wrapClient(err)}
		}
	} else {
		var err error
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, &StorageError{Op: "open", Backend: "bleve", Index: index, Err: wrapClient(err)}
		}
	}

	c := &bleveContainer{idx: idx, docs: make(map[string]Document)}
	if err := b.loadSidecar(index, c); err != nil {
		_ = idx.Close()
		return nil, &StorageError{Op: "open", Backend: "bleve", Index: index, Err: wrapClient(err)}
	}
	b.containers[index] = c
	return c, nil
}

func (b *BleveBackend) loadSidecar(index string, c *bleveContainer) error {
	data, err := os.ReadFile(b.sidecarPath(index))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &c.docs)
}

func (b *BleveBackend) writeSidecar(index string, c *bleveContainer) error {
	data, err := json.MarshalIndent(c.docs, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(b.sidecarPath(index), data)
}

// compileQuery translates the structural predicate into a bleve boolean
// query with the same match semantics as matchDocument.
func compileQuery(q Query) query.Query {
	boolq := bleve.NewBooleanQuery()
	boolq.AddMust(bleve.NewMatchAllQuery())
	for field, value := range q.Terms {
		switch v := value.(type) {
		case bool:
			bq := bleve.NewBoolFieldQuery(v)
			bq.SetField(field)
			boolq.AddMust(bq)
		case string:
			tq := bleve.NewTermQuery(v)
			tq.SetField(field)
			boolq.AddMust(tq)
		default:
			if f, ok := asFloat(value); ok {
				incl := true
				nq := bleve.NewNumericRangeInclusiveQuery(&f, &f, &incl, &incl)
				nq.SetField(field)
				boolq.AddMust(nq)
			} else {
				tq := bleve.NewTermQuery(fmt.Sprint(value))
				tq.SetField(field)
				boolq.AddMust(tq)
			}
		}
	}
	for _, field := range q.NotExists {
		wq := bleve.NewWildcardQuery("*")
		wq.SetField(field)
		boolq.AddMustNot(wq)
	}
	return boolq
}

// buildIndexMapping translates the schema mappings into bleve field
// mappings. Unmapped string fields default to the keyword analyzer so every
// identifier matches exactly, never tokenized.
func buildIndexMapping(opts IndexOptions) mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = keyword.Name

	dm := bleve.NewDocumentMapping()
	if props, ok := opts.Mappings["properties"].(map[string]any); ok {
		for field, raw := range props {
			def, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			switch def["type"] {
			case "keyword", "wildcard", "join":
				dm.AddFieldMappingsAt(field, bleve.NewKeywordFieldMapping())
			case "boolean":
				dm.AddFieldMappingsAt(field, bleve.NewBooleanFieldMapping())
			case "date":
				dm.AddFieldMappingsAt(field, bleve.NewDateTimeFieldMapping())
			case "text":
				tf := bleve.NewTextFieldMapping()
				tf.Analyzer = standard.Name
				dm.AddFieldMappingsAt(field, tf)
			}
		}
	}
	// Nested config and payload values are opaque to the query layer; keep
	// them out of the inverted index entirely.
	disabled := bleve.NewDocumentDisabledMapping()
	dm.AddSubDocumentMapping("config", disabled)
	dm.AddSubDocumentMapping("data", disabled)

	im.DefaultMapping = dm
	return im
}

// unwrapKind preserves the sentinel kind when re-wrapping a container open
// failure under a different operation.
func unwrapKind(err error) error {
	if se, ok := err.(*StorageError); ok {
		return se.Err
	}
	return err
}
