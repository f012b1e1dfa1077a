// Package vectorstore implements a local, file-based semantic search engine: ingest
// documents into size-bounded chunks, embed them, and search by vector or by text
// against a single-node, filesystem-backed vector index. There is no external
// database and no network service; a store is a directory.
package vectorstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/localvector/vectorstore/internal/catalog"
	"github.com/localvector/vectorstore/internal/storeerr"
	"github.com/localvector/vectorstore/internal/vectorindex"
)

const indexFileName = "vector_index.bin"

// Store is a single local vector store. It owns its vector index, its embedder
// façade, and its sync catalog. Mutating operations (Add, Delete, AddDocument,
// AddDocuments) are serialized by mu; concurrent reads do not block on it, since the
// underlying index and catalog guard their own state.
type Store struct {
	path     string
	index    *vectorindex.Index
	embedder Embedder
	catalog  *catalog.Catalog
	logger   *zap.Logger

	mu sync.Mutex
}

// Create initializes a new store at path. It fails with AlreadyExists if path exists
// and already looks like a store (holds vector_index.bin or any chunk record).
func Create(path string, opts ...Option) (*Store, error) {
	o := resolveOptions(opts...)

	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return nil, storeerr.New(storeerr.InvalidInput, "store path "+path+" exists and is not a directory")
		}
		if isStoreDir(path) {
			return nil, storeerr.New(storeerr.AlreadyExists, "store already exists at "+path)
		}
	} else if !os.IsNotExist(err) {
		return nil, storeerr.Wrap(storeerr.InvalidInput, "stat store path "+path, err)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, storeerr.Wrap(storeerr.InvalidInput, "create store directory "+path, err)
	}

	idx := vectorindex.New(filepath.Join(path, indexFileName), o.logger)
	if err := idx.Persist(); err != nil {
		return nil, storeerr.Wrap(storeerr.CorruptIndex, "initialize vector index", err)
	}

	cat, err := catalog.Open(filepath.Join(path, catalog.FileName))
	if err != nil {
		return nil, err
	}

	return &Store{path: path, index: idx, embedder: o.embedder, catalog: cat, logger: o.logger}, nil
}

// Open opens an existing store at path, rebuilding its vector index from chunk
// records if the binary index is missing or corrupt. It fails with NotFound if path
// does not exist, and NotAStore if path exists but holds neither an index nor any
// chunk record.
func Open(path string, opts ...Option) (*Store, error) {
	o := resolveOptions(opts...)

	info, err := os.Stat(path)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.NotFound, "open store "+path, err)
	}
	if !info.IsDir() {
		return nil, storeerr.New(storeerr.InvalidInput, "store path "+path+" is not a directory")
	}

	if !isStoreDir(path) {
		return nil, storeerr.New(storeerr.NotAStore, path+" is not a vectorstore directory")
	}

	idx := vectorindex.New(filepath.Join(path, indexFileName), o.logger)
	if err := idx.LoadOrRebuild(path); err != nil {
		return nil, storeerr.Wrap(storeerr.CorruptIndex, "load vector index for "+path, err)
	}

	cat, err := catalog.Open(filepath.Join(path, catalog.FileName))
	if err != nil {
		return nil, err
	}

	return &Store{path: path, index: idx, embedder: o.embedder, catalog: cat, logger: o.logger}, nil
}

// CreateOrOpen opens path if it already looks like a store, otherwise creates one.
func CreateOrOpen(path string, opts ...Option) (*Store, error) {
	if isStoreDir(path) {
		return Open(path, opts...)
	}
	return Create(path, opts...)
}

// Delete removes the store directory at path entirely, reporting false without error
// if path does not exist or does not look like a store (refusing to recursively
// delete an arbitrary directory by mistake).
func Delete(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, storeerr.Wrap(storeerr.InvalidInput, "stat store path "+path, err)
	}
	if !info.IsDir() || !isStoreDir(path) {
		return false, nil
	}
	if err := os.RemoveAll(path); err != nil {
		return false, storeerr.Wrap(storeerr.InvalidInput, "delete store "+path, err)
	}
	return true, nil
}

// Close releases the store's resources: its sync catalog's underlying file handle and
// its embedder façade (if the façade owns a closeable model). The vector index and
// chunk records on disk are left exactly as last persisted.
func (s *Store) Close() error {
	var firstErr error
	if err := s.catalog.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Path returns the store's root directory.
func (s *Store) Path() string {
	return s.path
}

// isStoreDir reports whether path holds the markers of an existing store: the binary
// vector index, or any chunk record either at its root or under documents/.
func isStoreDir(path string) bool {
	if _, err := os.Stat(filepath.Join(path, indexFileName)); err == nil {
		return true
	}
	return len(scanChunkFiles(path)) > 0
}

func scanChunkFiles(storeDir string) []string {
	var out []string
	rootMatches, _ := filepath.Glob(filepath.Join(storeDir, "*.json"))
	out = append(out, rootMatches...)
	docMatches, _ := filepath.Glob(filepath.Join(storeDir, "documents", "*.json"))
	out = append(out, docMatches...)
	return out
}

// ctxErr translates a cancelled context into the Cancelled kind, used at the top of
// every blocking operation.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return storeerr.Wrap(storeerr.Cancelled, "context cancelled", err)
	}
	return nil
}
