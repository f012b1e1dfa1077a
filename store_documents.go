package vectorstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/localvector/vectorstore/internal/boundary"
	"github.com/localvector/vectorstore/internal/chunk"
	"github.com/localvector/vectorstore/internal/extract"
	"github.com/localvector/vectorstore/internal/fileid"
	"github.com/localvector/vectorstore/internal/record"
	"github.com/localvector/vectorstore/internal/storeerr"
	"github.com/localvector/vectorstore/pkg/vsutil"
)

// documentExtensions is the set of source file extensions AddDocument/AddDocuments
// will process; anything else is skipped during a directory walk and rejected with
// UnsupportedFormat when named directly.
var documentExtensions = map[string]bool{
	".txt": true, ".text": true, ".log": true, ".csv": true, ".json": true, ".xml": true,
	".md": true, ".markdown": true, ".mdown": true, ".mkd": true,
	".pdf":  true,
	".docx": true,
	".xlsx": true,
}

// recordPath returns the canonical on-disk path for a chunk record's id. New records
// are always written at the store root; documents/ is only ever read from, during
// index rebuild and as a Get fallback, to stay compatible with records placed there
// by another writer.
func (s *Store) recordPath(id string) string {
	return filepath.Join(s.path, id+".json")
}

// Add persists rec, assigning it an id if it has none, and indexes its embedding. It
// fails with InvalidInput if rec's embedding is present but not Dimensions long.
func (s *Store) Add(ctx context.Context, rec *ChunkRecord) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(rec)
}

// addLocked assumes mu is already held, so AddDocument can batch several record
// writes and a catalog update under one critical section.
func (s *Store) addLocked(rec *ChunkRecord) (string, error) {
	if rec == nil {
		return "", storeerr.New(storeerr.InvalidInput, "record must not be nil")
	}
	if rec.ID == "" {
		rec.ID = record.New("", nil, nil).ID
	}
	if err := rec.Validate(); err != nil {
		return "", storeerr.Wrap(storeerr.InvalidInput, "validate record", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", storeerr.Wrap(storeerr.InvalidInput, "encode record "+rec.ID, err)
	}

	path := s.recordPath(rec.ID)
	if err := vsutil.DurableWriteFile(path, data, 0644); err != nil {
		return "", storeerr.Wrap(storeerr.InvalidInput, "write record "+rec.ID, err)
	}
	s.index.Add(rec.ID, rec.Embedding, path)
	if err := s.index.Persist(); err != nil {
		return "", storeerr.Wrap(storeerr.CorruptIndex, "persist vector index after add", err)
	}
	return rec.ID, nil
}

// Get returns the chunk record for id, or fails with NotFound if id is not present.
// If id is missing from the index or its indexed file is gone — a stale index not yet
// rebuilt — Get falls back to scanning the store root and documents/ directly, the same
// two locations internal/vectorindex.Rebuild scans.
func (s *Store) Get(ctx context.Context, id string) (*ChunkRecord, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	rec, err := s.index.Hydrate(id)
	if err == nil {
		return rec, nil
	}
	if rec, ok := s.scanForRecord(id); ok {
		return rec, nil
	}
	return nil, storeerr.Wrap(storeerr.NotFound, "get record "+id, err)
}

// scanForRecord looks for id's chunk file directly on disk, bypassing the index, by
// reading every candidate under the store root and documents/ and matching on the
// record's own id field.
func (s *Store) scanForRecord(id string) (*ChunkRecord, bool) {
	for _, path := range scanChunkFiles(s.path) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		rec, err := record.ParseBytes(data)
		if err != nil {
			continue
		}
		if rec.ID == id {
			return rec, true
		}
	}
	return nil, false
}

// Delete removes the chunk record for id and drops it from the vector index,
// reporting false (with no error) if id was not present.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id)
}

func (s *Store) deleteLocked(id string) (bool, error) {
	entry, ok := s.index.Get(id)
	if !ok {
		return false, nil
	}
	if err := os.Remove(entry.FilePath); err != nil && !os.IsNotExist(err) {
		return false, storeerr.Wrap(storeerr.InvalidInput, "delete record file for "+id, err)
	}
	s.index.Remove(id)
	if err := s.index.Persist(); err != nil {
		return false, storeerr.Wrap(storeerr.CorruptIndex, "persist vector index after delete", err)
	}
	return true, nil
}

// AllIDs returns every chunk record id currently in the store, in no particular order.
func (s *Store) AllIDs(ctx context.Context) ([]string, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	entries := s.index.All()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// AddText embeds content, stores it as a single chunk record with metadata attached,
// and returns its id.
func (s *Store) AddText(ctx context.Context, content string, metadata map[string]interface{}) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", err
	}
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return "", err
	}
	rec := record.New(content, embedding, metadata)
	return s.Add(ctx, rec)
}

// AddDocument extracts, chunks, embeds, and stores filePath as one or more chunk
// records, returning their ids in chunk order. Each chunk's metadata is the source
// document's extracted metadata, overlaid with opts.Metadata, overlaid with
// source_file, source_title, chunk_index, and total_chunks. If filePath was already
// ingested and has not changed (same mtime and size as last recorded), AddDocument
// returns its previously assigned ids without re-embedding. The whole operation —
// dropping stale chunks from a prior ingest of the same path, writing the new ones,
// and updating the sync catalog — runs under a single critical section.
func (s *Store) AddDocument(ctx context.Context, filePath string, opts AddDocumentOptions) ([]string, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.InvalidInput, "resolve absolute path for "+filePath, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.NotFound, "stat source file "+absPath, err)
	}

	if upToDate, err := s.catalog.UpToDate(absPath, info.ModTime(), info.Size()); err != nil {
		return nil, err
	} else if upToDate {
		rec, _, err := s.catalog.Lookup(absPath)
		if err != nil {
			return nil, err
		}
		return rec.ChunkIDs, nil
	}

	result, err := extract.DispatchFile(absPath)
	if err != nil {
		return nil, err
	}

	chunkOpts := opts.Chunking
	if chunkOpts.MaxChunkSize == 0 {
		chunkOpts = DefaultChunkOptions()
	}
	boundaries := boundary.Detect(result.Text, extractKindToBoundaryKind(absPath))
	chunks, err := chunk.Assemble(result.Text, boundaries, chunkOpts)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.InvalidInput, "assemble chunks for "+absPath, err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	var embeddings [][]float32
	if len(texts) > 0 {
		embeddings, err = s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
	}

	sourceTitle := filepath.Base(absPath)
	if t, ok := result.Metadata["title"].(string); ok && t != "" {
		sourceTitle = t
	}
	sourceID := fileid.FileDocID(absPath)

	s.mu.Lock()
	defer s.mu.Unlock()

	prevIDs, err := s.catalog.Remove(absPath)
	if err != nil {
		return nil, err
	}
	for _, id := range prevIDs {
		if _, err := s.deleteLocked(id); err != nil {
			s.logger.Warn("failed to delete stale chunk during re-ingest", zap.String("id", id), zap.Error(err))
		}
	}

	ids := make([]string, 0, len(chunks))
	for i, c := range chunks {
		meta := map[string]interface{}{}
		for k, v := range result.Metadata {
			meta[k] = v
		}
		for k, v := range opts.Metadata {
			meta[k] = v
		}
		meta["source_file"] = absPath
		meta["source_id"] = sourceID
		meta["source_title"] = sourceTitle
		meta["chunk_index"] = i
		meta["total_chunks"] = len(chunks)
		if c.HeaderContext != "" {
			meta["header_context"] = c.HeaderContext
		}

		rec := record.New(c.Content, embeddings[i], meta)
		id, err := s.addLocked(rec)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}

	if err := s.catalog.Put(absPath, info.ModTime(), info.Size(), ids); err != nil {
		return ids, err
	}
	return ids, nil
}

// AddDocuments recursively walks dir, calling AddDocument on every file whose
// extension is a supported document format. A failure on one file is logged and does
// not abort the walk; the returned id list covers every file that succeeded.
func (s *Store) AddDocuments(ctx context.Context, dir string, opts AddDocumentOptions) ([]string, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.InvalidInput, "resolve absolute path for "+dir, err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.NotFound, "stat directory "+absDir, err)
	}
	if !info.IsDir() {
		return nil, storeerr.New(storeerr.InvalidInput, absDir+" is not a directory")
	}

	var ids []string
	walkErr := filepath.WalkDir(absDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("error walking directory", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if err := ctxErr(ctx); err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !documentExtensions[ext] {
			return nil
		}
		fileIDs, addErr := s.AddDocument(ctx, path, opts)
		if addErr != nil {
			s.logger.Warn("failed to add document, continuing", zap.String("path", path), zap.Error(addErr))
			return nil
		}
		ids = append(ids, fileIDs...)
		return nil
	})
	if walkErr != nil {
		return ids, storeerr.Wrap(storeerr.Cancelled, "walk directory "+absDir, walkErr)
	}
	return ids, nil
}

func extractKindToBoundaryKind(path string) boundary.DocumentKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown", ".mdown", ".mkd":
		return boundary.Markdown
	case ".pdf":
		return boundary.PDF
	case ".docx":
		return boundary.Docx
	default:
		return boundary.Text
	}
}
