package vectorstore

import (
	"github.com/localvector/vectorstore/internal/chunk"
	"github.com/localvector/vectorstore/internal/record"
)

// ChunkRecord is the persisted unit of a store: chunk text, its embedding, free-form
// metadata, and a creation timestamp.
type ChunkRecord = record.ChunkRecord

// Dimensions is the fixed embedding length every Store in this package works with.
const Dimensions = record.Dimensions

// NewChunkRecord returns a chunk record with a freshly assigned id and CreatedAt set
// to now. Embedding may be nil; a record is only eligible for indexing once it carries
// a Dimensions-length embedding.
func NewChunkRecord(content string, embedding []float32, metadata map[string]interface{}) *ChunkRecord {
	return record.New(content, embedding, metadata)
}

// ChunkStrategy selects which boundary kinds the chunk assembler treats as preferred
// cut points when packing a document's text into chunks.
type ChunkStrategy = chunk.Strategy

const (
	Hybrid     = chunk.Hybrid
	Semantic   = chunk.Semantic
	Structural = chunk.Structural
)

// ChunkOptions controls the size bounds, overlap, and boundary strategy used when a
// document is split into chunks.
type ChunkOptions = chunk.Options

// SearchResult is one scored hit returned by a search operation: the hydrated chunk
// record paired with its similarity score against the query.
type SearchResult struct {
	Record *ChunkRecord
	Score  float32
}

// AddDocumentOptions controls how a single file is chunked and tagged when added via
// AddDocument or AddDocuments.
type AddDocumentOptions struct {
	Chunking ChunkOptions
	// Metadata is merged into every chunk produced from the document, underneath the
	// chunk-specific keys (source_file, source_title, chunk_index, total_chunks) this
	// package always sets.
	Metadata map[string]interface{}
}

// DefaultChunkOptions returns the chunking defaults used when AddDocumentOptions.Chunking
// is the zero value.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxChunkSize:    1000,
		MinChunkSize:    100,
		OverlapSize:     50,
		Strategy:        Hybrid,
		PreserveHeaders: true,
	}
}
