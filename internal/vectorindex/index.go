// Package vectorindex implements the in-memory id→(embedding, file path) index,
// its binary persistence format, and the fallback rebuild-from-chunk-files path.
package vectorindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/localvector/vectorstore/internal/record"
	"github.com/localvector/vectorstore/pkg/vsutil"
)

const formatVersion uint32 = 1

// Entry is one in-memory index entry: an id, its embedding, and the path to the chunk
// record file that owns it.
type Entry struct {
	ID        string
	Embedding []float32
	FilePath  string
}

// Index is the store's in-memory vector index: an associative container safe for
// concurrent reads, with mutations serialized by the caller (the store itself
// guarantees a single writer).
type Index struct {
	mu      sync.RWMutex
	entries map[string]Entry
	path    string
	logger  *zap.Logger
}

// New returns an empty index that persists to path.
func New(path string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = vsutil.NopLogger()
	}
	return &Index{entries: make(map[string]Entry), path: path, logger: logger}
}

// Add upserts an entry. It never fails for valid inputs.
func (idx *Index) Add(id string, embedding []float32, filePath string) {
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	idx.mu.Lock()
	idx.entries[id] = Entry{ID: id, Embedding: vec, FilePath: filePath}
	idx.mu.Unlock()
}

// Remove deletes an entry, reporting whether it was present.
func (idx *Index) Remove(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.entries[id]; !ok {
		return false
	}
	delete(idx.entries, id)
	return true
}

// Get returns the entry for id, if present.
func (idx *Index) Get(id string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[id]
	return e, ok
}

// All returns a snapshot of every entry currently in the index.
func (idx *Index) All() []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, e)
	}
	return out
}

// Count returns the number of entries.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Clear empties the index without touching anything on disk.
func (idx *Index) Clear() {
	idx.mu.Lock()
	idx.entries = make(map[string]Entry)
	idx.mu.Unlock()
}

// Persist atomically writes the binary index to idx.path using durable replace.
func (idx *Index) Persist() error {
	idx.mu.RLock()
	entries := make([]Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		entries = append(entries, e)
	}
	idx.mu.RUnlock()

	return vsutil.DurableWriteStream(idx.path, func(f *os.File) error {
		if err := binary.Write(f, binary.LittleEndian, formatVersion); err != nil {
			return fmt.Errorf("write version: %w", err)
		}
		if err := binary.Write(f, binary.LittleEndian, uint32(len(entries))); err != nil {
			return fmt.Errorf("write entry count: %w", err)
		}
		for _, e := range entries {
			if err := writeLenPrefixedString(f, e.ID); err != nil {
				return fmt.Errorf("write id: %w", err)
			}
			if err := writeLenPrefixedString(f, e.FilePath); err != nil {
				return fmt.Errorf("write file_path: %w", err)
			}
			if err := binary.Write(f, binary.LittleEndian, uint32(len(e.Embedding))); err != nil {
				return fmt.Errorf("write embedding length: %w", err)
			}
			if _, err := f.Write(float32SliceToBytes(e.Embedding)); err != nil {
				return fmt.Errorf("write embedding: %w", err)
			}
		}
		return nil
	})
}

// LoadOrRebuild restores the index from its binary file. If the file is absent,
// corrupt, or fails the version check, it falls back to Rebuild(storeDir).
func (idx *Index) LoadOrRebuild(storeDir string) error {
	entries, err := loadBinary(idx.path)
	if err != nil {
		idx.logger.Warn("vector index load failed, rebuilding from chunk files", zap.Error(err))
		return idx.Rebuild(storeDir)
	}
	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()
	return nil
}

// loadBinary reads and validates the binary format; a short read or version mismatch
// is reported as an error so the caller rebuilds instead of trusting partial data.
func loadBinary(path string) (map[string]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var version, count uint32
	if err := binary.Read(f, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported index version %d", version)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}
	entries := make(map[string]Entry, count)
	for i := uint32(0); i < count; i++ {
		id, err := readLenPrefixedString(f)
		if err != nil {
			return nil, fmt.Errorf("read id: %w", err)
		}
		filePath, err := readLenPrefixedString(f)
		if err != nil {
			return nil, fmt.Errorf("read file_path: %w", err)
		}
		var embLen uint32
		if err := binary.Read(f, binary.LittleEndian, &embLen); err != nil {
			return nil, fmt.Errorf("read embedding length: %w", err)
		}
		buf := make([]byte, int(embLen)*4)
		if _, err := readFull(f, buf); err != nil {
			return nil, fmt.Errorf("read embedding: %w", err)
		}
		entries[id] = Entry{ID: id, Embedding: bytesToFloat32Slice(buf), FilePath: filePath}
	}
	return entries, nil
}

// Rebuild scans <storeDir>/*.json and <storeDir>/documents/*.json, loading every
// parseable record with a nonempty D-dimensional embedding, then persists a fresh
// binary index. It returns the count of loaded and skipped files via the logger.
func (idx *Index) Rebuild(storeDir string) error {
	candidates := scanChunkFiles(storeDir)
	entries := make(map[string]Entry, len(candidates))
	loaded, skipped := 0, 0
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			skipped++
			idx.logger.Warn("skipping unreadable chunk file", zap.String("path", path), zap.Error(err))
			continue
		}
		rec, err := record.ParseBytes(data)
		if err != nil {
			skipped++
			idx.logger.Warn("skipping corrupt chunk record", zap.String("path", path), zap.Error(err))
			continue
		}
		if len(rec.Embedding) == 0 || len(rec.Embedding) != record.Dimensions {
			skipped++
			continue
		}
		id := rec.ID
		if id == "" {
			id = stemOf(path)
		}
		entries[id] = Entry{ID: id, Embedding: rec.Embedding, FilePath: path}
		loaded++
	}
	idx.logger.Info("vector index rebuilt from chunk files", zap.Int("loaded", loaded), zap.Int("skipped", skipped))

	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()
	return idx.Persist()
}

// Hydrate reads and parses the chunk record file pointed at by id's entry.
func (idx *Index) Hydrate(id string) (*record.ChunkRecord, error) {
	e, ok := idx.Get(id)
	if !ok {
		return nil, fmt.Errorf("no index entry for id %q", id)
	}
	data, err := os.ReadFile(e.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read chunk record %s: %w", e.FilePath, err)
	}
	return record.ParseBytes(data)
}

func scanChunkFiles(storeDir string) []string {
	var out []string
	rootMatches, _ := filepath.Glob(filepath.Join(storeDir, "*.json"))
	out = append(out, rootMatches...)
	docMatches, _ := filepath.Glob(filepath.Join(storeDir, "documents", "*.json"))
	out = append(out, docMatches...)
	return out
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func writeLenPrefixedString(f *os.File, s string) error {
	if err := binary.Write(f, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := f.WriteString(s)
	return err
}

func readLenPrefixedString(f *os.File) (string, error) {
	var n uint32
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := readFull(f, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, fmt.Errorf("unexpected short read")
		}
	}
	return total, nil
}

func float32SliceToBytes(s []float32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out
}
