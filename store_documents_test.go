package vectorstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/localvector/vectorstore/internal/storeerr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Create(t.TempDir(), WithEmbeddingCacheDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := NewChunkRecord("hello world", make([]float32, Dimensions), map[string]interface{}{"k": "v"})
	id, err := s.Add(ctx, rec)
	if err != nil {
		t.Fatal(err)
	}
	if id != rec.ID {
		t.Errorf("Add returned %q, want %q", id, rec.ID)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "hello world" {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestAdd_AssignsIDWhenMissing(t *testing.T) {
	s := newTestStore(t)
	rec := &ChunkRecord{Content: "no id yet", Embedding: make([]float32, Dimensions)}
	id, err := s.Add(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Error("expected Add to assign an id")
	}
}

func TestAdd_RejectsWrongDimensionEmbedding(t *testing.T) {
	s := newTestStore(t)
	rec := NewChunkRecord("x", make([]float32, 3), nil)
	_, err := s.Add(context.Background(), rec)
	if storeerr.KindOf(err) != storeerr.InvalidInput {
		t.Errorf("got %v, want InvalidInput", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if storeerr.KindOf(err) != storeerr.NotFound {
		t.Errorf("got %v, want NotFound", err)
	}
}

func TestGet_FallsBackToDiskScanWhenIndexIsStale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := NewChunkRecord("found only on disk", make([]float32, Dimensions), nil)
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	// Write the record straight to the store root, bypassing Add, so the in-memory
	// index never learns about it — mirrors a record present on disk but missing from
	// a stale or still-rebuilding index.
	if err := os.WriteFile(filepath.Join(s.Path(), rec.ID+".json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "found only on disk" {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestDeleteDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddText(ctx, "to be deleted", nil)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := s.Delete(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected Delete to report true")
	}

	if _, err := s.Get(ctx, id); storeerr.KindOf(err) != storeerr.NotFound {
		t.Errorf("Get after delete: got %v, want NotFound", err)
	}
}

func TestDelete_ReturnsFalseWhenMissing(t *testing.T) {
	s := newTestStore(t)
	ok, err := s.Delete(context.Background(), "nonexistent")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected false deleting a missing id")
	}
}

func TestAllIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := map[string]bool{}
	for _, text := range []string{"a", "b", "c"} {
		id, err := s.AddText(ctx, text, nil)
		if err != nil {
			t.Fatal(err)
		}
		want[id] = true
	}

	ids, err := s.AllIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != len(want) {
		t.Fatalf("AllIDs returned %d ids, want %d", len(ids), len(want))
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected id %q", id)
		}
	}
}

func TestAddDocument_TextFile(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	content := "This is a test sentence. " + "This is a test sentence. "
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ids, err := s.AddDocument(context.Background(), path, AddDocumentOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) == 0 {
		t.Fatal("expected at least one chunk")
	}

	rec, err := s.Get(context.Background(), ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if rec.Metadata["source_file"] != path {
		t.Errorf("source_file = %v, want %v", rec.Metadata["source_file"], path)
	}
	// Metadata is read back from the record's JSON, so numbers come back as float64.
	if rec.Metadata["chunk_index"] != float64(0) {
		t.Errorf("chunk_index = %v, want 0", rec.Metadata["chunk_index"])
	}
	if rec.Metadata["total_chunks"] != float64(len(ids)) {
		t.Errorf("total_chunks = %v, want %d", rec.Metadata["total_chunks"], len(ids))
	}
}

func TestAddDocument_MarkdownCarriesHeaderContext(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	content := "# Title\n\nSome intro text.\n\n## Section\n\nMore content here that continues on for a while so it has some real length to it."
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	opts := AddDocumentOptions{Chunking: ChunkOptions{
		MaxChunkSize: 60, MinChunkSize: 10, OverlapSize: 5, Strategy: Structural, PreserveHeaders: true,
	}}
	ids, err := s.AddDocument(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) == 0 {
		t.Fatal("expected at least one chunk")
	}

	found := false
	for _, id := range ids {
		rec, err := s.Get(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if hc, ok := rec.Metadata["header_context"]; ok && hc != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one persisted chunk to carry header_context metadata")
	}
}

func TestAddDocument_SkipsUnchangedFile(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("stable content here"), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := s.AddDocument(context.Background(), path, AddDocumentOptions{})
	if err != nil {
		t.Fatal(err)
	}

	second, err := s.AddDocument(context.Background(), path, AddDocumentOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected identical id sets, got %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("ids differ at %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestAddDocument_ReingestsChangedFile(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("version one"), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := s.AddDocument(context.Background(), path, AddDocumentOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// Ensure the mtime actually advances on filesystems with coarse resolution.
	future := time.Now().Add(2 * time.Second)
	if err := os.WriteFile(path, []byte("version two, much longer than before"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	second, err := s.AddDocument(context.Background(), path, AddDocumentOptions{})
	if err != nil {
		t.Fatal(err)
	}

	for _, oldID := range first {
		if _, err := s.Get(context.Background(), oldID); storeerr.KindOf(err) != storeerr.NotFound {
			t.Errorf("expected stale chunk %s to be gone", oldID)
		}
	}
	if len(second) == 0 {
		t.Fatal("expected new chunks for the changed file")
	}
}

func TestAddDocuments_SkipsUnrecognizedExtensions(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha content here"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.bin"), []byte{0, 1, 2}, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta content here"), 0644); err != nil {
		t.Fatal(err)
	}

	ids, err := s.AddDocuments(context.Background(), dir, AddDocumentOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) == 0 {
		t.Fatal("expected chunks from the two supported files")
	}
}

func TestAddDocuments_ContinuesPastOneFileFailing(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "good.txt"), []byte("perfectly readable content"), 0644); err != nil {
		t.Fatal(err)
	}
	// A .docx extension that is not actually a zip archive: extraction fails for this
	// one file, but the batch must still pick up the other.
	if err := os.WriteFile(filepath.Join(dir, "broken.docx"), []byte("not a zip file"), 0644); err != nil {
		t.Fatal(err)
	}

	ids, err := s.AddDocuments(context.Background(), dir, AddDocumentOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) == 0 {
		t.Fatal("expected the good file to still be ingested despite the broken one")
	}
}

func TestAddDocuments_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddDocuments(context.Background(), filepath.Join(t.TempDir(), "missing"), AddDocumentOptions{})
	if storeerr.KindOf(err) != storeerr.NotFound {
		t.Errorf("got %v, want NotFound", err)
	}
}
