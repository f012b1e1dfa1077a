package catalog

import (
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutAndLookup(t *testing.T) {
	c := openTest(t)
	mtime := time.Now().Truncate(time.Second)

	if err := c.Put("/docs/a.txt", mtime, 42, []string{"chunk-1", "chunk-2"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec, found, err := c.Lookup("/docs/a.txt")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatal("expected entry to be found")
	}
	if rec.Size != 42 || !rec.ModTime.Equal(mtime) {
		t.Errorf("unexpected record %+v", rec)
	}
	if len(rec.ChunkIDs) != 2 {
		t.Errorf("chunk ids = %v", rec.ChunkIDs)
	}
}

func TestLookupMiss(t *testing.T) {
	c := openTest(t)
	_, found, err := c.Lookup("/nope")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Error("expected no entry")
	}
}

func TestUpToDate(t *testing.T) {
	c := openTest(t)
	mtime := time.Now().Truncate(time.Second)
	if err := c.Put("/docs/a.txt", mtime, 42, []string{"chunk-1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ok, err := c.UpToDate("/docs/a.txt", mtime, 42)
	if err != nil {
		t.Fatalf("UpToDate: %v", err)
	}
	if !ok {
		t.Error("expected up to date")
	}

	stale, err := c.UpToDate("/docs/a.txt", mtime, 100)
	if err != nil {
		t.Fatalf("UpToDate: %v", err)
	}
	if stale {
		t.Error("expected stale on size change")
	}

	missing, err := c.UpToDate("/docs/never-seen.txt", mtime, 1)
	if err != nil {
		t.Fatalf("UpToDate: %v", err)
	}
	if missing {
		t.Error("expected not up to date for unseen path")
	}
}

func TestRemoveReturnsChunkIDs(t *testing.T) {
	c := openTest(t)
	mtime := time.Now().Truncate(time.Second)
	if err := c.Put("/docs/a.txt", mtime, 42, []string{"chunk-1", "chunk-2"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ids, err := c.Remove("/docs/a.txt")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("removed chunk ids = %v", ids)
	}

	_, found, err := c.Lookup("/docs/a.txt")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Error("expected entry to be gone after Remove")
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	c := openTest(t)
	ids, err := c.Remove("/never/seen")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ids != nil {
		t.Errorf("expected nil ids, got %v", ids)
	}
}
