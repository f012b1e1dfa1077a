package vsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDurableWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "target.bin")
	if err := DurableWriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, got %v", entries)
	}
}

func TestDurableWriteFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.bin")
	if err := DurableWriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := DurableWriteFile(path, []byte("second, longer"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second, longer" {
		t.Errorf("got %q", data)
	}
}
