package vectorstore

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/localvector/vectorstore/internal/watcher"
)

// Watcher is a directory watcher wired to this store: file creates/writes call
// AddDocument, file removals drop the chunks that file last produced. Callers start
// and stop it themselves; the store does not own its lifecycle.
type Watcher = watcher.Watcher

// Watch returns a Watcher over directories, filtered to extensions (empty passes every
// file on; AddDocument rejects unsupported formats), wired to index changed files into this store and
// remove deleted ones. Call Start on the result to begin watching.
func (s *Store) Watch(directories []string, extensions []string, recursive bool) *Watcher {
	return watcher.NewWatcher(
		directories,
		extensions,
		recursive,
		func(path string) {
			if _, err := s.AddDocument(context.Background(), path, AddDocumentOptions{}); err != nil {
				s.logger.Warn("watch: failed to index changed file", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := s.removeDocumentByPath(path); err != nil {
				s.logger.Warn("watch: failed to remove deleted file", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(s.logger),
	)
}

// removeDocumentByPath drops every chunk record the sync catalog last associated with
// path, the watcher's delete-by-path counterpart to AddDocument's add-by-path.
func (s *Store) removeDocumentByPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.catalog.Remove(absPath)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.deleteLocked(id); err != nil {
			s.logger.Warn("failed to delete chunk for removed file", zap.String("path", absPath), zap.String("id", id), zap.Error(err))
		}
	}
	return nil
}
