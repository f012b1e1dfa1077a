package embedding

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/localvector/vectorstore/internal/storeerr"
	"github.com/localvector/vectorstore/pkg/vsutil"
)

// ProgressFunc reports model download progress.
type ProgressFunc func(bytesDownloaded, totalBytes uint64, percent float64)

// ModelManager ensures an ONNX model artifact is present in the per-user model cache
// directory, downloading it on first use.
type ModelManager struct {
	baseDir string
	logger  *zap.Logger
}

// NewModelManager returns a manager rooted at baseDir (typically ~/.vectorstore/models).
func NewModelManager(baseDir string, logger *zap.Logger) *ModelManager {
	if logger == nil {
		logger = vsutil.NopLogger()
	}
	return &ModelManager{baseDir: baseDir, logger: logger}
}

// DefaultModelsDir returns ~/.vectorstore/models, the canonical per-user model cache.
func DefaultModelsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".vectorstore", "models"), nil
}

// ModelPath returns the path a model with the given id would live at, whether or not
// it has been downloaded yet.
func (m *ModelManager) ModelPath(modelID string) string {
	return filepath.Join(m.baseDir, modelID, "model.onnx")
}

// Ensure returns the local path to modelID's ONNX artifact, downloading it from url
// if not already cached. Download failures surface as ModelUnavailable; a
// cancelled context during download leaves no partial file in place.
func (m *ModelManager) Ensure(ctx context.Context, modelID, url string, progress ProgressFunc) (string, error) {
	path := m.ModelPath(modelID)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", storeerr.Wrap(storeerr.ModelUnavailable, "build model download request", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", storeerr.Wrap(storeerr.ModelUnavailable, "download model", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", storeerr.New(storeerr.ModelUnavailable, fmt.Sprintf("download model: unexpected status %s", resp.Status))
	}

	total := uint64(resp.ContentLength)
	if resp.ContentLength < 0 {
		total = 0
	}

	m.logger.Info("downloading model", zap.String("model_id", modelID), zap.String("url", url))

	err = vsutil.DurableWriteStream(path, func(f *os.File) error {
		var downloaded uint64
		buf := make([]byte, 32*1024)
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				if _, writeErr := f.Write(buf[:n]); writeErr != nil {
					return writeErr
				}
				downloaded += uint64(n)
				if progress != nil {
					pct := 0.0
					if total > 0 {
						pct = float64(downloaded) / float64(total) * 100
					}
					progress(downloaded, total, pct)
				}
			}
			if readErr == io.EOF {
				return nil
			}
			if readErr != nil {
				return readErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	})
	if err != nil {
		return "", storeerr.Wrap(storeerr.ModelUnavailable, "stream model to disk", err)
	}
	return path, nil
}
