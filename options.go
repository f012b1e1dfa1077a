package vectorstore

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/localvector/vectorstore/internal/cache"
	"github.com/localvector/vectorstore/internal/embedding"
	"github.com/localvector/vectorstore/pkg/vsutil"
)

// Embedder is the contract a Store uses to turn text into embeddings. The default
// construction path wires internal/embedding's Facade over a cache-backed evaluator;
// callers that need a real model wire their own Facade over an ONNX evaluator and pass
// it via WithEmbedder.
type Embedder = embedding.Embedder

type options struct {
	logger    *zap.Logger
	embedder  Embedder
	cacheSize int
	cacheDir  string
}

// Option configures a Store at Create/Open/CreateOrOpen time.
type Option func(*options)

// WithLogger sets the structured logger a Store uses for diagnostics. Defaults to a
// no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEmbedder overrides the embedder façade a Store uses for AddText/AddDocument and
// for embedding search queries. Defaults to a façade over a deterministic hash
// evaluator, which is suitable for tests and for callers who bring their own
// pre-computed embeddings via Add.
func WithEmbedder(e Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithEmbeddingCacheSize sets the in-memory embedding cache capacity used by the
// default embedder. Ignored when WithEmbedder is also supplied. Defaults to 10000.
func WithEmbeddingCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithEmbeddingCacheDir sets the on-disk directory for the default embedder's file
// cache tier. Ignored when WithEmbedder is also supplied. Defaults to
// ~/.vectorstore/cache/embeddings.
func WithEmbeddingCacheDir(dir string) Option {
	return func(o *options) { o.cacheDir = dir }
}

func resolveOptions(opts ...Option) options {
	o := options{cacheSize: 10000}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = vsutil.NopLogger()
	}
	if o.cacheDir == "" {
		o.cacheDir = defaultCacheDir()
	}
	if o.embedder == nil {
		o.embedder = embedding.NewFacade(
			embedding.NewHashEvaluator(Dimensions),
			cache.New(o.cacheSize, o.cacheDir, o.logger),
		)
	}
	return o
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".vectorstore", "cache", "embeddings")
	}
	return filepath.Join(home, ".vectorstore", "cache", "embeddings")
}
