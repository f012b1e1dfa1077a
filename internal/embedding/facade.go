package embedding

import (
	"context"
	"strings"

	"github.com/localvector/vectorstore/internal/cache"
	"github.com/localvector/vectorstore/internal/storeerr"
	"github.com/localvector/vectorstore/pkg/vsutil"
)

// Facade wraps an Evaluator with the two-tier cache and implements Embedder: callers
// never see cache hits vs. misses, tokenization, or the underlying model.
type Facade struct {
	eval  Evaluator
	cache *cache.Cache
}

// NewFacade returns a Facade that consults c before invoking eval.
func NewFacade(eval Evaluator, c *cache.Cache) *Facade {
	return &Facade{eval: eval, cache: c}
}

// Embed returns the L2-normalized embedding for text, using the cache on a hit and
// populating it on a miss.
func (f *Facade) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeerr.Wrap(storeerr.Cancelled, "embed", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, storeerr.New(storeerr.InvalidInput, "embedding text must not be empty")
	}
	if v, ok := f.cache.Get(text); ok {
		return v, nil
	}
	raw, err := f.eval.Evaluate(ctx, text)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.EmbeddingFailed, "evaluate text", err)
	}
	vsutil.NormalizeL2(raw)
	f.cache.Set(text, raw)
	return raw, nil
}

// EmbedBatch partitions texts into cached and uncached, evaluates the uncached set
// sequentially (no unbounded queue), and returns a result slice aligned positionally
// with texts.
func (f *Facade) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeerr.Wrap(storeerr.Cancelled, "embed_batch", err)
	}
	results := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, storeerr.New(storeerr.InvalidInput, "embedding text must not be empty")
		}
		if v, ok := f.cache.Get(text); ok {
			results[i] = v
		}
	}
	for i, text := range texts {
		if results[i] != nil {
			continue
		}
		raw, err := f.eval.Evaluate(ctx, text)
		if err != nil {
			return nil, storeerr.Wrap(storeerr.EmbeddingFailed, "evaluate text", err)
		}
		vsutil.NormalizeL2(raw)
		f.cache.Set(text, raw)
		results[i] = raw
	}
	return results, nil
}

// Dimensions returns the dimensionality produced by the underlying evaluator.
func (f *Facade) Dimensions() int {
	return f.eval.Dimensions()
}

// Close closes the underlying evaluator.
func (f *Facade) Close() error {
	return f.eval.Close()
}
