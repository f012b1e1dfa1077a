package embedding

import "context"

// Embedder is the façade contract exposed to the store: single and batch embedding,
// both consulting the two-tier cache before falling back to the underlying evaluator.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
