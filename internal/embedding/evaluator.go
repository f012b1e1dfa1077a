// Package embedding provides the model-facing half of the embedding pipeline: the
// opaque neural evaluator, its tokenizer stand-in, model acquisition, and the façade
// that wraps an evaluator with the two-tier cache.
package embedding

import "context"

// Evaluator is the opaque "embedder" boundary: something that turns a string into D
// raw (not yet normalized) floats. Tokenizer and model details live entirely behind
// this interface.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}
