package embedding

import (
	"context"
	"strings"
)

// HashEvaluator is a deterministic evaluator used when no ONNX model is configured
// (e.g. in tests, or on a !cgo build where onnxruntime is unavailable). It builds a
// bag-of-hashed-words vector: every word in the text votes on one dimension (chosen
// and signed by HashString), so two texts sharing words end up with a nonzero cosine
// similarity. It is a stand-in for a real model's semantic embedding, not a faithful
// one — see the tokenizer's doc comment.
type HashEvaluator struct {
	dimensions int
}

// NewHashEvaluator returns an evaluator that produces deterministic vectors of the
// given dimensionality.
func NewHashEvaluator(dimensions int) *HashEvaluator {
	if dimensions <= 0 {
		dimensions = 768
	}
	return &HashEvaluator{dimensions: dimensions}
}

// Evaluate returns a bag-of-hashed-words vector for text.
func (e *HashEvaluator) Evaluate(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, word := range SplitWords(strings.ToLower(text)) {
		h := HashString(word)
		idx := h % e.dimensions
		sign := float32(1)
		if (h/e.dimensions)%2 == 1 {
			sign = -1
		}
		emb[idx] += sign
	}
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEvaluator) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEvaluator.
func (e *HashEvaluator) Close() error {
	return nil
}
