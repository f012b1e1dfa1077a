//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

// ONNXEvaluator stub type when built without CGO (see onnx.go for the real implementation).
type ONNXEvaluator struct{}

// NewONNXEvaluator returns an error when built without CGO (ONNX not available).
func NewONNXEvaluator(_ string, _, _ int) (*ONNXEvaluator, error) {
	return nil, errors.New("ONNX evaluator requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Evaluate is unreachable since NewONNXEvaluator always errors in this build.
func (e *ONNXEvaluator) Evaluate(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("ONNX evaluator requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Dimensions is unreachable since NewONNXEvaluator always errors in this build.
func (e *ONNXEvaluator) Dimensions() int {
	return 0
}

// Close is unreachable since NewONNXEvaluator always errors in this build.
func (e *ONNXEvaluator) Close() error {
	return nil
}
