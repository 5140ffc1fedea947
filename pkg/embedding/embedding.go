// Package embedding turns text into fixed-dimension semantic vectors.
//
// The package ships two encoders: a deterministic local feature-hash encoder
// that needs no model files, and an ONNX runtime encoder (behind the "onnx"
// build tag) for MiniLM-style sentence transformers. Callers normally go
// through Service, which adds a content-hash cache and request batching on
// top of the raw encoder.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xReLogic/Cognio/config"
)

var (
	// ErrUnknownProvider is returned for an unrecognized provider name.
	ErrUnknownProvider = errors.New("embedding: unknown provider")

	// ErrClosed is returned when encoding through a closed Service.
	ErrClosed = errors.New("embedding: service closed")
)

// Encoder maps text onto embedding vectors. All vectors produced by one
// encoder have the same dimension, and identical text always produces an
// identical vector.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// New creates the encoder named by the configuration.
func New(cfg *config.EmbeddingConfig) (Encoder, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalEncoder(cfg.Dimension), nil
	case "onnx":
		return newONNXEncoder(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
