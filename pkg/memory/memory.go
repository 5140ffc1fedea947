// Package memory provides a personal memory store with content-hash
// deduplication and hybrid lexical+semantic search over a Badger-backed
// persistence layer.
package memory

import (
	"context"
	"errors"
)

// Sentinel errors for the memory system.
var (
	ErrEmptyText      = errors.New("memory: empty text")
	ErrTextTooLong    = errors.New("memory: text exceeds maximum length")
	ErrDuplicateHash  = errors.New("memory: duplicate content hash")
	ErrInvalidDate    = errors.New("memory: invalid date")
	ErrInvalidFormat  = errors.New("memory: unsupported export format")
	ErrNotFound       = errors.New("memory: record not found")
	ErrStorageFailure = errors.New("memory: storage unavailable")
)

// Encoder maps text to fixed-dimension embedding vectors. Implementations
// must be deterministic for identical text and are expected to cache by
// content hash.
type Encoder interface {
	// Encode returns the embedding for text. hash is the content hash used
	// as the cache key.
	Encode(ctx context.Context, text, hash string) ([]float32, error)

	// EncodeBatch embeds several texts in one call, bypassing any queueing.
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int
}

// Tagger generates tags for untagged saves. Implementations must degrade to
// an empty result on failure rather than returning an error.
type Tagger interface {
	GenerateTags(ctx context.Context, text string) (tags []string, category string)
}

// Summarizer produces a short summary of a long text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// MetricsRecorder receives domain-level measurements from the service.
type MetricsRecorder interface {
	RecordSave(outcome string)
	RecordSearch(mode string, seconds float64)
	RecordReembed(scanned, reembedded int)
}

// nopMetrics is the default MetricsRecorder.
type nopMetrics struct{}

func (nopMetrics) RecordSave(string)            {}
func (nopMetrics) RecordSearch(string, float64) {}
func (nopMetrics) RecordReembed(int, int)       {}
