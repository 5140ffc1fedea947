package embedding

import (
	"context"
	"fmt"

	"github.com/0xReLogic/Cognio/config"
	"github.com/dgraph-io/ristretto/v2"
)

// Service fronts an Encoder with a content-hash cache and request batching.
// It satisfies the encoder contract the memory service consumes: single
// encodes are cached and batched, EncodeBatch goes straight through for
// bulk work like re-embedding.
type Service struct {
	enc   Encoder
	cache *ristretto.Cache[string, []float32] // nil when caching is disabled
	queue *batchQueue
}

// NewService wraps enc according to the configuration. CacheEntries of zero
// disables the cache.
func NewService(cfg *config.EmbeddingConfig, enc Encoder) (*Service, error) {
	s := &Service{
		enc:   enc,
		queue: newBatchQueue(enc, cfg.BatchSize, cfg.BatchTimeout),
	}

	if cfg.CacheEntries > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
			NumCounters: cfg.CacheEntries * 10,
			MaxCost:     cfg.CacheEntries,
			BufferItems: 64,
		})
		if err != nil {
			s.queue.stop()
			return nil, fmt.Errorf("embedding: create cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Encode returns the embedding for text, keyed in the cache by hash.
func (s *Service) Encode(ctx context.Context, text, hash string) ([]float32, error) {
	if s.cache != nil {
		if vec, ok := s.cache.Get(hash); ok {
			return vec, nil
		}
	}

	vec, err := s.queue.submit(ctx, text, hash)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(hash, vec, 1)
	}
	return vec, nil
}

// EncodeBatch embeds texts directly, bypassing the queue and the cache.
func (s *Service) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return s.enc.EncodeBatch(ctx, texts)
}

// Dimension returns the embedding vector dimension.
func (s *Service) Dimension() int {
	return s.enc.Dimension()
}

// OnBatch registers an observer called with the size of every flushed
// encode batch. Must be set before the first Encode call.
func (s *Service) OnBatch(f func(size int)) {
	s.queue.onFlush = f
}

// Wait blocks until buffered cache writes are applied. Mostly useful in
// tests; production callers never need it.
func (s *Service) Wait() {
	if s.cache != nil {
		s.cache.Wait()
	}
}

// Close stops the batch queue and releases the cache.
func (s *Service) Close() {
	s.queue.stop()
	if s.cache != nil {
		s.cache.Close()
	}
}
