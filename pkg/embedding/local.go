package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// Load states for the lazy first-use initialization.
const (
	stateUnloaded = iota
	stateLoading
	stateReady
)

// LocalEncoder is a deterministic feature-hash encoder. It seeds a linear
// congruential generator with the FNV-64a hash of the text and emits a
// normalized unit vector, so identical text always maps to the identical
// vector without any model files.
//
// The per-dimension mixing seeds are built lazily on first use. Concurrent
// first callers are collapsed into a single load; the rest wait on the
// condition until the state reaches ready.
type LocalEncoder struct {
	dim int

	mu    sync.Mutex
	cond  *sync.Cond
	state int
	seeds []uint64
}

// NewLocalEncoder creates a local encoder with the given vector dimension.
func NewLocalEncoder(dim int) *LocalEncoder {
	e := &LocalEncoder{dim: dim, state: stateUnloaded}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Dimension returns the embedding vector dimension.
func (e *LocalEncoder) Dimension() int { return e.dim }

// Encode returns the deterministic embedding for text.
func (e *LocalEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

// EncodeBatch embeds several texts in one call.
func (e *LocalEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

// ensureLoaded builds the seed table exactly once. Only the first caller
// loads; late arrivals during the load wait until the state flips to ready.
func (e *LocalEncoder) ensureLoaded(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		switch e.state {
		case stateReady:
			return nil
		case stateLoading:
			e.cond.Wait()
		case stateUnloaded:
			e.state = stateLoading
			e.mu.Unlock()
			seeds := buildSeeds(e.dim)
			e.mu.Lock()
			e.seeds = seeds
			e.state = stateReady
			e.cond.Broadcast()
			return nil
		}
	}
}

// buildSeeds derives one stable mixing constant per dimension.
func buildSeeds(dim int) []uint64 {
	seeds := make([]uint64, dim)
	s := uint64(0x9e3779b97f4a7c15)
	for i := range seeds {
		s = lcgNext(s)
		seeds[i] = s
	}
	return seeds
}

func (e *LocalEncoder) embed(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text)) //nolint:errcheck
	seed := h.Sum64()

	vec := make([]float32, e.dim)
	for i := range vec {
		seed = lcgNext(seed ^ e.seeds[i])
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(vec)
}

// lcgNext advances a 64-bit linear congruential generator (Knuth MMIX).
func lcgNext(s uint64) uint64 {
	return s*6364136223846793005 + 1442695040888963407
}

// normalize scales vec to unit length in place. A zero vector is returned
// unchanged.
func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
