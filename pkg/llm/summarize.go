package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Summarization methods.
const (
	MethodExtractive  = "extractive"
	MethodAbstractive = "abstractive"
)

const summarySystemPrompt = `You compress personal notes. Reply with a 1-3 sentence summary of the note, plain text, no preamble.`

// SentenceEncoder embeds sentences for extractive scoring.
type SentenceEncoder interface {
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Summarizer produces short summaries of long texts. The extractive method
// picks the sentences closest to the embedding centroid and needs no LLM;
// the abstractive method asks the completion client and falls back to
// extractive when the model is unreachable.
type Summarizer struct {
	method       string
	maxSentences int
	encoder      SentenceEncoder
	completer    Completer // may be nil for extractive-only
	logger       Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewSummarizer creates a summarizer. completer may be nil when the method
// is extractive.
func NewSummarizer(method string, maxSentences int, encoder SentenceEncoder, completer Completer, logger Logger) *Summarizer {
	if maxSentences < 1 {
		maxSentences = 3
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Summarizer{
		method:       method,
		maxSentences: maxSentences,
		encoder:      encoder,
		completer:    completer,
		logger:       logger,
		cache:        make(map[string]string),
	}
}

// Summarize returns a summary of text. Results are cached per method and
// content hash.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	key := s.cacheKey(text)
	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	var summary string
	var err error
	switch s.method {
	case MethodAbstractive:
		summary, err = s.abstractive(ctx, text)
	default:
		summary, err = s.extractive(ctx, text)
	}
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[key] = summary
	s.mu.Unlock()
	return summary, nil
}

func (s *Summarizer) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return s.method + ":" + hex.EncodeToString(sum[:])
}

func (s *Summarizer) abstractive(ctx context.Context, text string) (string, error) {
	if s.completer == nil {
		return s.extractive(ctx, text)
	}
	summary, err := s.completer.Complete(ctx, summarySystemPrompt, text)
	if err != nil {
		s.logger.Warn("abstractive summary failed, falling back to extractive", "error", err)
		return s.extractive(ctx, text)
	}
	return strings.TrimSpace(summary), nil
}

// extractive scores each sentence by cosine similarity to the centroid of
// all sentence embeddings and keeps the top scorers in their original order.
func (s *Summarizer) extractive(ctx context.Context, text string) (string, error) {
	sentences := splitSentences(text)
	if len(sentences) <= s.maxSentences {
		return strings.TrimSpace(text), nil
	}

	vecs, err := s.encoder.EncodeBatch(ctx, sentences)
	if err != nil {
		return "", fmt.Errorf("llm: embed sentences: %w", err)
	}

	centroid := meanVector(vecs)
	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, vec := range vecs {
		scores[i] = scored{index: i, score: cosine(centroid, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	picked := scores[:s.maxSentences]
	sort.Slice(picked, func(i, j int) bool {
		return picked[i].index < picked[j].index
	})

	parts := make([]string, len(picked))
	for i, p := range picked {
		parts[i] = sentences[p.index]
	}
	return strings.Join(parts, " "), nil
}

// splitSentences breaks text on sentence-final punctuation, keeping the
// punctuation with its sentence. Whitespace-only fragments are dropped.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			next := rune(' ')
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if unicode.IsSpace(next) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func meanVector(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	mean := make([]float32, len(vecs[0]))
	for _, vec := range vecs {
		for i, v := range vec {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float32(len(vecs))
	}
	return mean
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
