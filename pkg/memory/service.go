package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/0xReLogic/Cognio/config"
	"github.com/google/uuid"
)

// saveLockStripes bounds the per-hash lock table. Saves for the same hash
// always hit the same stripe, serializing the duplicate-check-then-insert
// sequence; the store's hash key constraint covers anything that slips past.
const saveLockStripes = 64

// Service coordinates the store, lexical index, and external collaborators
// behind the save/search/list/maintenance operations.
type Service struct {
	mu sync.RWMutex

	cfg        *config.MemoryConfig
	store      Store
	index      *LexicalIndex
	encoder    Encoder
	tagger     Tagger     // nil disables auto-tagging
	summarizer Summarizer // nil disables summarization
	metrics    MetricsRecorder
	logger     svcLogger

	saveLocks [saveLockStripes]sync.Mutex
	started   bool
}

// svcLogger is the minimal logger interface used by the Service.
type svcLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopSvcLogger is a no-op logger.
type nopSvcLogger struct{}

func (n *nopSvcLogger) Debug(msg string, args ...any) {}
func (n *nopSvcLogger) Info(msg string, args ...any)  {}
func (n *nopSvcLogger) Warn(msg string, args ...any)  {}
func (n *nopSvcLogger) Error(msg string, args ...any) {}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithTagger enables LLM-based tagging for untagged saves.
func WithTagger(t Tagger) Option {
	return func(s *Service) { s.tagger = t }
}

// WithSummarizer enables summary generation for long texts.
func WithSummarizer(sum Summarizer) Option {
	return func(s *Service) { s.summarizer = sum }
}

// WithMetrics attaches a domain metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(l svcLogger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a memory service from configuration, storage, and an
// embedding encoder.
func NewService(cfg *config.MemoryConfig, store Store, encoder Encoder, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		store:   store,
		index:   NewLexicalIndex(cfg.BM25.K1, cfg.BM25.B),
		encoder: encoder,
		metrics: nopMetrics{},
		logger:  &nopSvcLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start rebuilds the lexical index from the store. A rebuild failure is
// logged and leaves the index not ready, which degrades every search to
// semantic-only mode instead of failing startup.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("memory service already started")
	}

	records, err := s.store.All(ctx)
	if err != nil {
		s.logger.Error("lexical index rebuild failed, searches degrade to semantic-only", "error", err)
	} else {
		s.index.Rebuild(records)
		s.logger.Info("lexical index rebuilt", "records", len(records))
	}

	s.started = true
	return nil
}

// Stop shuts the service down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	s.logger.Info("memory service stopped")
	return nil
}

// Index exposes the lexical index for introspection.
func (s *Service) Index() *LexicalIndex {
	return s.index
}

// Save stores a text snippet. Identical text is detected by content hash and
// returns the existing id with the duplicate flag instead of re-inserting.
func (s *Service) Save(ctx context.Context, text, project string, tags []string) (*SaveResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyText
	}
	if len(text) > s.cfg.MaxTextLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrTextTooLong, len(text), s.cfg.MaxTextLength)
	}

	hash := HashText(text)
	lock := &s.saveLocks[hash[0]%saveLockStripes]
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.store.GetByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if existing != nil {
		s.metrics.RecordSave("duplicate")
		return &SaveResult{ID: existing.ID, Duplicate: true, Reason: "identical content already saved"}, nil
	}

	vec, err := s.encoder.Encode(ctx, text, hash)
	if err != nil {
		// Saved without an embedding; a later re-embed pass fills it in.
		s.logger.Warn("embedding failed, saving without vector", "error", err)
		vec = nil
	}

	summary := ""
	if s.summarizer != nil && wordCount(text) > s.cfg.SummarizeThreshold {
		summary, err = s.summarizer.Summarize(ctx, text)
		if err != nil {
			s.logger.Warn("summarization failed", "error", err)
			summary = ""
		}
	}

	if len(tags) == 0 && s.tagger != nil {
		generated, category := s.tagger.GenerateTags(ctx, text)
		tags = generated
		if category != "" && !containsString(tags, category) {
			tags = append([]string{category}, tags...)
		}
	}

	now := time.Now().Unix()
	m := &Memory{
		ID:        uuid.New().String(),
		Text:      text,
		Summary:   summary,
		TextHash:  hash,
		Embedding: vec,
		Project:   project,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, m); err != nil {
		if errors.Is(err, ErrDuplicateHash) {
			// Lost a check-then-act race; the winner's record is the result.
			winner, lookupErr := s.store.GetByHash(ctx, hash)
			if lookupErr == nil && winner != nil {
				s.metrics.RecordSave("duplicate")
				return &SaveResult{ID: winner.ID, Duplicate: true, Reason: "identical content already saved"}, nil
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.index.Index(m.ID, m.Project, m.CreatedAt, m.Text)
	s.metrics.RecordSave("saved")
	s.logger.Debug("memory saved", "id", m.ID, "project", project, "tags", len(tags))
	return &SaveResult{ID: m.ID}, nil
}

// Search runs a hybrid or semantic-only search depending on configuration
// and lexical index availability.
func (s *Service) Search(ctx context.Context, opts SearchOptions) ([]SearchResult, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultSearchLimit
	}
	threshold := s.cfg.SimilarityThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	f := Filters{
		Project:    opts.Project,
		Tags:       opts.Tags,
		AfterDate:  opts.AfterDate,
		BeforeDate: opts.BeforeDate,
	}

	started := time.Now()
	queryVec, encErr := s.encoder.Encode(ctx, query, HashText(query))
	if encErr != nil {
		s.logger.Warn("query embedding failed", "error", encErr)
	}

	if s.cfg.HybridEnabled && s.index.Ready() {
		cands, err := s.gatherLexical(ctx, query, f, s.cfg.MaxCandidates)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		if len(cands) > 0 {
			if encErr != nil {
				results := rankLexicalOnly(cands, limit)
				s.metrics.RecordSearch("lexical", time.Since(started).Seconds())
				return results, nil
			}
			results := fuseHybrid(queryVec, cands, s.cfg.HybridAlpha, threshold, limit)
			s.metrics.RecordSearch("hybrid", time.Since(started).Seconds())
			return results, nil
		}
		// Both lexical steps came back empty after filtering; the semantic
		// scan below is the safety net.
	}

	if encErr != nil {
		return nil, nil
	}
	working, err := s.semanticWorkingSet(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	results := rankSemantic(queryVec, working, threshold, limit)
	s.metrics.RecordSearch("semantic", time.Since(started).Seconds())
	return results, nil
}

// rankLexicalOnly orders candidates by lexical rank when no query embedding
// is available. No threshold applies since combined scores cannot be formed.
func rankLexicalOnly(cands []*candidate, limit int) []SearchResult {
	ordered := make([]*candidate, len(cands))
	copy(ordered, cands)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].rank < ordered[j].rank
	})
	if limit > 0 && limit < len(ordered) {
		ordered = ordered[:limit]
	}
	out := make([]SearchResult, len(ordered))
	for i, c := range ordered {
		score := 1.0 / (1.0 + c.rank)
		out[i] = resultFrom(c.mem, &score)
	}
	return out
}

// List returns a page of records, reverse-chronological by default or scored
// by semantic relevance when requested with a query. Relevance pagination
// slices an in-memory sorted working set, so Total reports that working
// set's size rather than a storage-level count.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	f := Filters{Project: opts.Project, Tags: opts.Tags}
	offset := (page - 1) * limit

	if opts.Sort == SortRelevance && strings.TrimSpace(opts.Query) != "" {
		return s.listByRelevance(ctx, f, opts.Query, page, limit, offset)
	}

	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	records, err := s.store.List(ctx, f, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	items := make([]SearchResult, len(records))
	for i, m := range records {
		items[i] = resultFrom(m, nil)
	}
	return &ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) listByRelevance(ctx context.Context, f Filters, query string, page, limit, offset int) (*ListResult, error) {
	working, err := s.store.List(ctx, f, s.cfg.MaxScanLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	queryVec, err := s.encoder.Encode(ctx, query, HashText(query))
	if err != nil {
		return nil, fmt.Errorf("memory: relevance sort needs a query embedding: %w", err)
	}

	type scored struct {
		mem *Memory
		sim float64
	}
	scoredSet := make([]scored, len(working))
	for i, m := range working {
		sim := 0.0
		if len(m.Embedding) == len(queryVec) {
			sim = cosineSimilarity(queryVec, m.Embedding)
		}
		scoredSet[i] = scored{mem: m, sim: sim}
	}
	sort.SliceStable(scoredSet, func(i, j int) bool {
		return scoredSet[i].sim > scoredSet[j].sim
	})

	total := len(scoredSet)
	if offset >= total {
		return &ListResult{Items: nil, Total: total, Page: page, Limit: limit}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	pageSet := scoredSet[offset:end]
	items := make([]SearchResult, len(pageSet))
	for i, sc := range pageSet {
		sim := sc.sim
		items[i] = resultFrom(sc.mem, &sim)
	}
	return &ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Get returns a record by id, archived or not.
func (s *Service) Get(ctx context.Context, id string) (*Memory, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneMemory(m), nil
}

// Delete hard-deletes a record. Returns false when the id is unknown.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	found, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if found {
		s.index.Remove(id)
	}
	return found, nil
}

// Archive soft-deletes a record, removing it from search/list/stats while
// keeping it for direct lookup.
func (s *Service) Archive(ctx context.Context, id string) (bool, error) {
	found, err := s.store.Archive(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if found {
		s.index.Remove(id)
	}
	return found, nil
}

// BulkDelete removes records matching the project and/or created before the
// date. Unlike search date filters, a malformed beforeDate here is invalid
// input. Returns the number of deleted records.
func (s *Service) BulkDelete(ctx context.Context, project, beforeDate string) (int, error) {
	var beforeEpoch int64
	if beforeDate != "" {
		var err error
		beforeEpoch, err = ParseDate(beforeDate)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDate, beforeDate)
		}
	}
	count, err := s.store.BulkDelete(ctx, project, beforeEpoch)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if count > 0 {
		// Cheaper than tracking individual victims through the store.
		if records, err := s.store.All(ctx); err == nil {
			s.index.Rebuild(records)
		}
	}
	return count, nil
}

// ReembedMismatched re-embeds records whose vector is missing or has the
// wrong dimension, in fixed-size pages. Idempotent: a second run finds
// nothing left to fix.
func (s *Service) ReembedMismatched(ctx context.Context, pageSize int) (*ReembedResult, error) {
	if pageSize <= 0 {
		pageSize = 500
	}
	dim := s.encoder.Dimension()
	res := &ReembedResult{}

	for offset := 0; ; offset += pageSize {
		page, err := s.store.List(ctx, Filters{}, pageSize, offset)
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		if len(page) == 0 {
			break
		}
		res.Scanned += len(page)

		var mismatched []*Memory
		for _, m := range page {
			if len(m.Embedding) != dim {
				mismatched = append(mismatched, m)
			}
		}
		if len(mismatched) == 0 {
			if len(page) < pageSize {
				break
			}
			continue
		}

		texts := make([]string, len(mismatched))
		for i, m := range mismatched {
			texts[i] = m.Text
		}
		vecs, err := s.encoder.EncodeBatch(ctx, texts)
		if err != nil {
			return res, fmt.Errorf("memory: re-embed batch failed: %w", err)
		}
		for i, m := range mismatched {
			if err := s.store.UpdateEmbedding(ctx, m.ID, vecs[i]); err != nil {
				return res, fmt.Errorf("%w: %v", ErrStorageFailure, err)
			}
			res.Reembedded++
		}

		if len(page) < pageSize {
			break
		}
	}

	s.metrics.RecordReembed(res.Scanned, res.Reembedded)
	s.logger.Info("re-embed pass finished", "scanned", res.Scanned, "reembedded", res.Reembedded)
	return res, nil
}

// Stats summarizes the non-archived corpus.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return stats, nil
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
