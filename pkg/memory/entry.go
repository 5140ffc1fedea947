package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Memory is a single stored memory record.
type Memory struct {
	// ID is the unique identifier for this record.
	ID string `json:"id"`

	// Text is the raw saved text.
	Text string `json:"text"`

	// Summary is an optional generated summary of Text.
	Summary string `json:"summary,omitempty"`

	// TextHash is the SHA-256 digest of Text, used for deduplication.
	TextHash string `json:"text_hash"`

	// Embedding is the semantic vector for Text.
	// Nil when the embedding has not been computed yet.
	Embedding []float32 `json:"embedding,omitempty"`

	// Project is an optional grouping label.
	Project string `json:"project,omitempty"`

	// Tags is an unordered set of labels.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt is the creation time in epoch seconds.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the last mutation time in epoch seconds.
	UpdatedAt int64 `json:"updated_at"`

	// Archived marks the record as soft-deleted. Archived records are
	// excluded from search, list, and stats but kept for direct lookup.
	Archived bool `json:"archived"`
}

// HashText returns the hex-encoded SHA-256 digest of text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SearchResult is a projection of a Memory with an optional relevance score.
type SearchResult struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Summary   string   `json:"summary,omitempty"`
	Project   string   `json:"project,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`

	// Score is nil when the result was not scored (plain date listing).
	Score *float64 `json:"score,omitempty"`
}

// resultFrom builds a SearchResult from a record. score may be nil.
func resultFrom(m *Memory, score *float64) SearchResult {
	return SearchResult{
		ID:        m.ID,
		Text:      m.Text,
		Summary:   m.Summary,
		Project:   m.Project,
		Tags:      m.Tags,
		CreatedAt: time.Unix(m.CreatedAt, 0).UTC().Format(time.RFC3339),
		Score:     score,
	}
}

// candidate pairs a record with its raw sub-scores during a single search.
type candidate struct {
	mem  *Memory
	rank float64 // lexical rank, lower is better
	sim  float64 // cosine similarity, filled during fusion
}

// SearchOptions controls a search call.
type SearchOptions struct {
	Query      string
	Project    string
	Tags       []string
	Limit      int
	Threshold  *float64 // nil uses the configured default
	AfterDate  string   // inclusive ISO-8601 lower bound on created_at
	BeforeDate string   // inclusive ISO-8601 upper bound on created_at
}

// Sort modes for List.
const (
	SortDate      = "date"
	SortRelevance = "relevance"
)

// ListOptions controls a list call.
type ListOptions struct {
	Project string
	Tags    []string
	Page    int
	Limit   int
	Sort    string // SortDate or SortRelevance
	Query   string // scoring query for SortRelevance
}

// ListResult is one page of records plus the total count of the working set.
type ListResult struct {
	Items []SearchResult `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// SaveResult reports the outcome of a save.
type SaveResult struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
	Reason    string `json:"reason,omitempty"`
}

// ReembedResult reports a bulk re-embedding pass.
type ReembedResult struct {
	Scanned    int `json:"scanned"`
	Reembedded int `json:"reembedded"`
}

// Stats summarizes the non-archived corpus.
type Stats struct {
	TotalMemories    int            `json:"total_memories"`
	ByProject        map[string]int `json:"by_project"`
	TagsDistribution map[string]int `json:"tags_distribution"`
	AvgTextLength    float64        `json:"avg_text_length"`
}

// cloneMemory returns a deep copy so callers cannot mutate stored state.
func cloneMemory(m *Memory) *Memory {
	if m == nil {
		return nil
	}
	clone := *m
	if m.Embedding != nil {
		clone.Embedding = append([]float32(nil), m.Embedding...)
	}
	if m.Tags != nil {
		clone.Tags = append([]string(nil), m.Tags...)
	}
	return &clone
}
