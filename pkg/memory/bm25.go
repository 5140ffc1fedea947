package memory

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// RankedMatch is a lexical search hit. Rank is a relevance distance where
// lower is better; the best match always has rank 0.
type RankedMatch struct {
	ID   string
	Rank float64
}

// LexicalIndex provides full-text search using the BM25 scoring algorithm.
// It is rebuilt from the store at startup; until then Ready reports false
// and searches fall back to semantic-only mode.
type LexicalIndex struct {
	mu sync.RWMutex

	// BM25 parameters
	k1 float64
	b  float64

	// Inverted index: term -> set of record IDs
	invertedIndex map[string]map[string]struct{}

	// Forward index: record ID -> term frequencies
	termFreqs map[string]map[string]int

	// Document lengths (in tokens)
	docLengths map[string]int

	// Per-record metadata for project filtering and substring fallback
	projects map[string]string
	texts    map[string]string // lowercased full text
	created  map[string]int64

	// Corpus stats
	totalDocs int
	totalLen  int

	ready bool

	stopWords map[string]struct{}
}

// NewLexicalIndex creates a new index with the given BM25 parameters.
func NewLexicalIndex(k1, b float64) *LexicalIndex {
	return &LexicalIndex{
		k1:            k1,
		b:             b,
		invertedIndex: make(map[string]map[string]struct{}),
		termFreqs:     make(map[string]map[string]int),
		docLengths:    make(map[string]int),
		projects:      make(map[string]string),
		texts:         make(map[string]string),
		created:       make(map[string]int64),
		stopWords:     defaultStopWords(),
	}
}

// Rebuild replaces the index contents with the given records and marks the
// index ready.
func (idx *LexicalIndex) Rebuild(records []*Memory) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.invertedIndex = make(map[string]map[string]struct{})
	idx.termFreqs = make(map[string]map[string]int)
	idx.docLengths = make(map[string]int)
	idx.projects = make(map[string]string)
	idx.texts = make(map[string]string)
	idx.created = make(map[string]int64)
	idx.totalDocs = 0
	idx.totalLen = 0

	for _, m := range records {
		idx.indexLocked(m.ID, m.Project, m.CreatedAt, m.Text)
	}
	idx.ready = true
}

// Ready reports whether the index has been built.
func (idx *LexicalIndex) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ready
}

// Index adds or updates a record in the index.
func (idx *LexicalIndex) Index(id, project string, createdAt int64, text string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.indexLocked(id, project, createdAt, text)
}

func (idx *LexicalIndex) indexLocked(id, project string, createdAt int64, text string) {
	// Remove old index if updating
	if _, exists := idx.termFreqs[id]; exists {
		idx.removeLocked(id)
	}

	tokens := idx.tokenize(text)
	freqs := make(map[string]int)
	for _, token := range tokens {
		freqs[token]++
	}

	idx.termFreqs[id] = freqs
	idx.docLengths[id] = len(tokens)
	idx.projects[id] = project
	idx.texts[id] = strings.ToLower(text)
	idx.created[id] = createdAt
	idx.totalDocs++
	idx.totalLen += len(tokens)

	for term := range freqs {
		if idx.invertedIndex[term] == nil {
			idx.invertedIndex[term] = make(map[string]struct{})
		}
		idx.invertedIndex[term][id] = struct{}{}
	}
}

// Remove removes a record from the index.
func (idx *LexicalIndex) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
}

func (idx *LexicalIndex) removeLocked(id string) {
	freqs, exists := idx.termFreqs[id]
	if !exists {
		return
	}

	for term := range freqs {
		if docs, ok := idx.invertedIndex[term]; ok {
			delete(docs, id)
			if len(docs) == 0 {
				delete(idx.invertedIndex, term)
			}
		}
	}

	idx.totalLen -= idx.docLengths[id]
	idx.totalDocs--
	delete(idx.termFreqs, id)
	delete(idx.docLengths, id)
	delete(idx.projects, id)
	delete(idx.texts, id)
	delete(idx.created, id)
}

// SearchRanked performs a BM25 search and returns up to limit matches with
// ranks converted so lower is better and the best match has rank 0. If
// project is non-empty, results are restricted to that project.
func (idx *LexicalIndex) SearchRanked(query, project string, limit int) []RankedMatch {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.totalDocs == 0 {
		return nil
	}

	queryTokens := idx.tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	avgDL := float64(idx.totalLen) / float64(idx.totalDocs)

	candidates := make(map[string]struct{})
	for _, token := range queryTokens {
		if docs, ok := idx.invertedIndex[token]; ok {
			for id := range docs {
				if project != "" && idx.projects[id] != project {
					continue
				}
				candidates[id] = struct{}{}
			}
		}
	}

	type scored struct {
		id    string
		score float64
	}

	results := make([]scored, 0, len(candidates))
	for id := range candidates {
		score := idx.scoreLocked(id, queryTokens, avgDL)
		if score > 0 {
			results = append(results, scored{id: id, score: score})
		}
	}
	if len(results) == 0 {
		return nil
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	// Ranks are distances from the best score, so the top match gets the
	// same rank 0 a substring fallback match would.
	best := results[0].score
	matches := make([]RankedMatch, len(results))
	for i, r := range results {
		matches[i] = RankedMatch{ID: r.id, Rank: best - r.score}
	}
	return matches
}

// SearchSubstring returns ids of records whose text contains the query as a
// case-insensitive substring, newest first, capped at limit.
func (idx *LexicalIndex) SearchSubstring(query, project string, limit int) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	type hit struct {
		id      string
		created int64
	}
	var hits []hit
	for id, text := range idx.texts {
		if project != "" && idx.projects[id] != project {
			continue
		}
		if strings.Contains(text, needle) {
			hits = append(hits, hit{id: id, created: idx.created[id]})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].created != hits[j].created {
			return hits[i].created > hits[j].created
		}
		return hits[i].id < hits[j].id
	})

	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

// Len returns the number of indexed records.
func (idx *LexicalIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.totalDocs
}

// scoreLocked calculates the BM25 score for a record. Must be called with read lock held.
func (idx *LexicalIndex) scoreLocked(docID string, queryTokens []string, avgDL float64) float64 {
	docLen := float64(idx.docLengths[docID])
	freqs := idx.termFreqs[docID]
	score := 0.0

	for _, term := range queryTokens {
		tf := float64(freqs[term])
		if tf == 0 {
			continue
		}

		// IDF: log((N - n + 0.5) / (n + 0.5) + 1)
		n := float64(len(idx.invertedIndex[term]))
		idf := math.Log((float64(idx.totalDocs)-n+0.5)/(n+0.5) + 1.0)

		// BM25 term score
		numerator := tf * (idx.k1 + 1)
		denominator := tf + idx.k1*(1-idx.b+idx.b*docLen/avgDL)
		score += idf * numerator / denominator
	}

	return score
}

// tokenize splits text into lowercase tokens, removing punctuation and stop words.
func (idx *LexicalIndex) tokenize(text string) []string {
	text = strings.ToLower(text)

	tokens := make([]string, 0, len(text)/4)
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				token := current.String()
				if _, isStop := idx.stopWords[token]; !isStop {
					tokens = append(tokens, token)
				}
				current.Reset()
			}
			// Handle CJK characters as individual tokens
			if unicode.Is(unicode.Han, r) {
				tokens = append(tokens, string(r))
			}
		}
	}
	if current.Len() > 0 {
		token := current.String()
		if _, isStop := idx.stopWords[token]; !isStop {
			tokens = append(tokens, token)
		}
	}

	return tokens
}

func defaultStopWords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "could",
		"should", "may", "might", "shall", "can", "need", "dare", "ought",
		"used", "to", "of", "in", "for", "on", "with", "at", "by", "from",
		"as", "into", "through", "during", "before", "after", "above", "below",
		"between", "out", "off", "over", "under", "again", "further", "then",
		"once", "and", "but", "or", "nor", "not", "so", "yet", "both",
		"either", "neither", "each", "every", "all", "any", "few", "more",
		"most", "other", "some", "such", "no", "only", "own", "same", "than",
		"too", "very", "just", "because", "if", "when", "where", "how", "what",
		"which", "who", "whom", "this", "that", "these", "those", "i", "me",
		"my", "myself", "we", "our", "ours", "ourselves", "you", "your",
		"yours", "yourself", "yourselves", "he", "him", "his", "himself",
		"she", "her", "hers", "herself", "it", "its", "itself", "they",
		"them", "their", "theirs", "themselves",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
