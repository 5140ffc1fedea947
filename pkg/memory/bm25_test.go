package memory

import (
	"testing"
)

func TestLexicalIndex_IndexAndSearch(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)

	idx.Index("m1", "p1", 1, "the quick brown fox jumps over the lazy dog")
	idx.Index("m2", "p1", 2, "machine learning and artificial intelligence")
	idx.Index("m3", "p1", 3, "the fox is quick and brown")

	matches := idx.SearchRanked("quick fox", "", 10)
	if len(matches) == 0 {
		t.Fatal("expected results")
	}
	for _, m := range matches {
		if m.ID == "m2" {
			t.Errorf("m2 should not match 'quick fox', rank=%f", m.Rank)
		}
	}
}

func TestLexicalIndex_BestMatchHasRankZero(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)

	idx.Index("m1", "", 1, "python programming tutorial with examples")
	idx.Index("m2", "", 2, "python mentioned once among many other unrelated words here today")

	matches := idx.SearchRanked("python programming", "", 10)
	if len(matches) < 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Rank != 0.0 {
		t.Errorf("best match rank: expected 0.0, got %f", matches[0].Rank)
	}
	if matches[1].Rank <= matches[0].Rank {
		t.Errorf("expected increasing ranks, got %f then %f", matches[0].Rank, matches[1].Rank)
	}
}

func TestLexicalIndex_ProjectFilter(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)

	idx.Index("m1", "p1", 1, "hello world")
	idx.Index("m2", "p2", 2, "hello universe")

	matches := idx.SearchRanked("hello", "p1", 10)
	if len(matches) != 1 || matches[0].ID != "m1" {
		t.Errorf("expected only m1 from project p1, got %v", matches)
	}
}

func TestLexicalIndex_Remove(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)

	idx.Index("m1", "p1", 1, "hello world")
	idx.Remove("m1")

	if matches := idx.SearchRanked("hello", "", 10); len(matches) != 0 {
		t.Errorf("expected no results after removal, got %v", matches)
	}
	if idx.Len() != 0 {
		t.Errorf("expected 0 records, got %d", idx.Len())
	}
}

func TestLexicalIndex_Update(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)

	idx.Index("m1", "p1", 1, "hello world")
	idx.Index("m1", "p1", 1, "goodbye universe")

	if matches := idx.SearchRanked("hello", "", 10); len(matches) != 0 {
		t.Errorf("expected no results for old content, got %v", matches)
	}
	matches := idx.SearchRanked("goodbye", "", 10)
	if len(matches) != 1 || matches[0].ID != "m1" {
		t.Errorf("expected m1 for updated content, got %v", matches)
	}
}

func TestLexicalIndex_SearchSubstring(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)

	idx.Index("old", "p1", 100, "the connection string uses sslmode=require")
	idx.Index("new", "p1", 200, "sslmode=require is mandatory in production")
	idx.Index("other", "p1", 300, "unrelated note about deployments")

	ids := idx.SearchSubstring("sslmode=require", "", 10)
	if len(ids) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(ids))
	}
	// Newest first
	if ids[0] != "new" || ids[1] != "old" {
		t.Errorf("expected new,old, got %v", ids)
	}
}

func TestLexicalIndex_SearchSubstringCaseInsensitive(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)
	idx.Index("m1", "", 1, "Remember the API Key rotation schedule")

	if ids := idx.SearchSubstring("api key", "", 10); len(ids) != 1 {
		t.Errorf("expected case-insensitive hit, got %v", ids)
	}
}

func TestLexicalIndex_Ready(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)
	if idx.Ready() {
		t.Error("new index should not be ready")
	}
	idx.Rebuild(nil)
	if !idx.Ready() {
		t.Error("rebuilt index should be ready")
	}
}

func TestLexicalIndex_Rebuild(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)
	idx.Index("stale", "p1", 1, "stale content")

	idx.Rebuild([]*Memory{
		{ID: "m1", Project: "p1", CreatedAt: 1, Text: "fresh content"},
	})

	if matches := idx.SearchRanked("stale", "", 10); len(matches) != 0 {
		t.Errorf("expected stale record gone after rebuild, got %v", matches)
	}
	if idx.Len() != 1 {
		t.Errorf("expected 1 record, got %d", idx.Len())
	}
}

func TestLexicalIndex_EmptyQuery(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)
	idx.Index("m1", "p1", 1, "hello world")

	if matches := idx.SearchRanked("", "", 10); len(matches) != 0 {
		t.Errorf("expected no results for empty query, got %v", matches)
	}
	if ids := idx.SearchSubstring("  ", "", 10); len(ids) != 0 {
		t.Errorf("expected no substring hits for blank query, got %v", ids)
	}
}

func TestLexicalIndex_EmptyCorpus(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)
	if matches := idx.SearchRanked("hello", "", 10); len(matches) != 0 {
		t.Errorf("expected no results for empty corpus, got %v", matches)
	}
}

func TestLexicalIndex_StopWordsOnlyQuery(t *testing.T) {
	idx := NewLexicalIndex(1.5, 0.75)
	idx.Index("m1", "", 1, "the quick brown fox")

	if matches := idx.SearchRanked("the is a", "", 10); len(matches) != 0 {
		t.Errorf("expected no results for stop-word query, got %v", matches)
	}
}
