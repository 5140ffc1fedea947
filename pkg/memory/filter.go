package memory

import (
	"strings"
	"time"
)

// Filters holds the optional search/list predicates. Project and the date
// bounds are conjunctive; tags are disjunctive (any one tag matches).
// They are applied identically on every retrieval path, after candidate
// retrieval and before scoring.
type Filters struct {
	Project    string
	Tags       []string
	AfterDate  string // inclusive ISO-8601 lower bound on created_at
	BeforeDate string // inclusive ISO-8601 upper bound on created_at
}

// Match reports whether the record passes every predicate. Malformed date
// strings disable their bound rather than failing the match.
func (f Filters) Match(m *Memory) bool {
	if f.Project != "" && m.Project != f.Project {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(m.Tags, f.Tags) {
		return false
	}
	if after, ok := parseFilterDate(f.AfterDate); ok && m.CreatedAt < after {
		return false
	}
	if before, ok := parseFilterDate(f.BeforeDate); ok && m.CreatedAt > before {
		return false
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// filterDateLayouts are tried in order. A bare "Z" suffix is normalized to
// an explicit zero UTC offset first, and offset-less timestamps are read
// as UTC.
var filterDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseFilterDate parses an ISO-8601 date string into epoch seconds.
// Returns ok=false for empty or malformed input.
func parseFilterDate(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	for _, layout := range filterDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}

// ParseDate is the strict variant used where a malformed date is invalid
// input rather than an ignorable bound.
func ParseDate(s string) (int64, error) {
	epoch, ok := parseFilterDate(s)
	if !ok {
		return 0, ErrInvalidDate
	}
	return epoch, nil
}
