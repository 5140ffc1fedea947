package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Export formats supported by Export.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Export renders the filtered non-archived corpus in the given format,
// newest first. Embeddings are stripped since they are internal state and
// dominate the payload size.
func (s *Service) Export(ctx context.Context, format string, f Filters) ([]byte, error) {
	records, err := s.store.List(ctx, f, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	switch format {
	case FormatJSON:
		return exportJSON(records)
	case FormatMarkdown:
		return exportMarkdown(records), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
}

// exportEntry is the JSON export shape without the embedding.
type exportEntry struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Summary   string   `json:"summary,omitempty"`
	Project   string   `json:"project,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func exportJSON(records []*Memory) ([]byte, error) {
	entries := make([]exportEntry, len(records))
	for i, m := range records {
		entries[i] = exportEntry{
			ID:        m.ID,
			Text:      m.Text,
			Summary:   m.Summary,
			Project:   m.Project,
			Tags:      m.Tags,
			CreatedAt: time.Unix(m.CreatedAt, 0).UTC().Format(time.RFC3339),
			UpdatedAt: time.Unix(m.UpdatedAt, 0).UTC().Format(time.RFC3339),
		}
	}
	return json.MarshalIndent(entries, "", "  ")
}

func exportMarkdown(records []*Memory) []byte {
	var b strings.Builder
	b.WriteString("# Memory Export\n\n")
	fmt.Fprintf(&b, "Exported %s, %d memories.\n", time.Now().UTC().Format("2006-01-02"), len(records))

	for _, m := range records {
		b.WriteString("\n---\n\n")
		title := m.Project
		if title == "" {
			title = "(no project)"
		}
		fmt.Fprintf(&b, "## %s\n\n", title)
		fmt.Fprintf(&b, "- **ID:** %s\n", m.ID)
		fmt.Fprintf(&b, "- **Created:** %s\n", time.Unix(m.CreatedAt, 0).UTC().Format(time.RFC3339))
		if len(m.Tags) > 0 {
			fmt.Fprintf(&b, "- **Tags:** %s\n", strings.Join(m.Tags, ", "))
		}
		if m.Summary != "" {
			fmt.Fprintf(&b, "\n> %s\n", m.Summary)
		}
		b.WriteString("\n")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return []byte(b.String())
}
