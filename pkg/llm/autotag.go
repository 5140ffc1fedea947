package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// maxTagInputChars bounds how much text is sent for tag generation. Longer
// inputs are truncated; the opening characters carry enough signal.
const maxTagInputChars = 8000

const tagSystemPrompt = `You label short personal notes. Respond with exactly one JSON object of the form {"category": string, "tags": [string]} and nothing else. Pick 2-5 short lowercase tags and one broad category.`

// Tagger generates tags and a category for untagged saves. Any remote
// failure or malformed response degrades to an empty result so a save never
// fails because of tagging.
type Tagger struct {
	completer Completer
	logger    Logger
}

// NewTagger creates a tagger on the given completion client.
func NewTagger(completer Completer, logger Logger) *Tagger {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Tagger{completer: completer, logger: logger}
}

// GenerateTags asks the model for tags and a category.
func (t *Tagger) GenerateTags(ctx context.Context, text string) ([]string, string) {
	if len(text) > maxTagInputChars {
		text = text[:maxTagInputChars]
	}

	raw, err := t.completer.Complete(ctx, tagSystemPrompt, text)
	if err != nil {
		t.logger.Warn("tag generation failed", "error", err)
		return nil, ""
	}

	var parsed struct {
		Category string   `json:"category"`
		Tags     []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		t.logger.Warn("tag response was not valid JSON", "error", err)
		return nil, ""
	}

	tags := make([]string, 0, len(parsed.Tags))
	for _, tag := range parsed.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, strings.ToLower(strings.TrimSpace(parsed.Category))
}

// stripCodeFence unwraps a ```json ... ``` fenced response.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
