// Package llm provides the language-model collaborators for the memory
// service: a provider-agnostic completion client plus the tagging and
// summarization helpers built on top of it.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xReLogic/Cognio/config"
)

// ErrUnknownProvider is returned for an unrecognized provider name.
var ErrUnknownProvider = errors.New("llm: unknown provider")

// Completer issues one chat completion with a system and a user prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Logger is the minimal logging interface used by this package.
type Logger interface {
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// New creates the completion client named by the configuration. Groq speaks
// the OpenAI wire protocol, so it shares the OpenAI client with a different
// base URL.
func New(cfg *config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAICompleter(cfg, ""), nil
	case "groq":
		return newOpenAICompleter(cfg, groqBaseURL), nil
	case "anthropic":
		return newAnthropicCompleter(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
