package llm

import (
	"context"
	"fmt"

	"github.com/0xReLogic/Cognio/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// openaiCompleter speaks the OpenAI chat completions protocol. It also
// serves Groq, which exposes the same API under its own base URL.
type openaiCompleter struct {
	client openai.Client
	model  string
}

func newOpenAICompleter(cfg *config.LLMConfig, defaultBaseURL string) *openaiCompleter {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	return &openaiCompleter{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *openaiCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
