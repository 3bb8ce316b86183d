package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// GroqProvider talks to Groq through its OpenAI-compatible endpoint.
type GroqProvider struct {
	client *openai.Client
	model  string
}

// NewGroqProvider builds a provider for apiKey. baseURL may point at any
// OpenAI-compatible server.
func NewGroqProvider(apiKey, baseURL, model string, httpClient *http.Client) *GroqProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &GroqProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (g *GroqProvider) Name() string { return "groq" }

func (g *GroqProvider) Complete(ctx context.Context, c Completion) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(c.Messages)+1)
	if c.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: c.System})
	}
	for _, m := range c.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("groq chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("groq returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("groq returned empty text")
	}
	return text, nil
}
