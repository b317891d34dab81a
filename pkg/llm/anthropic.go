package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicGenerator generates candidate SQL through the Anthropic
// Messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicGenerator creates a generator. baseURL may be empty for the
// default endpoint.
func NewAnthropicGenerator(apiKey, baseURL, model string) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}

	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicGenerator{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}, nil
}

// GenerateSQL asks the model for a single SELECT answering the question.
func (g *AnthropicGenerator) GenerateSQL(ctx context.Context, question, schemaContext string) (string, error) {
	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		MaxTokens: 1024,
		System:    BuildSystemPrompt(schemaContext),
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(question),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("anthropic completion returned no content")
	}
	return ExtractSQL(resp.Content[0].GetText()), nil
}
