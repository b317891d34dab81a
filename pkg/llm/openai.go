package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator generates candidate SQL through any OpenAI-compatible
// chat completion endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. baseURL may be empty for the
// default endpoint.
func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// GenerateSQL asks the model for a single SELECT answering the question.
func (g *OpenAIGenerator) GenerateSQL(ctx context.Context, question, schemaContext string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(schemaContext)},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion returned no choices")
	}
	return ExtractSQL(resp.Choices[0].Message.Content), nil
}
