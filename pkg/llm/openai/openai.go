// Package openai implements pkg/llm's Generator on the OpenAI chat
// completions API, including Azure OpenAI deployments.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/llm"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-4o-mini"

	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// Generator wraps the OpenAI chat completions API.
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// Config holds configuration for the OpenAI generator.
type Config struct {
	// APIKey authenticates against the OpenAI or Azure OpenAI API.
	APIKey string

	// BaseURL, when set, points at an Azure OpenAI resource endpoint.
	// Empty uses the public OpenAI API.
	BaseURL string

	// Model is the chat model or Azure deployment name.
	Model string

	// MaxTokens bounds each completion. Defaults to 1000.
	MaxTokens int
}

// NewGenerator creates a chat completion generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	var clientCfg openai.ClientConfig
	if cfg.BaseURL != "" {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: defaultTemperature,
	}, nil
}

// Generate returns the completion text for the given messages.
func (g *Generator) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    chatMessages,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Close releases resources held by the generator.
func (g *Generator) Close() error {
	return nil
}

var _ llm.Generator = (*Generator)(nil)
