// Package openai provides the OpenAI implementation of llm.Provider.
//
// Any OpenAI-compatible endpoint (Azure, OpenRouter, a local gateway) can be
// used by setting BaseURL.
package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/helioscrm/cognition-go/pkg/llm"
)

// Client is an OpenAI-backed llm.Provider.
type Client struct {
	client *openai.Client
	model  string
}

// Config is the configuration for the OpenAI client.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// Model is the model name, e.g. "gpt-4o-mini" (required).
	Model string

	// BaseURL overrides the API base URL (optional).
	BaseURL string
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai: model is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}, nil
}

// Generate generates text from a single prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	messages := []llm.Message{
		{Role: "user", Content: prompt},
	}
	return c.GenerateWithMessages(ctx, messages, opts...)
}

// GenerateWithMessages generates text from a conversation history.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		Stop:        options.Stop,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the underlying SDK client holds no resources that need
// explicit release.
func (c *Client) Close() error {
	return nil
}
