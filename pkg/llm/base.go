// Package llm defines the language-model provider contract used by the
// extraction layer.
//
// The cognitive core never talks to a model vendor directly; it consumes a
// Provider, which keeps extraction logic testable against canned responses
// and lets deployments point at any OpenAI-compatible endpoint.
package llm

import "context"

// Provider is the interface all model clients must satisfy.
type Provider interface {
	// Generate generates text from a single prompt.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)

	// GenerateWithMessages generates text from a conversation history
	// (system, user, assistant messages).
	GenerateWithMessages(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Message is a single message in a model conversation.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// GenerateOptions contains options for text generation.
type GenerateOptions struct {
	// Temperature controls randomness (0.0-2.0).
	Temperature float64

	// MaxTokens limits the response length.
	MaxTokens int

	// Stop contains sequences that end generation.
	Stop []string
}

// GenerateOption configures a single generation call.
type GenerateOption func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens in the response.
func WithMaxTokens(max int) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.MaxTokens = max
	}
}

// WithStop sets stop sequences for generation.
func WithStop(stop ...string) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.Stop = stop
	}
}

// ApplyGenerateOptions folds a slice of GenerateOption into a GenerateOptions
// value with extraction-friendly defaults (low temperature, bounded output).
func ApplyGenerateOptions(opts []GenerateOption) *GenerateOptions {
	options := &GenerateOptions{
		Temperature: 0.2,
		MaxTokens:   1000,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
