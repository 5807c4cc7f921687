package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helioscrm/cognition-go/pkg/llm"
)

const (
	// defaultTimeout bounds every model call made by the extractor.
	defaultTimeout = 10 * time.Second

	// defaultMaxInputChars bounds the text sent to the model per call.
	defaultMaxInputChars = 8000
)

// LLMExtractor implements Extractor by prompting a language model.
type LLMExtractor struct {
	llm           llm.Provider
	timeout       time.Duration
	maxInputChars int
	logger        zerolog.Logger
}

// Config contains configuration for the LLM-backed extractor.
type Config struct {
	// Timeout bounds each model call (default 10s).
	Timeout time.Duration

	// MaxInputChars truncates input text before sending (default 8000).
	MaxInputChars int

	// Logger receives extraction diagnostics (default: disabled).
	Logger zerolog.Logger
}

// NewLLMExtractor creates an extractor on top of the given provider.
func NewLLMExtractor(provider llm.Provider, cfg *Config) *LLMExtractor {
	e := &LLMExtractor{
		llm:           provider,
		timeout:       defaultTimeout,
		maxInputChars: defaultMaxInputChars,
		logger:        zerolog.Nop(),
	}
	if cfg != nil {
		if cfg.Timeout > 0 {
			e.timeout = cfg.Timeout
		}
		if cfg.MaxInputChars > 0 {
			e.maxInputChars = cfg.MaxInputChars
		}
		e.logger = cfg.Logger
	}
	return e
}

// ExtractEntities extracts entities from a single piece of text.
func (e *LLMExtractor) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	response, err := e.generate(ctx, entityPrompt, e.truncate(text))
	if err != nil {
		return nil, fmt.Errorf("extract entities: %w", err)
	}

	var result struct {
		Entities []Entity `json:"entities"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &result); err != nil {
		return nil, fmt.Errorf("extract entities: invalid response: %w", err)
	}

	entities := result.Entities[:0]
	for _, ent := range result.Entities {
		if ent.Value == "" || ent.Type == "" {
			continue
		}
		entities = append(entities, ent)
	}
	return entities, nil
}

// ExtractFacts distills facts from a span of turns.
func (e *LLMExtractor) ExtractFacts(ctx context.Context, turns []Turn) ([]Fact, error) {
	conversation := formatTurns(turns)
	if conversation == "" {
		return nil, nil
	}

	response, err := e.generate(ctx, factPrompt, e.truncate(conversation))
	if err != nil {
		return nil, fmt.Errorf("extract facts: %w", err)
	}

	var result struct {
		Facts []Fact `json:"facts"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &result); err != nil {
		return nil, fmt.Errorf("extract facts: invalid response: %w", err)
	}

	facts := result.Facts[:0]
	for _, fact := range result.Facts {
		if fact.Text == "" {
			continue
		}
		if fact.Category == "" {
			fact.Category = FactContext
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

// DetectTopic returns a short topic label for a span of turns.
func (e *LLMExtractor) DetectTopic(ctx context.Context, turns []Turn) (string, error) {
	conversation := formatTurns(turns)
	if conversation == "" {
		return "", nil
	}

	response, err := e.generate(ctx, topicPrompt, e.truncate(conversation))
	if err != nil {
		return "", fmt.Errorf("detect topic: %w", err)
	}

	var result struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &result); err != nil {
		return "", fmt.Errorf("detect topic: invalid response: %w", err)
	}
	return strings.TrimSpace(result.Topic), nil
}

// Summarize compresses a span of turns into free text.
func (e *LLMExtractor) Summarize(ctx context.Context, turns []Turn, priorSummary string) (string, error) {
	conversation := formatTurns(turns)
	if conversation == "" {
		return priorSummary, nil
	}

	input := conversation
	if priorSummary != "" {
		input = fmt.Sprintf("Previous summary:\n%s\n\nConversation:\n%s", priorSummary, conversation)
	}

	response, err := e.generate(ctx, summaryPrompt, e.truncate(input))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// generate runs one bounded model call.
func (e *LLMExtractor) generate(ctx context.Context, systemPrompt, input string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	messages := []llm.Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: input},
	}
	return e.llm.GenerateWithMessages(callCtx, messages)
}

// truncate bounds the input text sent to the model, keeping the tail: in a
// conversation the most recent text carries the signal.
func (e *LLMExtractor) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= e.maxInputChars {
		return text
	}
	e.logger.Debug().Int("chars", len(runes)).Int("limit", e.maxInputChars).Msg("truncating extraction input")
	return string(runes[len(runes)-e.maxInputChars:])
}

// formatTurns renders turns as "role: content" lines, skipping system
// messages and empty content.
func formatTurns(turns []Turn) string {
	var parts []string
	for _, turn := range turns {
		if turn.Role == RoleSystem || strings.TrimSpace(turn.Content) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}
	return strings.Join(parts, "\n")
}

// stripCodeFences removes ```json ... ``` markers that models sometimes wrap
// around JSON output.
func stripCodeFences(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}
