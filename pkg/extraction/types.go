// Package extraction turns raw conversation text into structured signals
// (entities, facts, topic, summary) using a language model.
//
// Everything the memory layer learns flows through the Extractor interface;
// the LLM-backed implementation bounds its input, carries a per-call timeout,
// and parses model output tolerantly so a bad response degrades to "no
// signal" rather than an error the caller has to reason about.
package extraction

import (
	"context"
	"time"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is a single message in a conversation.
type Turn struct {
	// Role is the speaker role: "user", "assistant", or "system".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Timestamp is when the turn was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Entity is a named thing mentioned in conversation (person, company, date,
// amount, ...).
type Entity struct {
	// Type is the entity category, e.g. "person" or "company".
	Type string `json:"type"`

	// Value is the entity text, e.g. "Acme Corp".
	Value string `json:"value"`

	// Context is a short phrase describing how the entity was mentioned.
	Context string `json:"context"`

	// Confidence is the extraction confidence (0.0-1.0).
	Confidence float64 `json:"confidence"`
}

// Fact categories.
const (
	FactDecision   = "decision"
	FactAction     = "action"
	FactPreference = "preference"
	FactContext    = "context"
	FactGoal       = "goal"
	FactConstraint = "constraint"
)

// Fact is a short, categorized statement distilled from a span of turns.
type Fact struct {
	// Text is the fact statement.
	Text string `json:"text"`

	// Category is one of the Fact* constants.
	Category string `json:"category"`

	// Confidence is the extraction confidence (0.0-1.0).
	Confidence float64 `json:"confidence"`
}

// Extractor converts conversation text into structured signals.
//
// All methods are safe to call with empty or short input: they return empty
// results rather than erroring, and never mutate their arguments.
type Extractor interface {
	// ExtractEntities extracts entities from a single piece of text.
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)

	// ExtractFacts distills facts from a span of turns.
	ExtractFacts(ctx context.Context, turns []Turn) ([]Fact, error)

	// DetectTopic returns a short topic label for a span of turns, or ""
	// when no clear topic emerges.
	DetectTopic(ctx context.Context, turns []Turn) (string, error)

	// Summarize compresses a span of turns into free text, folding in the
	// prior summary when present.
	Summarize(ctx context.Context, turns []Turn, priorSummary string) (string, error)
}
