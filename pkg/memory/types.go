// Package memory maintains a bounded, compressed representation of what
// matters so far in a conversation.
//
// One MemoryRecord exists per conversation. Every ingested turn may update
// its extracted entities, facts, current topic, and rolling summary; the
// record stays small enough to inject into every model prompt regardless of
// conversation length.
package memory

import (
	"time"

	"github.com/helioscrm/cognition-go/pkg/extraction"
)

// Collection caps and merge thresholds. These are deliberately not
// configurable: a record must stay prompt-sized no matter who constructs the
// manager.
const (
	// MaxEntities caps the tracked entities per record.
	MaxEntities = 50

	// MaxFacts caps the tracked facts per record.
	MaxFacts = 30

	// MaxTopicHistory caps the superseded-topic ring buffer.
	MaxTopicHistory = 10

	// MinConfidence is the hard cutoff below which extracted entities and
	// facts are discarded at merge time.
	MinConfidence = 0.7
)

// Ingestion cadences and windowing.
const (
	// factInterval triggers fact extraction every Nth turn.
	factInterval = 4

	// factLookback is the number of trailing turns fed to fact extraction.
	factLookback = 8

	// topicInterval triggers topic detection every Nth turn.
	topicInterval = 3

	// topicAlwaysThrough forces topic detection on the opening turns so a
	// young conversation gets a topic before the interval first fires.
	topicAlwaysThrough = 3

	// topicLookback is the number of trailing turns fed to topic detection.
	topicLookback = 5

	// summaryMinTurns is the minimum conversation length before
	// summarization can trigger.
	summaryMinTurns = 20

	// liveWindow is the number of most recent turns kept verbatim; turns
	// older than this are folded into the summary once the backlog reaches
	// liveWindow beyond the summarized boundary.
	liveWindow = 50
)

// DefaultTTL is the sliding expiry applied to a record after every mutation.
// An abandoned conversation disappears from the store this long after its
// last turn.
const DefaultTTL = 4 * time.Hour

// Entity is a tracked named thing with its mention history.
type Entity struct {
	// Type is the entity category, e.g. "person".
	Type string `json:"type"`

	// Value is the entity text.
	Value string `json:"value"`

	// Context is a short phrase describing how the entity was mentioned.
	Context string `json:"context"`

	// Confidence is the best extraction confidence seen so far (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// FirstSeen is when the entity was first extracted.
	FirstSeen time.Time `json:"first_seen"`

	// LastSeen is when the entity was last extracted.
	LastSeen time.Time `json:"last_seen"`

	// MentionCount is how many ingested turns mentioned the entity.
	MentionCount int `json:"mention_count"`
}

// Fact is a recorded statement distilled from the conversation.
type Fact struct {
	// Text is the fact statement.
	Text string `json:"text"`

	// Category is the fact category (decision, action, preference, ...).
	Category string `json:"category"`

	// Confidence is the extraction confidence (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// SourceTurn is the turn index the fact was extracted at.
	SourceTurn int `json:"source_turn"`

	// RecordedAt is when the fact was recorded.
	RecordedAt time.Time `json:"recorded_at"`
}

// MemoryRecord is the per-conversation memory state.
//
// Invariants held by the Manager:
//   - len(Entities) <= MaxEntities, len(Facts) <= MaxFacts
//   - WindowStart == SummarizedThroughTurn <= TotalTurns
//   - ExpiresAt is always "now + TTL" after any mutation
type MemoryRecord struct {
	ConversationID string `json:"conversation_id"`
	WorkspaceID    string `json:"workspace_id"`
	UserID         string `json:"user_id"`

	// Entities is ordered by (MentionCount desc, LastSeen desc) and unique
	// by (Type, Value) case-insensitively.
	Entities []Entity `json:"entities"`

	// Facts is ordered most-recent-first.
	Facts []Fact `json:"facts"`

	// CurrentTopic is a short free-text label, or "" when unknown.
	CurrentTopic string `json:"current_topic"`

	// TopicHistory holds the last MaxTopicHistory superseded topics,
	// oldest first.
	TopicHistory []string `json:"topic_history"`

	// Summary is the compression of turns older than the live window, or ""
	// until the window first overflows.
	Summary string `json:"summary"`

	// SummarizedThroughTurn is the index of the last turn folded into
	// Summary.
	SummarizedThroughTurn int `json:"summarized_through_turn"`

	// TotalTurns is the conversation length as of the last ingest.
	TotalTurns int `json:"total_turns"`

	// WindowStart is the index of the first turn not folded into Summary.
	// Always equal to SummarizedThroughTurn.
	WindowStart int `json:"window_start"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsEmpty reports whether the record carries no renderable information.
func (r *MemoryRecord) IsEmpty() bool {
	return r.Summary == "" && r.CurrentTopic == "" && len(r.Entities) == 0 && len(r.Facts) == 0
}

// Turn is a single conversation message, as supplied by the outer loop.
type Turn = extraction.Turn
