package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helioscrm/cognition-go/pkg/extraction"
	"github.com/helioscrm/cognition-go/pkg/store"
)

// ErrInvalidInput indicates a missing conversation identifier.
var ErrInvalidInput = errors.New("memory: invalid input")

// resetTTL is the near-zero expiry applied on Reset. A short grace period
// rather than a hard delete, so in-flight readers of the old record do not
// observe a mid-turn disappearance.
const resetTTL = time.Second

// factDedupPrefix is the normalized-prefix length used for fact
// deduplication: two facts agreeing on this many leading characters are
// treated as restatements of each other.
const factDedupPrefix = 40

// Manager owns per-conversation memory records.
//
// Memory is an enhancement to the conversation, not its critical path: every
// extraction sub-step is individually failure-isolated, store load failures
// fall back to a fresh record, and store save failures are logged and
// swallowed. No ingest ever fails the enclosing turn because a downstream
// call failed.
type Manager struct {
	store     store.Store
	extractor extraction.Extractor
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// Config contains configuration for the memory manager.
type Config struct {
	// TTL is the sliding record expiry (default DefaultTTL).
	TTL time.Duration

	// Logger receives diagnostics for swallowed failures (default: disabled).
	Logger zerolog.Logger
}

// NewManager creates a memory manager on top of the given store and
// extractor.
func NewManager(st store.Store, extractor extraction.Extractor, cfg *Config) *Manager {
	m := &Manager{
		store:     st,
		extractor: extractor,
		ttl:       DefaultTTL,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	if cfg != nil {
		if cfg.TTL > 0 {
			m.ttl = cfg.TTL
		}
		m.logger = cfg.Logger
	}
	return m
}

// recordKey namespaces memory records in the shared store.
func recordKey(conversationID string) string {
	return "memory:" + conversationID
}

// Initialize loads the existing non-expired record for a conversation or
// creates an empty one. The expiry is refreshed on load, so an active
// conversation never silently expires mid-session.
func (m *Manager) Initialize(ctx context.Context, workspaceID, userID, conversationID string) (*MemoryRecord, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}

	rec := m.load(ctx, conversationID)
	if rec == nil {
		now := m.now()
		rec = &MemoryRecord{
			ConversationID: conversationID,
			WorkspaceID:    workspaceID,
			UserID:         userID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}
	rec.ExpiresAt = m.now().Add(m.ttl)
	m.save(ctx, rec)
	return rec, nil
}

// Ingest folds one new turn into the conversation's memory record and
// persists the result. fullHistory is the complete conversation including
// newTurn; its length becomes the record's TotalTurns.
func (m *Manager) Ingest(ctx context.Context, conversationID string, newTurn Turn, fullHistory []Turn) (*MemoryRecord, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}

	rec := m.load(ctx, conversationID)
	if rec == nil {
		now := m.now()
		rec = &MemoryRecord{
			ConversationID: conversationID,
			CreatedAt:      now,
		}
	}

	rec.TotalTurns = len(fullHistory)

	if newTurn.Role == extraction.RoleUser {
		m.ingestEntities(ctx, rec, newTurn)
	}
	if rec.TotalTurns > 0 && rec.TotalTurns%factInterval == 0 {
		m.ingestFacts(ctx, rec, fullHistory)
	}
	if rec.TotalTurns <= topicAlwaysThrough || rec.TotalTurns%topicInterval == 0 {
		m.ingestTopic(ctx, rec, fullHistory)
	}
	if rec.TotalTurns >= summaryMinTurns && rec.TotalTurns-rec.SummarizedThroughTurn >= liveWindow {
		m.summarize(ctx, rec, fullHistory)
	}

	now := m.now()
	rec.UpdatedAt = now
	rec.ExpiresAt = now.Add(m.ttl)
	m.save(ctx, rec)
	return rec, nil
}

// WindowedHistory returns the turns not yet folded into the summary.
func (m *Manager) WindowedHistory(rec *MemoryRecord, fullHistory []Turn) []Turn {
	if rec == nil {
		return fullHistory
	}
	start := rec.WindowStart
	if start < 0 {
		start = 0
	}
	if start > len(fullHistory) {
		start = len(fullHistory)
	}
	return fullHistory[start:]
}

// Reset forgets a conversation by rewriting its record with a near-zero
// expiry.
func (m *Manager) Reset(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return ErrInvalidInput
	}

	rec := m.load(ctx, conversationID)
	if rec == nil {
		return nil
	}
	rec.ExpiresAt = m.now().Add(resetTTL)
	data, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	if err := m.store.Set(ctx, recordKey(conversationID), data, resetTTL); err != nil {
		m.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("memory reset write failed")
	}
	return nil
}

// ingestEntities extracts entities from a user turn and merges them into the
// record.
func (m *Manager) ingestEntities(ctx context.Context, rec *MemoryRecord, turn Turn) {
	entities, err := m.extractor.ExtractEntities(ctx, turn.Content)
	if err != nil {
		m.logger.Warn().Err(err).Str("conversation_id", rec.ConversationID).Msg("entity extraction skipped")
		return
	}

	now := m.now()
	for _, ent := range entities {
		if ent.Confidence < MinConfidence {
			continue
		}
		m.mergeEntity(rec, ent, now)
	}

	// Recency+frequency ordering, then cap. Explicit sort-and-truncate after
	// every merge keeps the record size predictable regardless of
	// conversation length.
	sort.SliceStable(rec.Entities, func(i, j int) bool {
		if rec.Entities[i].MentionCount != rec.Entities[j].MentionCount {
			return rec.Entities[i].MentionCount > rec.Entities[j].MentionCount
		}
		return rec.Entities[i].LastSeen.After(rec.Entities[j].LastSeen)
	})
	if len(rec.Entities) > MaxEntities {
		rec.Entities = rec.Entities[:MaxEntities]
	}
}

// mergeEntity increments an existing entity's mention history or inserts a
// new one. Identity is (Type, Value), case-insensitive.
func (m *Manager) mergeEntity(rec *MemoryRecord, ent extraction.Entity, now time.Time) {
	for i := range rec.Entities {
		if strings.EqualFold(rec.Entities[i].Type, ent.Type) && strings.EqualFold(rec.Entities[i].Value, ent.Value) {
			rec.Entities[i].MentionCount++
			rec.Entities[i].LastSeen = now
			if ent.Confidence > rec.Entities[i].Confidence {
				rec.Entities[i].Confidence = ent.Confidence
			}
			if ent.Context != "" {
				rec.Entities[i].Context = ent.Context
			}
			return
		}
	}
	rec.Entities = append(rec.Entities, Entity{
		Type:         ent.Type,
		Value:        ent.Value,
		Context:      ent.Context,
		Confidence:   ent.Confidence,
		FirstSeen:    now,
		LastSeen:     now,
		MentionCount: 1,
	})
}

// ingestFacts extracts facts over the trailing window of turns and merges
// them most-recent-first.
func (m *Manager) ingestFacts(ctx context.Context, rec *MemoryRecord, fullHistory []Turn) {
	facts, err := m.extractor.ExtractFacts(ctx, tail(fullHistory, factLookback))
	if err != nil {
		m.logger.Warn().Err(err).Str("conversation_id", rec.ConversationID).Msg("fact extraction skipped")
		return
	}

	now := m.now()
	for _, fact := range facts {
		if fact.Confidence < MinConfidence {
			continue
		}
		if m.isDuplicateFact(rec, fact.Text) {
			continue
		}
		rec.Facts = append([]Fact{{
			Text:       fact.Text,
			Category:   fact.Category,
			Confidence: fact.Confidence,
			SourceTurn: rec.TotalTurns,
			RecordedAt: now,
		}}, rec.Facts...)
	}
	if len(rec.Facts) > MaxFacts {
		rec.Facts = rec.Facts[:MaxFacts]
	}
}

// isDuplicateFact reports whether text restates a recorded fact. Facts are
// compared by normalized textual prefix: one being a prefix of the other, or
// both agreeing on the first factDedupPrefix characters, counts as a
// restatement.
func (m *Manager) isDuplicateFact(rec *MemoryRecord, text string) bool {
	candidate := normalizeFact(text)
	if candidate == "" {
		return true
	}
	for i := range rec.Facts {
		existing := normalizeFact(rec.Facts[i].Text)
		if strings.HasPrefix(existing, candidate) || strings.HasPrefix(candidate, existing) {
			return true
		}
		if len(existing) >= factDedupPrefix && len(candidate) >= factDedupPrefix &&
			existing[:factDedupPrefix] == candidate[:factDedupPrefix] {
			return true
		}
	}
	return false
}

func normalizeFact(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// ingestTopic re-detects the current topic over the trailing turns, pushing
// the superseded value onto the topic ring buffer.
func (m *Manager) ingestTopic(ctx context.Context, rec *MemoryRecord, fullHistory []Turn) {
	topic, err := m.extractor.DetectTopic(ctx, tail(fullHistory, topicLookback))
	if err != nil {
		m.logger.Warn().Err(err).Str("conversation_id", rec.ConversationID).Msg("topic detection skipped")
		return
	}
	if topic == "" || topic == rec.CurrentTopic {
		return
	}
	if rec.CurrentTopic != "" {
		rec.TopicHistory = append(rec.TopicHistory, rec.CurrentTopic)
		if len(rec.TopicHistory) > MaxTopicHistory {
			rec.TopicHistory = rec.TopicHistory[len(rec.TopicHistory)-MaxTopicHistory:]
		}
	}
	rec.CurrentTopic = topic
}

// summarize folds everything older than the live window into the rolling
// summary and advances the window boundary.
func (m *Manager) summarize(ctx context.Context, rec *MemoryRecord, fullHistory []Turn) {
	target := rec.TotalTurns - liveWindow
	if target <= rec.SummarizedThroughTurn {
		return
	}

	from := rec.SummarizedThroughTurn
	if from < 0 {
		from = 0
	}
	to := target
	if to > len(fullHistory) {
		to = len(fullHistory)
	}
	if from >= to {
		return
	}

	summary, err := m.extractor.Summarize(ctx, fullHistory[from:to], rec.Summary)
	if err != nil {
		m.logger.Warn().Err(err).Str("conversation_id", rec.ConversationID).Msg("summarization skipped")
		return
	}
	if summary == "" {
		return
	}
	rec.Summary = summary
	rec.SummarizedThroughTurn = target
	rec.WindowStart = target
}

// load fetches and decodes the record for a conversation. Any failure (store
// unavailable, expired key, corrupt payload) is treated as "no session".
func (m *Manager) load(ctx context.Context, conversationID string) *MemoryRecord {
	data, err := m.store.Get(ctx, recordKey(conversationID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("memory load failed, starting fresh")
		}
		return nil
	}

	var rec MemoryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		m.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("corrupt memory record, starting fresh")
		return nil
	}
	if rec.SummarizedThroughTurn < 0 || rec.SummarizedThroughTurn > rec.TotalTurns {
		m.logger.Warn().Str("conversation_id", conversationID).Msg("memory record violates window invariant, starting fresh")
		return nil
	}
	rec.WindowStart = rec.SummarizedThroughTurn
	return &rec
}

// save persists the record under its sliding TTL. Failures are logged and
// swallowed.
func (m *Manager) save(ctx context.Context, rec *MemoryRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		m.logger.Error().Err(err).Str("conversation_id", rec.ConversationID).Msg("memory record marshal failed")
		return
	}
	if err := m.store.Set(ctx, recordKey(rec.ConversationID), data, m.ttl); err != nil {
		m.logger.Warn().Err(err).Str("conversation_id", rec.ConversationID).Msg("memory save failed")
	}
}

// tail returns the last n turns of history.
func tail(history []Turn, n int) []Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
