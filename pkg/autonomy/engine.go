package autonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/helioscrm/cognition-go/pkg/store"
)

// ErrInvalidInput indicates missing identifiers on an engine call.
var ErrInvalidInput = errors.New("autonomy: invalid input")

// Engine converts the static risk catalog plus a learned track record into
// per-action "run unattended or ask" decisions, and updates the track record
// from observed outcomes.
//
// Like the memory manager, the engine is off the conversation's critical
// path: store failures degrade to "no learning history" on reads and are
// logged and swallowed on writes.
type Engine struct {
	store   store.Store
	catalog *Catalog
	logger  zerolog.Logger
	now     func() time.Time

	audit *auditLog
}

// Config contains configuration for the autonomy engine.
type Config struct {
	// AuditRetention bounds how long audit entries are kept
	// (default defaultAuditRetention).
	AuditRetention time.Duration

	// Logger receives diagnostics for swallowed failures (default: disabled).
	Logger zerolog.Logger
}

// NewEngine creates an autonomy engine over the given store and catalog.
func NewEngine(st store.Store, catalog *Catalog, cfg *Config) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("autonomy: catalog is required")
	}

	e := &Engine{
		store:   st,
		catalog: catalog,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	retention := defaultAuditRetention
	if cfg != nil {
		if cfg.AuditRetention > 0 {
			retention = cfg.AuditRetention
		}
		e.logger = cfg.Logger
	}

	audit, err := newAuditLog(st, retention, e.logger)
	if err != nil {
		return nil, err
	}
	e.audit = audit
	return e, nil
}

func prefKey(workspaceID, userID, toolName string) string {
	return fmt.Sprintf("autonomy:pref:%s:%s:%s", workspaceID, userID, toolName)
}

func indexKey(workspaceID, userID string) string {
	return fmt.Sprintf("autonomy:tools:%s:%s", workspaceID, userID)
}

// Decide determines whether a tool action may run unattended for a user.
//
// Decide is a pure function of (tool, stored preference, catalog): calling
// it twice without an intervening RecordOutcome yields identical results.
func (e *Engine) Decide(ctx context.Context, toolName, userID, workspaceID string) Decision {
	entry, ok := e.catalog.Lookup(toolName)
	if !ok {
		return Decision{AutoExecute: false, Confidence: 0, Reason: "unknown tool"}
	}

	switch entry.Tier {
	case TierLow:
		// Low-risk tools are read-only or trivially reversible by policy;
		// no history is consulted.
		return Decision{AutoExecute: true, Confidence: entry.DefaultConfidence, Reason: "low risk"}
	case TierHigh:
		// Irreversible external effects always require human confirmation,
		// regardless of history.
		return Decision{AutoExecute: false, Confidence: 0, Reason: "high risk requires confirmation"}
	}

	pref := e.loadPreference(ctx, workspaceID, userID, toolName)
	if pref == nil {
		return Decision{AutoExecute: false, Confidence: 0, Reason: "no learning history"}
	}
	if pref.AutoExecuteEnabled && pref.ConfidenceScore >= enableThreshold {
		return Decision{AutoExecute: true, Confidence: pref.ConfidenceScore, Reason: "learned from approval history"}
	}
	if pref.ConfidenceScore >= eligibleThreshold {
		return Decision{
			AutoExecute:      false,
			Confidence:       pref.ConfidenceScore,
			Reason:           "eligible to enable auto-execution",
			EligibleToEnable: true,
		}
	}
	return Decision{AutoExecute: false, Confidence: pref.ConfidenceScore, Reason: "insufficient confidence"}
}

// RecordOutcome records one resolved action. An immutable audit entry is
// always appended; explicit user feedback (Outcome.UserApproved non-nil)
// additionally feeds the learning update.
func (e *Engine) RecordOutcome(ctx context.Context, outcome Outcome) error {
	if outcome.ToolName == "" || outcome.UserID == "" {
		return ErrInvalidInput
	}

	e.audit.append(ctx, outcome, e.now())

	if outcome.UserApproved == nil {
		return nil
	}
	e.learn(ctx, outcome, *outcome.UserApproved)
	return nil
}

// learn applies one approval/rejection to the (user, tool) preference.
func (e *Engine) learn(ctx context.Context, outcome Outcome, approved bool) {
	now := e.now()
	pref := e.loadPreference(ctx, outcome.WorkspaceID, outcome.UserID, outcome.ToolName)

	if pref == nil {
		pref = &Preference{
			ToolName:    outcome.ToolName,
			UserID:      outcome.UserID,
			WorkspaceID: outcome.WorkspaceID,
		}
		if approved {
			pref.ApprovalCount = 1
			pref.ConfidenceScore = seedApprovalConfidence
		} else {
			pref.RejectionCount = 1
			pref.ConfidenceScore = 0
		}
	} else {
		lastUpdated := pref.LastUpdated
		if approved {
			pref.ApprovalCount++
		} else {
			pref.RejectionCount++
		}
		pref.ConfidenceScore = nextConfidence(pref.ApprovalCount, pref.RejectionCount, lastUpdated, now, approved)
	}

	pref.AutoExecuteEnabled = qualifiesForAutoExecute(pref.ConfidenceScore, pref.ApprovalCount)
	pref.LastUpdated = now

	e.savePreference(ctx, pref)
	e.indexTool(ctx, outcome.WorkspaceID, outcome.UserID, outcome.ToolName)
}

// Summary aggregates a user's learned preferences.
func (e *Engine) Summary(ctx context.Context, workspaceID, userID string) (*UserSummary, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	summary := &UserSummary{}
	tools := e.loadToolIndex(ctx, workspaceID, userID)
	if len(tools) == 0 {
		return summary, nil
	}

	var confidenceSum int
	var learned int
	var auto []ToolConfidence
	for _, tool := range tools {
		pref := e.loadPreference(ctx, workspaceID, userID, tool)
		if pref == nil {
			continue
		}
		learned++
		summary.TotalActions += pref.ApprovalCount + pref.RejectionCount
		confidenceSum += pref.ConfidenceScore
		if pref.AutoExecuteEnabled {
			summary.AutoEnabledCount++
			auto = append(auto, ToolConfidence{
				ToolName:           pref.ToolName,
				Confidence:         pref.ConfidenceScore,
				AutoExecuteEnabled: true,
			})
		}
	}
	if learned > 0 {
		summary.AverageConfidence = float64(confidenceSum) / float64(learned)
	}

	sort.SliceStable(auto, func(i, j int) bool {
		return auto[i].Confidence > auto[j].Confidence
	})
	if len(auto) > 5 {
		auto = auto[:5]
	}
	summary.TopAutoTools = auto
	return summary, nil
}

// loadPreference fetches and validates a stored preference. Any failure
// (missing key, store error, corrupt or invariant-violating row) is treated
// as "no learning history"; a corrupt row is reported so the next outcome
// recreates it fresh.
func (e *Engine) loadPreference(ctx context.Context, workspaceID, userID, toolName string) *Preference {
	data, err := e.store.Get(ctx, prefKey(workspaceID, userID, toolName))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Warn().Err(err).Str("tool", toolName).Msg("preference load failed")
		}
		return nil
	}

	var pref Preference
	if err := json.Unmarshal(data, &pref); err != nil {
		e.logger.Warn().Err(err).Str("tool", toolName).Msg("corrupt preference, resetting to fresh state")
		return nil
	}
	if pref.ApprovalCount < 0 || pref.RejectionCount < 0 || pref.ConfidenceScore < 0 || pref.ConfidenceScore > 100 {
		e.logger.Warn().Str("tool", toolName).Msg("preference violates invariants, resetting to fresh state")
		return nil
	}
	return &pref
}

// savePreference persists a preference without expiry: preferences
// accumulate for the lifetime of the account. Failures are logged and
// swallowed; a lost update drops one outcome's signal, not data integrity.
func (e *Engine) savePreference(ctx context.Context, pref *Preference) {
	data, err := json.Marshal(pref)
	if err != nil {
		e.logger.Error().Err(err).Str("tool", pref.ToolName).Msg("preference marshal failed")
		return
	}
	if err := e.store.Set(ctx, prefKey(pref.WorkspaceID, pref.UserID, pref.ToolName), data, 0); err != nil {
		e.logger.Warn().Err(err).Str("tool", pref.ToolName).Msg("preference save failed")
	}
}

// loadToolIndex returns the tools with learned preferences for a user. The
// index exists because the key-value store contract has no scan operation.
func (e *Engine) loadToolIndex(ctx context.Context, workspaceID, userID string) []string {
	data, err := e.store.Get(ctx, indexKey(workspaceID, userID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Warn().Err(err).Msg("tool index load failed")
		}
		return nil
	}
	var tools []string
	if err := json.Unmarshal(data, &tools); err != nil {
		e.logger.Warn().Err(err).Msg("corrupt tool index")
		return nil
	}
	return tools
}

// indexTool adds a tool to the user's index if absent.
func (e *Engine) indexTool(ctx context.Context, workspaceID, userID, toolName string) {
	tools := e.loadToolIndex(ctx, workspaceID, userID)
	for _, t := range tools {
		if t == toolName {
			return
		}
	}
	tools = append(tools, toolName)
	sort.Strings(tools)

	data, err := json.Marshal(tools)
	if err != nil {
		return
	}
	if err := e.store.Set(ctx, indexKey(workspaceID, userID), data, 0); err != nil {
		e.logger.Warn().Err(err).Msg("tool index save failed")
	}
}
