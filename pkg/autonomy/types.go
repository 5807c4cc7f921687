// Package autonomy decides, per requested tool action, whether the assistant
// may execute unattended or must ask the human first, and learns from
// observed approvals and rejections over time.
//
// A static risk catalog supplies the policy floor (low always runs, high
// never runs unattended); the learned per-user-per-tool preference only
// governs the medium tier.
package autonomy

import (
	"time"
)

// RiskTier classifies a tool by reversibility and blast radius.
type RiskTier string

const (
	// TierLow marks read-only or trivially reversible tools.
	TierLow RiskTier = "low"

	// TierMedium marks tools whose automation is earned through history.
	TierMedium RiskTier = "medium"

	// TierHigh marks tools with irreversible external effects.
	TierHigh RiskTier = "high"
)

// RiskEntry is the static classification of one tool.
type RiskEntry struct {
	// Tier is the risk tier.
	Tier RiskTier `yaml:"tier" json:"tier"`

	// DefaultConfidence (0-100) is reported for low-tier decisions.
	DefaultConfidence int `yaml:"default_confidence" json:"default_confidence"`
}

// Preference is the learned record for one (user, tool) pair.
//
// Invariant: AutoExecuteEnabled is true only when ConfidenceScore >= 80 and
// ApprovalCount >= 5. Preferences are never deleted; only their effect
// decays with time since LastUpdated.
type Preference struct {
	ToolName    string `json:"tool_name"`
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`

	// ConfidenceScore is the learned confidence (0-100).
	ConfidenceScore int `json:"confidence_score"`

	ApprovalCount  int `json:"approval_count"`
	RejectionCount int `json:"rejection_count"`

	AutoExecuteEnabled bool `json:"auto_execute_enabled"`

	LastUpdated time.Time `json:"last_updated"`
}

// Decision is the result of a Decide call.
type Decision struct {
	// AutoExecute reports whether the action may run unattended.
	AutoExecute bool `json:"auto_execute"`

	// Confidence (0-100) backs the decision.
	Confidence int `json:"confidence"`

	// Reason is a short human-readable explanation.
	Reason string `json:"reason"`

	// EligibleToEnable signals the outer loop to offer the user an opt-in:
	// confidence has reached the eligibility bar but auto-execution is not
	// yet enabled.
	EligibleToEnable bool `json:"eligible_to_enable,omitempty"`
}

// Outcome describes one resolved tool action.
type Outcome struct {
	WorkspaceID string
	UserID      string
	ToolName    string

	// WasAutomatic reports whether the action ran unattended.
	WasAutomatic bool

	// UserApproved carries explicit user feedback when present; nil means
	// the outcome carries no learning signal.
	UserApproved *bool

	// ExecutionTime is how long the action took.
	ExecutionTime time.Duration

	// ResultStatus is the action result, e.g. "success" or "failed".
	ResultStatus string
}

// ToolConfidence is one entry of a user summary's top tools.
type ToolConfidence struct {
	ToolName           string `json:"tool_name"`
	Confidence         int    `json:"confidence"`
	AutoExecuteEnabled bool   `json:"auto_execute_enabled"`
}

// UserSummary aggregates a user's learned preferences.
type UserSummary struct {
	// TotalActions is the total recorded approval/rejection feedback count.
	TotalActions int `json:"total_actions"`

	// AutoEnabledCount is how many tools are auto-execute enabled.
	AutoEnabledCount int `json:"auto_enabled_count"`

	// AverageConfidence is the mean confidence across learned tools.
	AverageConfidence float64 `json:"average_confidence"`

	// TopAutoTools lists the auto-enabled tools, highest confidence first,
	// capped to five.
	TopAutoTools []ToolConfidence `json:"top_auto_tools"`
}
