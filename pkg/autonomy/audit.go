package autonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/helioscrm/cognition-go/pkg/store"
)

// defaultAuditRetention keeps audit entries for 90 days.
const defaultAuditRetention = 90 * 24 * time.Hour

// auditEntry is one immutable record of a resolved tool action. Entries are
// write-only: nothing in the engine reads them back.
type auditEntry struct {
	ID              int64  `json:"id"`
	WorkspaceID     string `json:"workspace_id"`
	UserID          string `json:"user_id"`
	ToolName        string `json:"tool_name"`
	WasAutomatic    bool   `json:"was_automatic"`
	UserApproved    *bool  `json:"user_approved,omitempty"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	ResultStatus    string `json:"result_status"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// auditLog appends outcome entries to the store under snowflake-unique keys.
type auditLog struct {
	store     store.Store
	node      *snowflake.Node
	retention time.Duration
	logger    zerolog.Logger
}

func newAuditLog(st store.Store, retention time.Duration, logger zerolog.Logger) (*auditLog, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("autonomy: snowflake node: %w", err)
	}
	return &auditLog{
		store:     st,
		node:      node,
		retention: retention,
		logger:    logger,
	}, nil
}

// append writes one audit entry. Failures are logged and swallowed; the
// audit trail is best-effort bookkeeping, never the turn's critical path.
func (a *auditLog) append(ctx context.Context, outcome Outcome, now time.Time) {
	entry := auditEntry{
		ID:              a.node.Generate().Int64(),
		WorkspaceID:     outcome.WorkspaceID,
		UserID:          outcome.UserID,
		ToolName:        outcome.ToolName,
		WasAutomatic:    outcome.WasAutomatic,
		UserApproved:    outcome.UserApproved,
		ExecutionTimeMs: outcome.ExecutionTime.Milliseconds(),
		ResultStatus:    outcome.ResultStatus,
		RecordedAt:      now,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		a.logger.Error().Err(err).Str("tool", outcome.ToolName).Msg("audit entry marshal failed")
		return
	}

	key := fmt.Sprintf("autonomy:audit:%s:%s:%d", outcome.WorkspaceID, outcome.UserID, entry.ID)
	if err := a.store.Set(ctx, key, data, a.retention); err != nil {
		a.logger.Warn().Err(err).Str("tool", outcome.ToolName).Msg("audit entry write failed")
	}
}
