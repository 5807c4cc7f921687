package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioscrm/cognition-go/pkg/autonomy"
	"github.com/helioscrm/cognition-go/pkg/core"
	"github.com/helioscrm/cognition-go/pkg/extraction"
	"github.com/helioscrm/cognition-go/pkg/memory"
	"github.com/helioscrm/cognition-go/pkg/store"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *mapStore) Close() error { return nil }

// stubExtractor returns fixed signals for every call.
type stubExtractor struct{}

func (stubExtractor) ExtractEntities(context.Context, string) ([]extraction.Entity, error) {
	return []extraction.Entity{
		{Type: "company", Value: "Acme Corp", Confidence: 0.9},
	}, nil
}

func (stubExtractor) ExtractFacts(context.Context, []extraction.Turn) ([]extraction.Fact, error) {
	return []extraction.Fact{
		{Text: "Wants annual billing", Category: "preference", Confidence: 0.9},
	}, nil
}

func (stubExtractor) DetectTopic(context.Context, []extraction.Turn) (string, error) {
	return "contract renewal", nil
}

func (stubExtractor) Summarize(context.Context, []extraction.Turn, string) (string, error) {
	return "summary", nil
}

func newTestClient(t *testing.T) *core.Client {
	t.Helper()
	client, err := core.NewClient(validConfig(),
		core.WithStore(newMapStore()),
		core.WithExtractor(stubExtractor{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.APIKey = ""
	_, err := core.NewClient(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestClientTurnLoop(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.InitializeConversation(ctx, "ws1", "u1", "c1")
	require.NoError(t, err)

	turn := memory.Turn{Role: extraction.RoleUser, Content: "Acme wants annual billing", Timestamp: time.Now()}
	rec, err := client.IngestTurn(ctx, "c1", turn, []memory.Turn{turn})
	require.NoError(t, err)
	require.Len(t, rec.Entities, 1)
	assert.Equal(t, "contract renewal", rec.CurrentTopic)

	rendered := client.RenderContext(rec)
	assert.Contains(t, rendered, "Acme Corp")
	assert.Equal(t, rendered, client.RenderContext(rec))

	assert.Len(t, client.WindowedHistory(rec, []memory.Turn{turn}), 1)

	require.NoError(t, client.ResetConversation(ctx, "c1"))
}

func TestClientAutonomyFlow(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	decision := client.Decide(ctx, "send_email", "u1", "ws1")
	assert.False(t, decision.AutoExecute)

	decision = client.Decide(ctx, "create_task", "u1", "ws1")
	assert.True(t, decision.AutoExecute)

	approved := true
	for i := 0; i < 5; i++ {
		err := client.RecordOutcome(ctx, autonomy.Outcome{
			WorkspaceID:   "ws1",
			UserID:        "u1",
			ToolName:      "schedule_meeting",
			UserApproved:  &approved,
			ExecutionTime: 100 * time.Millisecond,
			ResultStatus:  "success",
		})
		require.NoError(t, err)
	}

	decision = client.Decide(ctx, "schedule_meeting", "u1", "ws1")
	assert.True(t, decision.AutoExecute)

	summary, err := client.AutonomySummary(ctx, "ws1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalActions)
	assert.Equal(t, 1, summary.AutoEnabledCount)
}

func TestClientComponentsShareOnlyTheStore(t *testing.T) {
	// Memory bookkeeping must not leak into autonomy decisions: ingesting
	// turns leaves decide untouched.
	client := newTestClient(t)
	ctx := context.Background()

	before := client.Decide(ctx, "schedule_meeting", "u1", "ws1")
	turn := memory.Turn{Role: extraction.RoleUser, Content: "hello", Timestamp: time.Now()}
	_, err := client.IngestTurn(ctx, "c1", turn, []memory.Turn{turn})
	require.NoError(t, err)

	after := client.Decide(ctx, "schedule_meeting", "u1", "ws1")
	assert.Equal(t, before, after)
}
