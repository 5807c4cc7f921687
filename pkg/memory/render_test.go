package memory_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioscrm/cognition-go/pkg/extraction"
	"github.com/helioscrm/cognition-go/pkg/memory"
)

func TestRenderContextEmptyRecord(t *testing.T) {
	m := memory.NewManager(newMapStore(), &scriptedExtractor{}, nil)

	assert.Equal(t, "", m.RenderContext(nil))
	assert.Equal(t, "", m.RenderContext(&memory.MemoryRecord{ConversationID: "c1", TotalTurns: 12}))
}

func TestRenderContextIsDeterministic(t *testing.T) {
	m := memory.NewManager(newMapStore(), &scriptedExtractor{}, nil)

	rec := &memory.MemoryRecord{
		Summary:      "Discussed the Acme renewal.",
		CurrentTopic: "contract renewal",
		Entities: []memory.Entity{
			{Type: "person", Value: "Dana Reyes", Context: "renewal call", MentionCount: 3},
			{Type: "company", Value: "Acme Corp", MentionCount: 2},
		},
		Facts: []memory.Fact{
			{Text: "Decided on annual billing", Category: "decision"},
		},
	}

	first := m.RenderContext(rec)
	second := m.RenderContext(rec)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "Discussed the Acme renewal.")
	assert.Contains(t, first, "Current topic: contract renewal")
	assert.Contains(t, first, "person: Dana Reyes (renewal call, mentioned 3x)")
	assert.Contains(t, first, "company: Acme Corp (mentioned 2x)")
	assert.Contains(t, first, "[decision] Decided on annual billing")
}

func TestRenderContextCapsEntitiesAndFacts(t *testing.T) {
	ex := &scriptedExtractor{}
	m := memory.NewManager(newMapStore(), ex, nil)

	var entities []extraction.Entity
	for i := 0; i < 15; i++ {
		entities = append(entities, extraction.Entity{
			Type:       "company",
			Value:      "Company " + string(rune('A'+i)),
			Confidence: 0.9,
		})
	}
	ex.entities = entities

	hist := []memory.Turn{{Role: extraction.RoleUser, Content: "hello", Timestamp: time.Now()}}
	rec, err := m.Ingest(context.Background(), "c1", hist[0], hist)
	require.NoError(t, err)
	require.Len(t, rec.Entities, 15)

	rendered := m.RenderContext(rec)
	assert.Equal(t, 10, strings.Count(rendered, "- company:"))
}
