package memory

import (
	"fmt"
	"strings"
)

// renderTopN caps the entities and facts included in the rendered context.
const renderTopN = 10

// RenderContext formats a record into the labeled block injected into model
// prompts. The output is a pure function of the record: same record, same
// string. Returns "" when the record carries no information.
func (m *Manager) RenderContext(rec *MemoryRecord) string {
	if rec == nil || rec.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("=== CONVERSATION MEMORY ===\n")

	if rec.Summary != "" {
		b.WriteString("Earlier in this conversation: ")
		b.WriteString(rec.Summary)
		b.WriteString("\n")
	}
	if rec.CurrentTopic != "" {
		b.WriteString("Current topic: ")
		b.WriteString(rec.CurrentTopic)
		b.WriteString("\n")
	}

	if len(rec.Entities) > 0 {
		b.WriteString("Key entities:\n")
		n := len(rec.Entities)
		if n > renderTopN {
			n = renderTopN
		}
		for _, ent := range rec.Entities[:n] {
			if ent.Context != "" {
				fmt.Fprintf(&b, "- %s: %s (%s, mentioned %dx)\n", ent.Type, ent.Value, ent.Context, ent.MentionCount)
			} else {
				fmt.Fprintf(&b, "- %s: %s (mentioned %dx)\n", ent.Type, ent.Value, ent.MentionCount)
			}
		}
	}

	if len(rec.Facts) > 0 {
		b.WriteString("Known facts:\n")
		n := len(rec.Facts)
		if n > renderTopN {
			n = renderTopN
		}
		for _, fact := range rec.Facts[:n] {
			fmt.Fprintf(&b, "- [%s] %s\n", fact.Category, fact.Text)
		}
	}

	b.WriteString("=== END MEMORY ===")
	return b.String()
}
