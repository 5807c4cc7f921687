package autonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the read-only risk classification for actionable tools.
//
// It is injected at construction rather than held in package state, so tests
// and workspaces can carry their own catalogs. Tools may be added or removed
// between releases without migrating stored preferences: a preference whose
// tool left the catalog simply becomes unreachable via Decide.
type Catalog struct {
	entries map[string]RiskEntry
}

// NewCatalog builds a catalog from an explicit tool classification map.
func NewCatalog(entries map[string]RiskEntry) *Catalog {
	copied := make(map[string]RiskEntry, len(entries))
	for name, entry := range entries {
		copied[name] = entry
	}
	return &Catalog{entries: copied}
}

// Lookup returns the classification for a tool.
func (c *Catalog) Lookup(toolName string) (RiskEntry, bool) {
	entry, ok := c.entries[toolName]
	return entry, ok
}

// Len returns the number of classified tools.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// catalogFile is the on-disk YAML shape:
//
//	tools:
//	  send_email:
//	    tier: high
//	    default_confidence: 0
type catalogFile struct {
	Tools map[string]RiskEntry `yaml:"tools"`
}

// LoadCatalogFile loads a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("autonomy: read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("autonomy: parse catalog: %w", err)
	}

	for name, entry := range file.Tools {
		switch entry.Tier {
		case TierLow, TierMedium, TierHigh:
		default:
			return nil, fmt.Errorf("autonomy: catalog tool %q has unknown tier %q", name, entry.Tier)
		}
		if entry.DefaultConfidence < 0 || entry.DefaultConfidence > 100 {
			return nil, fmt.Errorf("autonomy: catalog tool %q has default confidence %d out of range", name, entry.DefaultConfidence)
		}
	}
	return NewCatalog(file.Tools), nil
}

// DefaultCatalog classifies the tools a CRM assistant commonly exposes.
// Deployments normally load their own catalog; this one keeps examples and
// development environments sensible.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[string]RiskEntry{
		"search_contacts":  {Tier: TierLow, DefaultConfidence: 90},
		"view_pipeline":    {Tier: TierLow, DefaultConfidence: 90},
		"create_task":      {Tier: TierLow, DefaultConfidence: 80},
		"create_note":      {Tier: TierLow, DefaultConfidence: 80},
		"update_contact":   {Tier: TierMedium, DefaultConfidence: 50},
		"update_deal":      {Tier: TierMedium, DefaultConfidence: 50},
		"draft_email":      {Tier: TierMedium, DefaultConfidence: 40},
		"schedule_meeting": {Tier: TierMedium, DefaultConfidence: 40},
		"send_email":       {Tier: TierHigh, DefaultConfidence: 0},
		"send_sms":         {Tier: TierHigh, DefaultConfidence: 0},
		"delete_record":    {Tier: TierHigh, DefaultConfidence: 0},
	})
}
