package autonomy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioscrm/cognition-go/pkg/autonomy"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCatalogFile(t *testing.T) {
	path := writeCatalog(t, `
tools:
  send_email:
    tier: high
    default_confidence: 0
  create_task:
    tier: low
    default_confidence: 80
  update_deal:
    tier: medium
    default_confidence: 50
`)

	catalog, err := autonomy.LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())

	entry, ok := catalog.Lookup("create_task")
	require.True(t, ok)
	assert.Equal(t, autonomy.TierLow, entry.Tier)
	assert.Equal(t, 80, entry.DefaultConfidence)

	_, ok = catalog.Lookup("unlisted_tool")
	assert.False(t, ok)
}

func TestLoadCatalogFileRejectsUnknownTier(t *testing.T) {
	path := writeCatalog(t, `
tools:
  send_email:
    tier: extreme
    default_confidence: 0
`)

	_, err := autonomy.LoadCatalogFile(path)
	assert.Error(t, err)
}

func TestLoadCatalogFileRejectsConfidenceOutOfRange(t *testing.T) {
	path := writeCatalog(t, `
tools:
  create_task:
    tier: low
    default_confidence: 140
`)

	_, err := autonomy.LoadCatalogFile(path)
	assert.Error(t, err)
}

func TestLoadCatalogFileMissing(t *testing.T) {
	_, err := autonomy.LoadCatalogFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultCatalogCoversTiers(t *testing.T) {
	catalog := autonomy.DefaultCatalog()

	entry, ok := catalog.Lookup("send_email")
	require.True(t, ok)
	assert.Equal(t, autonomy.TierHigh, entry.Tier)

	entry, ok = catalog.Lookup("create_task")
	require.True(t, ok)
	assert.Equal(t, autonomy.TierLow, entry.Tier)

	entry, ok = catalog.Lookup("schedule_meeting")
	require.True(t, ok)
	assert.Equal(t, autonomy.TierMedium, entry.Tier)
}
