package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioscrm/cognition-go/pkg/store"
	"github.com/helioscrm/cognition-go/pkg/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(&sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "state.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", []byte("v1"), time.Hour))
	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", []byte("old"), time.Hour))
	require.NoError(t, s.Set(ctx, "k1", []byte("new"), time.Hour))

	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestExpiredKeyReadsAsMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Unix-second expiry granularity: a 1ns TTL lands in the current
	// second and reads as already expired.
	require.NoError(t, s.Set(ctx, "k1", []byte("v1"), time.Nanosecond))
	time.Sleep(1100 * time.Millisecond)

	_, err := s.Get(ctx, "k1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", []byte("v1"), 0))
	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestStateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	ctx := context.Background()

	s, err := sqlite.New(&sqlite.Config{DBPath: path})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k1", []byte("v1"), time.Hour))
	require.NoError(t, s.Close())

	s, err = sqlite.New(&sqlite.Config{DBPath: path})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}
