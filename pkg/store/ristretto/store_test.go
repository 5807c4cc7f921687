package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioscrm/cognition-go/pkg/store"
	"github.com/helioscrm/cognition-go/pkg/store/ristretto"
)

func newTestStore(t *testing.T) *ristretto.Store {
	t.Helper()
	s, err := ristretto.New(nil)
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

func TestTTLExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", []byte("v1"), 20*time.Millisecond))
	time.Sleep(100 * time.Millisecond)

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
