package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	c := NewWithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

type sessionDoc struct {
	State string `json:"state"`
	Items int    `json:"items"`
}

func TestSessionRoundTripAndExpiry(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SaveSession(ctx, "abc", sessionDoc{State: "collecting_info", Items: 2}, time.Minute))

	var got sessionDoc
	require.NoError(t, c.LoadSession(ctx, "abc", &got))
	assert.Equal(t, "collecting_info", got.State)
	assert.Equal(t, 2, got.Items)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.LoadSession(ctx, "abc", &got), ErrSessionNotFound)
}

func TestMarkEventSeen(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	first, err := c.MarkEventSeen(ctx, "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := c.MarkEventSeen(ctx, "evt_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, c.ForgetEvent(ctx, "evt_1"))
	retry, err := c.MarkEventSeen(ctx, "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, retry)
}

func TestLock(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "checkout:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireLock(ctx, "checkout:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "checkout:abc"))
	ok, err = c.AcquireLock(ctx, "checkout:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
