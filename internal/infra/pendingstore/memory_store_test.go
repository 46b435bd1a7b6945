package pendingstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryStore_SetGetClear(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(10*time.Minute, clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", "how do I close my account"))
	question, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "how do I close my account", question)

	require.NoError(t, store.Clear(ctx, "s1"))
	_, ok, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(10*time.Minute, clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", "pending question"))

	clock.Advance(10 * time.Minute)
	question, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok, "entry exactly at TTL is still readable")
	require.Equal(t, "pending question", question)

	clock.Advance(time.Nanosecond)
	_, ok, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok, "entry past TTL must expire on read")

	// expiry is sticky
	_, ok, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_LastWriteWins(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(10*time.Minute, clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", "first question"))
	clock.Advance(9 * time.Minute)
	require.NoError(t, store.Set(ctx, "s1", "second question"))

	// TTL is measured from the latest write
	clock.Advance(9 * time.Minute)
	question, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second question", question)
}

func TestMemoryStore_EmptySessionNoOp(t *testing.T) {
	store := NewMemoryStore(0, nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "", "ignored"))
	_, ok, err := store.Get(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, store.Clear(ctx, ""))
}
