package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(rdb, time.Hour), mr
}

func TestSaveAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := Session{
		Token: "tok-1",
		User:  User{ID: "u-1", Username: "alice", Email: "alice@example.com", Role: "admin"},
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.User.Username)
	assert.Equal(t, "admin", got.User.Role)
	assert.True(t, store.IsAuthenticated(ctx, "tok-1"))
}

func TestGetUnknownToken(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.IsAuthenticated(context.Background(), "missing"))
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Session{Token: "tok-1", User: User{ID: "u-1", Username: "alice"}}))
	require.NoError(t, store.Clear(ctx, "tok-1"))

	assert.False(t, store.IsAuthenticated(ctx, "tok-1"))
	assert.NoError(t, store.Clear(ctx, "tok-1"), "clearing twice is not an error")
}

func TestExpiredTokenIsNotAuthenticated(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Session{Token: "tok-1", User: User{ID: "u-1"}}))
	mr.FastForward(2 * time.Hour)

	assert.False(t, store.IsAuthenticated(ctx, "tok-1"))
}

func TestClearAllForUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Session{Token: "tok-1", User: User{ID: "u-1"}}))
	require.NoError(t, store.Save(ctx, Session{Token: "tok-2", User: User{ID: "u-1"}}))
	require.NoError(t, store.Save(ctx, Session{Token: "tok-3", User: User{ID: "u-2"}}))

	require.NoError(t, store.ClearAllForUser(ctx, "u-1"))

	assert.False(t, store.IsAuthenticated(ctx, "tok-1"))
	assert.False(t, store.IsAuthenticated(ctx, "tok-2"))
	assert.True(t, store.IsAuthenticated(ctx, "tok-3"), "other users keep their sessions")
}

func TestUnavailableStorageMeansUnauthenticated(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Session{Token: "tok-1", User: User{ID: "u-1"}}))
	mr.Close()

	assert.False(t, store.IsAuthenticated(ctx, "tok-1"))
}
