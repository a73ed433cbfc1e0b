package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/domain"
)

func newTestRepo(t *testing.T) (*miniredis.Miniredis, *sessionRepository) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rdb := redislib.NewClient(&redislib.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := NewSessionRepository(rdb, time.Minute).(*sessionRepository)
	return s, repo
}

func TestSessionRepository_SaveAndGet(t *testing.T) {
	s, repo := newTestRepo(t)
	ctx := context.Background()

	session := &domain.Session{ID: "abc", UserID: "u-1", Username: "alice"}
	require.NoError(t, repo.Save(ctx, session))

	assert.False(t, session.CreatedAt.IsZero())
	assert.True(t, session.ExpiresAt.After(session.CreatedAt))
	assert.True(t, s.Exists(defaultPrefix+"abc"))

	loaded, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Username)
	assert.Equal(t, "u-1", loaded.UserID)
}

func TestSessionRepository_Expiry(t *testing.T) {
	s, repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "short", UserID: "u-1"}))
	s.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_ExtendAndDelete(t *testing.T) {
	s, repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "ext", UserID: "u-1"}))
	require.NoError(t, repo.Extend(ctx, "ext", 600))
	assert.Equal(t, 10*time.Minute, s.TTL(defaultPrefix+"ext"))

	require.NoError(t, repo.Delete(ctx, "ext"))
	_, err := repo.Get(ctx, "ext")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, repo.Extend(ctx, "missing", 60), domain.ErrSessionNotFound)
}

func TestSessionRepository_SaveRejectsEmptyID(t *testing.T) {
	_, repo := newTestRepo(t)
	assert.ErrorIs(t, repo.Save(context.Background(), &domain.Session{}), domain.ErrInvalidPayload)
}
