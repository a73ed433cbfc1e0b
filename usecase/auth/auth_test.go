package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository/memory"
	redisrepo "github.com/fastygo/tasktracker/repository/redis"
)

func newUseCase(t *testing.T) (*UseCase, *miniredis.Miniredis) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rdb := redislib.NewClient(&redislib.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := memory.NewStore().UserRepository()
	_, err = users.Save(context.Background(), &domain.User{Username: "alice", Role: domain.RoleAdmin})
	require.NoError(t, err)

	cfg := Config{Secret: "test-secret", Issuer: "tasktracker-test", TTL: 10 * time.Minute}
	return New(users, redisrepo.NewSessionRepository(rdb, cfg.TTL), cfg, nil), s
}

func TestLogin_IssuesTokenForKnownUser(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	token, err := uc.Login(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)

	claims, err := uc.ParseToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, token.Session.ID, claims.SessionID)
	assert.Equal(t, token.Session.UserID, claims.UserID)
	assert.Equal(t, "tasktracker-test", claims.Issuer)

	session, err := uc.Authenticate(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, domain.RoleAdmin, session.Metadata["role"])
}

func TestLogin_UnknownUser(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.Login(context.Background(), "mallory")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_RevokedSession(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	token, err := uc.Login(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, uc.RevokeSession(ctx, token.Session.ID))

	_, err = uc.Authenticate(ctx, token.AccessToken)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestAuthenticate_RejectsForeignSignature(t *testing.T) {
	uc, _ := newUseCase(t)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    "u-1",
		SessionID: "s-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tasktracker-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = uc.Authenticate(context.Background(), forged)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestRefresh_ExtendsSession(t *testing.T) {
	uc, s := newUseCase(t)
	ctx := context.Background()

	token, err := uc.Login(ctx, "alice")
	require.NoError(t, err)

	s.FastForward(5 * time.Minute)
	refreshed, err := uc.Refresh(ctx, token.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, token.Session.ID, refreshed.Session.ID)
	assert.False(t, refreshed.ExpiresAt.Before(token.ExpiresAt))

	_, err = uc.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
