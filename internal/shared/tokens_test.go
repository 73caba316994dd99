package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager(t *testing.T) (*TokenManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTokenManager(client, "test-token", time.Hour), mr
}

func TestTokenManagerIssueAndResolve(t *testing.T) {
	tm, _ := newTestTokenManager(t)
	ctx := context.Background()

	id := &Identity{UserID: "user-1", Username: "guru_a", Role: RoleGuru, ClassManaged: "10-A"}
	token, err := tm.Issue(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := tm.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestTokenManagerRejectsUnknownToken(t *testing.T) {
	tm, _ := newTestTokenManager(t)

	_, err := tm.Resolve(context.Background(), "bogus")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = tm.Resolve(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenManagerRevoke(t *testing.T) {
	tm, _ := newTestTokenManager(t)
	ctx := context.Background()

	token, err := tm.Issue(ctx, &Identity{UserID: "user-1", Username: "admin", Role: RoleAdmin})
	require.NoError(t, err)

	require.NoError(t, tm.Revoke(ctx, token))

	_, err = tm.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, tm.Revoke(ctx, token))
}

func TestTokenManagerExpiry(t *testing.T) {
	tm, mr := newTestTokenManager(t)
	ctx := context.Background()

	token, err := tm.Issue(ctx, &Identity{UserID: "user-2", Username: "bendahara", Role: RoleBendahara})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = tm.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}
