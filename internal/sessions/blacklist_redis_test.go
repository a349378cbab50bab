package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevokedTokenLapsesWithItsExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	defer SetBlacklistClient(nil)

	ctx := context.Background()
	const token = "eyJhbGciOiJIUzI1NiJ9.visitor.sig"
	require.NoError(t, BlacklistAccessToken(ctx, token, 10*time.Minute))

	// the raw token is never written to Redis
	require.Len(t, m.Keys(), 1)
	assert.Equal(t, revokedKey(token), m.Keys()[0])
	assert.NotContains(t, m.Keys()[0], token)
	assert.Equal(t, 10*time.Minute, m.TTL(revokedKey(token)))

	revokedNow, err := IsAccessTokenBlacklisted(ctx, token)
	require.NoError(t, err)
	require.True(t, revokedNow)

	other, err := IsAccessTokenBlacklisted(ctx, token+"x")
	require.NoError(t, err)
	require.False(t, other)

	m.FastForward(11 * time.Minute)
	revokedNow, err = IsAccessTokenBlacklisted(ctx, token)
	require.NoError(t, err)
	require.False(t, revokedNow)

	// a token with no time left is not stored
	require.NoError(t, BlacklistAccessToken(ctx, "expired", 0))
	assert.Empty(t, m.Keys())
}

func TestRevocationWithoutRedis(t *testing.T) {
	SetBlacklistClient(nil)
	ctx := context.Background()
	require.NoError(t, BlacklistAccessToken(ctx, "visitor", time.Minute))
	revokedNow, err := IsAccessTokenBlacklisted(ctx, "visitor")
	require.NoError(t, err)
	require.False(t, revokedNow)
}

func TestRevocationLookupFailsWhenRedisDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1}))
	defer SetBlacklistClient(nil)
	m.Close()

	_, err = IsAccessTokenBlacklisted(context.Background(), "visitor")
	require.Error(t, err)
}
