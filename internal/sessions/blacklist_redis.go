package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoked access tokens live under "<prefix><sha256(token)>" until the token
// itself would have expired. Only the digest is stored.
const blacklistPrefix = "staffboard:revoked:"

var revoked atomic.Pointer[redis.Client]

// SetBlacklistClient points logout revocation at Redis. With nil, logout only
// drops the refresh session and issued access tokens run out on their own.
func SetBlacklistClient(c *redis.Client) {
	revoked.Store(c)
}

func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistPrefix + hex.EncodeToString(sum[:])
}

// BlacklistAccessToken revokes token for ttl, the time it has left.
func BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	client := revoked.Load()
	if client == nil || ttl <= 0 {
		return nil
	}
	return client.Set(ctx, revokedKey(token), time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

// IsAccessTokenBlacklisted reports whether token was revoked by a logout.
func IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	client := revoked.Load()
	if client == nil {
		return false, nil
	}
	n, err := client.Exists(ctx, revokedKey(token)).Result()
	return n == 1, err
}
