package middleware

import (
	"net/http"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/banghwa/staffboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimitSharedAcrossInstances(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	// two servers behind the same Redis share one window; a long window keeps
	// the test clear of bucket boundaries
	first := limited(RedisRateLimitMiddleware(client, 0, 2, time.Hour, sessionVerifier{}))
	second := limited(RedisRateLimitMiddleware(client, 0, 2, time.Hour, sessionVerifier{}))
	rejected := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("redis"))

	require.Equal(t, http.StatusOK, hit(first, "visitor", "10.0.0.1:1234"))
	require.Equal(t, http.StatusOK, hit(second, "visitor", "10.0.0.2:1234"))
	require.Equal(t, http.StatusTooManyRequests, hit(first, "visitor", "10.0.0.1:1234"))
	require.Equal(t, rejected+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("redis")))

	// another session behind the same address is unaffected
	require.Equal(t, http.StatusOK, hit(first, "admin", "10.0.0.1:1234"))

	// expired window keys reset the count
	m.FastForward(2 * time.Hour)
	require.Equal(t, http.StatusOK, hit(first, "visitor", "10.0.0.1:1234"))
}

func TestRedisRateLimitFailsClosedOnRedisError(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()
	m.Close()

	r := limited(RedisRateLimitMiddleware(client, 1, 1, time.Second, nil))
	require.Equal(t, http.StatusInternalServerError, hit(r, "", ""))
}

func TestRedisRateLimitFallsBackWithoutClient(t *testing.T) {
	r := limited(RedisRateLimitMiddleware(nil, 0.5, 1, time.Second, nil))
	require.Equal(t, http.StatusOK, hit(r, "", ""))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "", ""))
}
