package middleware

import (
	"net/http"
	"sync"

	"github.com/banghwa/staffboard/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterKey prefers the session subject and falls back to the client IP.
// The limiter runs ahead of AuthMiddleware, so the subject comes from the
// bearer token, checked with ver; a missing or invalid token counts against
// the IP. Dashboards behind one school NAT share an IP.
func limiterKey(c *gin.Context, ver Verifier) string {
	if sub := bearerSubject(c, ver); sub != "" {
		return "sub:" + sub
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func bearerSubject(c *gin.Context, ver Verifier) string {
	if ver == nil {
		return ""
	}
	raw, ok := BearerToken(c)
	if !ok {
		return ""
	}
	tok, err := ver.Verify(c.Request.Context(), raw)
	if err != nil {
		return ""
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// RateLimitMiddleware enforces an in-process token bucket per key.
// rps = allowed events per second, burst = maximum tokens in bucket. ver
// identifies sessions; nil keys every request by IP.
func RateLimitMiddleware(rps float64, burst int, ver Verifier) gin.HandlerFunc {
	var buckets sync.Map // key -> *rate.Limiter
	return func(c *gin.Context) {
		v, _ := buckets.LoadOrStore(limiterKey(c, ver), rate.NewLimiter(rate.Limit(rps), burst))
		if !v.(*rate.Limiter).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
