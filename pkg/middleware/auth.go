package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/banghwa/staffboard/internal/sessions"
	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Chain tries each verifier in order and returns the first success, so
// locally issued session tokens and OIDC tokens are both accepted.
type Chain []Verifier

func (ch Chain) Verify(ctx context.Context, raw string) (Token, error) {
	var errs []error
	for _, v := range ch {
		if v == nil {
			continue
		}
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no verifier configured")
	}
	return nil, errors.Join(errs...)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	var token string
	if n, _ := fmt.Sscanf(c.GetHeader("Authorization"), "Bearer %s", &token); n != 1 {
		return "", false
	}
	return token, true
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		// tokens revoked by logout stay blacklisted until they expire
		revoked, err := sessions.IsAccessTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			logger.Errorw("auth: blacklist lookup failed", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token check failed"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

// IsAdmin reports whether verified claims carry the admin capability.
func IsAdmin(claims map[string]interface{}) bool {
	v, _ := claims["admin"].(bool)
	return v
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get("claims")
		claims, _ := v.(map[string]interface{})
		if !IsAdmin(claims) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
