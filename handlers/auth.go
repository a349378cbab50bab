package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/banghwa/staffboard/internal/config"
	"github.com/banghwa/staffboard/internal/password"
	"github.com/banghwa/staffboard/internal/sessions"
	"github.com/banghwa/staffboard/internal/tokens"
	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/banghwa/staffboard/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type adminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler issues dashboard sessions. Every client gets an anonymous
// session; the admin capability is granted by a shared password checked
// against an Argon2id hash. The password gate keeps casual visitors away from
// bulk operations and is not a security boundary.
type AuthHandler struct {
	cfg         *config.Config
	sessionsSvc *sessions.Service
}

func NewAuthHandler(cfg *config.Config, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, sessionsSvc: s}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/anonymous", h.Anonymous)
	a.POST("/admin", h.Admin)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

func (h *AuthHandler) issue(c *gin.Context, sub string, admin bool, status int) {
	sessionTTL, accessTTL := h.cfg.JWT.RefreshTokenTTL, h.cfg.JWT.AccessTokenTTL
	if admin {
		sessionTTL = h.cfg.Admin.TokenTTL
		if accessTTL > sessionTTL {
			accessTTL = sessionTTL
		}
	}
	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), sub, admin, sessionTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, sub, admin, accessTTL)
	if err != nil {
		logger.Errorf("failed to create access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(status, gin.H{
		"accessToken":  access,
		"refreshToken": rft,
		"expiresIn":    int(accessTTL.Seconds()),
		"admin":        admin,
	})
}

// Anonymous establishes a session for a dashboard client.
func (h *AuthHandler) Anonymous(c *gin.Context) {
	h.issue(c, sessions.NewSubject(), false, http.StatusCreated)
}

// Admin grants the admin capability. A valid bearer token keeps its subject.
func (h *AuthHandler) Admin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), "")
		return
	}
	if h.cfg.Admin.PasswordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login not configured"})
		return
	}
	ok, err := password.Verify(req.Password, h.cfg.Admin.PasswordHash)
	if err != nil {
		logger.Errorf("admin password check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "admin login not available"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
		return
	}
	sub := sessions.NewSubject()
	if raw, found := middleware.BearerToken(c); found {
		if claims, err := tokens.ParseAccessToken(h.cfg.JWT.Secret, raw); err == nil {
			if s, _ := claims.GetSubject(); s != "" {
				sub = s
			}
		}
	}
	logger.Infow("auth: admin capability granted", "sub", sub)
	h.issue(c, sub, true, http.StatusOK)
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), "")
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		logger.Errorf("refresh validation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	ttl := h.cfg.JWT.AccessTokenTTL
	if left := time.Until(sess.ExpiresAt); left < ttl {
		ttl = left
	}
	access, err := tokens.GenerateAccessToken(h.cfg, sess.Sub, sess.Admin, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(ttl.Seconds()), "admin": sess.Admin})
}

// Logout invalidates the refresh token and blacklists the presented access
// token for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), "")
		return
	}
	if at, ok := middleware.BearerToken(c); ok {
		if exp, err := parseExpFromJWT(at); err == nil {
			if ttl := time.Until(exp); ttl > 0 {
				if err := sessions.BlacklistAccessToken(c.Request.Context(), at, ttl); err != nil {
					logger.Errorf("failed to blacklist access token: %v", err)
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
					return
				}
			}
		}
	}
	if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		logger.Errorf("failed to remove session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// parseExpFromJWT reads the exp claim without verifying the signature. It is
// only used to bound how long a token stays blacklisted.
func parseExpFromJWT(tok string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	return exp.Time, nil
}
