package handlers

import (
	"net/http"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/banghwa/staffboard/internal/sessions"
	"github.com/banghwa/staffboard/internal/tokens"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousSession(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/auth/anonymous", "", nil)
	f.mustStatus(t, http.StatusCreated, w)
	body := decode(t, w)
	access, _ := body["accessToken"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, body["refreshToken"])
	assert.Equal(t, false, body["admin"])

	f.mustStatus(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/schedules", access, gin.H{"title": "영어수업", "date": "2024-03-04"}))
	f.mustStatus(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/v1/schedules/generate", access, marchMondays))
}

func TestAdminLogin(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/auth/anonymous", "", nil)
	anon, _ := decode(t, w)["accessToken"].(string)

	f.mustStatus(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/auth/admin", anon, gin.H{"password": "wrong"}))
	f.mustStatus(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/auth/admin", anon, gin.H{}))

	w = f.do(t, http.MethodPost, "/auth/admin", anon, gin.H{"password": adminPassword})
	f.mustStatus(t, http.StatusOK, w)
	body := decode(t, w)
	assert.Equal(t, true, body["admin"])
	admin, _ := body["accessToken"].(string)

	// the admin token keeps the anonymous subject
	anonClaims, err := tokens.ParseAccessToken(f.cfg.JWT.Secret, anon)
	require.NoError(t, err)
	adminClaims, err := tokens.ParseAccessToken(f.cfg.JWT.Secret, admin)
	require.NoError(t, err)
	assert.Equal(t, anonClaims["sub"], adminClaims["sub"])

	f.mustStatus(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/schedules/generate", admin, marchMondays))

	// refresh keeps the capability
	w = f.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": body["refreshToken"]})
	f.mustStatus(t, http.StatusOK, w)
	assert.Equal(t, true, decode(t, w)["admin"])
}

func TestAdminLoginNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.cfg.Admin.PasswordHash = ""
	f.mustStatus(t, http.StatusServiceUnavailable, f.do(t, http.MethodPost, "/auth/admin", "", gin.H{"password": adminPassword}))
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	f := newFixture(t)
	f.mustStatus(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": "nope"}))
	f.mustStatus(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/auth/refresh", "", gin.H{}))
}

func TestLogoutBlacklistsAccessToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	sessions.SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	defer sessions.SetBlacklistClient(nil)

	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/auth/anonymous", "", nil)
	body := decode(t, w)
	access, _ := body["accessToken"].(string)

	w = f.do(t, http.MethodPost, "/auth/logout", access, gin.H{"refreshToken": body["refreshToken"]})
	f.mustStatus(t, http.StatusOK, w)

	w = f.do(t, http.MethodPost, "/api/v1/schedules", access, gin.H{"title": "영어수업", "date": "2024-03-04"})
	f.mustStatus(t, http.StatusUnauthorized, w)
	assert.Equal(t, "token revoked", decode(t, w)["error"])

	f.mustStatus(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": body["refreshToken"]}))
}

func TestParseExpFromJWT(t *testing.T) {
	f := newFixture(t)
	tok, err := tokens.GenerateAccessToken(f.cfg, "anon-1", false, time.Hour)
	require.NoError(t, err)
	exp, err := parseExpFromJWT(tok)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	_, err = parseExpFromJWT("not-a-jwt")
	require.Error(t, err)
}

func TestAuthBindingErrorsUseValidationShape(t *testing.T) {
	f := newFixture(t)
	for path, field := range map[string]string{
		"/auth/admin":   "password",
		"/auth/refresh": "refreshToken",
		"/auth/logout":  "refreshToken",
	} {
		w := f.do(t, http.MethodPost, path, "", gin.H{})
		f.mustStatus(t, http.StatusBadRequest, w)
		body := decode(t, w)
		assert.Equal(t, "validation failed", body["error"], path)
		assert.Equal(t, map[string]interface{}{field: "required"}, body["fields"], path)
	}
}
