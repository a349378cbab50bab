package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/banghwa/staffboard/internal/committee"
	"github.com/banghwa/staffboard/internal/config"
	"github.com/banghwa/staffboard/internal/export"
	"github.com/banghwa/staffboard/internal/files"
	"github.com/banghwa/staffboard/internal/live"
	"github.com/banghwa/staffboard/internal/menu"
	"github.com/banghwa/staffboard/internal/password"
	"github.com/banghwa/staffboard/internal/schedule"
	"github.com/banghwa/staffboard/internal/sessions"
	"github.com/banghwa/staffboard/internal/store"
	"github.com/banghwa/staffboard/internal/tokens"
	"github.com/banghwa/staffboard/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const adminPassword = "letmein"

type fixture struct {
	g         *gin.Engine
	cfg       *config.Config
	hub       *live.Hub
	schedules *schedule.Service
	sessions  *sessions.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	hash, err := password.Hash(adminPassword)
	require.NoError(t, err)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour
	cfg.Admin.PasswordHash = hash
	cfg.Admin.TokenTTL = 30 * time.Minute

	hub := live.NewHub(store.NewMemoryStore(), live.NewMemoryBroker())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	menus, err := menu.New(menu.Defaults)
	require.NoError(t, err)

	f := &fixture{
		g:         gin.New(),
		cfg:       cfg,
		hub:       hub,
		schedules: schedule.NewService(hub),
		sessions:  sessions.NewService(sessions.NewMemoryRepository()),
	}
	auth := middleware.AuthMiddleware(tokens.NewVerifier(cfg))
	NewAuthHandler(cfg, f.sessions).Register(f.g.Group("/"))
	api := f.g.Group("/api/v1")
	RegisterMenu(api, menus)
	NewScheduleHandler(f.schedules, export.NewPublisher(f.schedules, nil, "calendar/schedules.ics", time.Hour), time.UTC).Register(api, auth)
	NewCommitteeHandler(committee.NewService(hub)).Register(api, auth)
	NewFileHandler(files.NewService(hub, menus.HasFiles)).Register(api, auth)
	NewLiveHandler(hub, menus.HasFiles).Register(api)
	return f
}

func (f *fixture) token(t *testing.T, admin bool) string {
	t.Helper()
	tok, err := tokens.GenerateAccessToken(f.cfg, "anon-test", admin, time.Minute)
	require.NoError(t, err)
	return tok
}

// do sends body (marshalled unless nil) and returns the recorder.
func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.g.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (f *fixture) mustStatus(t *testing.T, want int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}
