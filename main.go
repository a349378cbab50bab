package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banghwa/staffboard/handlers"
	"github.com/banghwa/staffboard/internal/committee"
	"github.com/banghwa/staffboard/internal/config"
	"github.com/banghwa/staffboard/internal/database"
	"github.com/banghwa/staffboard/internal/export"
	"github.com/banghwa/staffboard/internal/files"
	"github.com/banghwa/staffboard/internal/menu"
	"github.com/banghwa/staffboard/internal/oidc"
	"github.com/banghwa/staffboard/internal/schedule"
	"github.com/banghwa/staffboard/internal/sessions"
	"github.com/banghwa/staffboard/internal/storage"
	"github.com/banghwa/staffboard/internal/tokens"
	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/banghwa/staffboard/pkg/metrics"
	"github.com/banghwa/staffboard/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v", cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open store: %v", err)
	}

	menus, err := menu.Load(cfg.Menu.File)
	if err != nil {
		logger.Fatalf("failed to load menu: %v", err)
	}

	sessionsSvc := newSessions(ctx, conn)
	verifier := middleware.Chain{tokens.NewVerifier(cfg), newOIDCVerifier(ctx, cfg)}
	auth := middleware.AuthMiddleware(verifier)

	schedules := schedule.NewService(conn.Hub)
	publisher := export.NewPublisher(schedules, newObjectStore(ctx, cfg), cfg.Export.ObjectKey, cfg.Export.URLExpiry)
	if cfg.Export.Cron != "" {
		stopCron, err := publisher.Schedule(cfg.Export.Cron, cfg.Calendar.Location())
		if err != nil {
			logger.Warnf("scheduled calendar export disabled: %v", err)
		} else {
			defer stopCron()
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && conn.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(conn.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win, verifier))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst, verifier))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps := gin.H{"store": true, "redis": conn.Redis != nil}
		status, code := "ready", http.StatusOK
		if err := conn.Ping(pingCtx); err != nil {
			deps["store"] = false
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	handlers.NewAuthHandler(cfg, sessionsSvc).Register(r.Group("/"))
	api := r.Group("/api/v1")
	handlers.RegisterMenu(api, menus)
	handlers.NewScheduleHandler(schedules, publisher, cfg.Calendar.Location()).Register(api, auth)
	handlers.NewCommitteeHandler(committee.NewService(conn.Hub)).Register(api, auth)
	handlers.NewFileHandler(files.NewService(conn.Hub, menus.HasFiles)).Register(api, auth)
	handlers.NewLiveHandler(conn.Hub, menus.HasFiles).Register(api)

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: live streams stay open for the lifetime of a view
	}
	go func() {
		logger.Infof("starting staffboard on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := conn.Close(shutdownCtx); err != nil {
		logger.Warnf("closing store: %v", err)
	}
}

// newSessions prefers Redis, then Mongo, then memory for refresh sessions.
func newSessions(ctx context.Context, conn *database.Conn) *sessions.Service {
	if conn.Redis != nil {
		sessions.SetBlacklistClient(conn.Redis)
		logger.Infof("using Redis for session storage")
		return sessions.NewService(sessions.NewRedisRepository(conn.Redis, sessions.DefaultPrefix))
	}
	if col := conn.Collection("sessions"); col != nil {
		repo := sessions.NewMongoRepository(col)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warnf("session indexes: %v", err)
		}
		logger.Infof("using MongoDB for session storage")
		return sessions.NewService(repo)
	}
	logger.Warnf("using in-memory session storage; sessions are lost on restart")
	return sessions.NewService(sessions.NewMemoryRepository())
}

func newOIDCVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Keycloak.URL == "" || cfg.Keycloak.ClientID == "" {
		return nil
	}
	issuer := oidc.IssuerURL(cfg.Keycloak.URL, cfg.Keycloak.Realm)
	ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID, cfg.Keycloak.AdminRole)
	if err != nil {
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
		return nil
	}
	logger.Infof("OIDC tokens accepted from %s (admin role %q)", issuer, cfg.Keycloak.AdminRole)
	return ver
}

func newObjectStore(ctx context.Context, cfg *config.Config) export.ObjectStore {
	if cfg.MinIO.Endpoint == "" {
		return nil
	}
	st, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		logger.Warnf("object storage unavailable, calendar publishing disabled: %v", err)
		return nil
	}
	return st
}

// cors sets permissive headers and answers preflight requests.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
