package database

import (
	"context"
	"fmt"
	"time"

	"github.com/banghwa/staffboard/internal/config"
	"github.com/banghwa/staffboard/internal/live"
	"github.com/banghwa/staffboard/internal/store"
	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Conn is the process-wide connection context: opened once at startup,
// handed to every service, closed at shutdown.
type Conn struct {
	// Hub is the store every service writes through.
	Hub *live.Hub
	// Mongo is nil when running on the in-memory store.
	Mongo *mongo.Client
	// Redis is nil when not configured or unreachable at startup.
	Redis *redis.Client

	dbName string
	cancel context.CancelFunc
	done   chan struct{}
}

// Open connects the document store (MongoDB, or memory when no URI is
// configured) and Redis, then starts change fan-out.
func Open(ctx context.Context, cfg *config.Config) (*Conn, error) {
	c := &Conn{dbName: cfg.MongoDB.Database}

	var st store.Store
	if cfg.MongoDB.URI != "" {
		client, err := connectWithRetry(ctx, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		c.Mongo = client
		st = store.NewMongoStore(client, cfg.MongoDB.Database)
		logger.Infof("connected to MongoDB (database=%s)", cfg.MongoDB.Database)
	} else {
		st = store.NewMemoryStore()
		logger.Infof("using in-memory store")
	}

	var broker live.Broker = live.NewMemoryBroker()
	if cfg.Redis.Host != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
			_ = rc.Close()
		} else {
			c.Redis = rc
			broker = live.NewRedisBroker(rc, cfg.Redis.Channel)
			logger.Infof("connected to Redis %s; change notifications on %q", cfg.Redis.Addr(), cfg.Redis.Channel)
		}
	}

	c.Hub = live.NewHub(st, broker)
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		if err := c.Hub.Run(runCtx); err != nil && runCtx.Err() == nil {
			logger.Errorw("live: change fan-out stopped", err)
		}
	}()
	return c, nil
}

func connectWithRetry(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := connectMongo(ctx, cfg.URI, cfg.Timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, attempts, err)
		if attempt < attempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", attempts, lastErr)
}

// connectMongo dials and pings once. Multi-document batches use transactions,
// so the server must be a replica set member.
func connectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetAppName("staffboard").SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Collection returns a raw Mongo collection for auxiliary data such as
// sessions, or nil on the in-memory store.
func (c *Conn) Collection(name string) *mongo.Collection {
	if c.Mongo == nil {
		return nil
	}
	return c.Mongo.Database(c.dbName).Collection(name)
}

// Ping checks the document store.
func (c *Conn) Ping(ctx context.Context) error {
	return c.Hub.Ping(ctx)
}

// Close stops fan-out, then closes the store and Redis.
func (c *Conn) Close(ctx context.Context) error {
	c.cancel()
	select {
	case <-c.done:
	case <-ctx.Done():
	}
	err := c.Hub.Close(ctx)
	if c.Redis != nil {
		if rerr := c.Redis.Close(); err == nil {
			err = rerr
		}
	}
	return err
}
