// Command boardctl runs maintenance tasks against the staffboard store: admin
// password hashing, recurring schedule generation, confirmed bulk changes,
// committee seeding and calendar export.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banghwa/staffboard/internal/config"
	"github.com/banghwa/staffboard/internal/database"
	"github.com/banghwa/staffboard/internal/store"
	"github.com/banghwa/staffboard/pkg/logger"
	"golang.org/x/term"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commandLine{
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		readPassword: func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) },
		openStore:    openStore,
	}
	err := cli.run(ctx, os.Args)
	switch {
	case err == nil:
	case errors.Is(err, errHelp):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// errNoDatabase stops store commands when only the in-memory fallback is
// available: their writes would vanish when boardctl exits.
var errNoDatabase = errors.New("MONGODB_URI is not set; boardctl needs the dashboard database")

// openStore connects with the server's configuration and returns the hub so
// that running dashboards see the changes.
func openStore(ctx context.Context) (store.Store, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return openConfigured(ctx, cfg)
}

func openConfigured(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.MongoDB.URI == "" {
		return nil, nil, errNoDatabase
	}
	conn, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return conn.Hub, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			logger.Warnf("closing store: %v", err)
		}
	}, nil
}
