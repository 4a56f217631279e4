package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vegamsg/vegaserver/internal/blobstore"
	"github.com/vegamsg/vegaserver/internal/config"
	"github.com/vegamsg/vegaserver/internal/db"
	"github.com/vegamsg/vegaserver/internal/identity"
	"github.com/vegamsg/vegaserver/internal/identity/filestore"
	"github.com/vegamsg/vegaserver/internal/server"
)

const ConfigPath = "config/vegaserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("VEGA_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyArgs(os.Args[1:]); err != nil {
		return fmt.Errorf("parsing arguments: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	log.Info("vega server starting",
		"bind", cfg.BindAddress,
		"tcp_port", cfg.TCPPort,
		"discovery_port", cfg.DiscoveryPort,
		"server_name", cfg.ServerName)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	idStore, closeIdentity, err := openIdentityStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("opening identity store: %w", err)
	}
	defer closeIdentity()

	blobs, err := blobstore.New(filepath.Join(cfg.DataDir, "blobs"), cfg.MaxBlobSize)
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}

	srv := server.New(cfg, idStore, blobs, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("tcp server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("discovery responder listening", "port", cfg.DiscoveryPort)
		if err := srv.Discovery().Serve(gctx, cfg.DiscoveryPort); err != nil {
			return fmt.Errorf("discovery responder: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		srv.RunPingLoop(gctx)
		return nil
	})

	return g.Wait()
}

// openIdentityStore picks a Postgres-backed persister when a DSN is
// configured, otherwise falls back to the JSON filestore under DataDir.
func openIdentityStore(ctx context.Context, cfg config.Server, log *slog.Logger) (*identity.Store, func(), error) {
	if cfg.Database.DSN != "" {
		database, err := db.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := db.RunMigrations(ctx, database); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("identity store backed by postgres")
		store, err := identity.New(db.NewIdentityPersister(database))
		if err != nil {
			database.Close()
			return nil, nil, err
		}
		return store, func() { database.Close() }, nil
	}

	path := filepath.Join(cfg.DataDir, "identity.json")
	persister, err := filestore.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening identity filestore at %s: %w", path, err)
	}
	log.Info("identity store backed by json file", "path", path)
	store, err := identity.New(persister)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
