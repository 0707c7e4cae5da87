package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fileops/internal/config"
	"github.com/JonMunkholm/fileops/internal/history"
	"github.com/JonMunkholm/fileops/internal/logging"
	"github.com/JonMunkholm/fileops/internal/metrics"
	"github.com/JonMunkholm/fileops/internal/session"
	"github.com/JonMunkholm/fileops/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	// Background jobs stop when jobCtx is cancelled.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	m := metrics.New()

	var recorder history.Recorder
	if cfg.History.DatabaseURL != "" {
		pool, err := history.Connect(jobCtx, cfg.History.DatabaseURL, history.PoolConfig{
			MaxConns:        cfg.History.MaxConns,
			MaxConnLifetime: cfg.History.MaxConnLifetime,
		})
		if err != nil {
			slog.Error("failed to connect to history database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := history.NewPostgres(pool)
		if err := store.Migrate(jobCtx); err != nil {
			slog.Error("failed to migrate history database", "error", err)
			os.Exit(1)
		}
		go history.StartPruner(jobCtx, store, cfg.History.Retention, cfg.History.PruneInterval)
		recorder = store
		slog.Info("operation history stored in postgres")
	} else {
		recorder = history.NewMemory(cfg.History.MaxEntries)
		slog.Info("operation history kept in memory", "max_entries", cfg.History.MaxEntries)
	}

	sessions := session.NewStore(cfg.Session.TTL, session.WithObserver(m.SetActiveSessions))
	go sessions.StartSweeper(jobCtx, cfg.Session.SweepInterval)

	server := web.NewServer(cfg, web.Deps{
		Sessions: sessions,
		History:  recorder,
		Metrics:  m,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
