package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/fittracker/internal/config"
	"github.com/claude/fittracker/internal/ingest/training"
	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/server"
	"github.com/claude/fittracker/internal/storage"
	"github.com/claude/fittracker/internal/workout"
	"github.com/prometheus/client_golang/prometheus"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run postgres migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	log.Info("FitTracker starting", "version", Version, "backend", cfg.Storage.Backend)

	if *migrateOnly {
		if cfg.Storage.Backend != config.BackendPostgres {
			log.Info("migrate-only: nothing to migrate", "backend", cfg.Storage.Backend)
			return
		}
		if err := storage.RunMigrations(cfg.Database.DSN(), "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrate-only: exiting")
		return
	}

	ctx := context.Background()

	// Open storage
	kv, err := storage.OpenKV(ctx, cfg, "migrations", log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewManager("fittracker", "server", reg)

	store := storage.NewStore(kv, cfg.Storage.KeyPrefix, m, log)
	defer store.Close()

	trainingProvider := training.NewProvider(store, m, log)
	workouts := workout.NewManager(store, log, workout.Options{
		TickInterval: cfg.Workout.TickInterval,
		MaxSets:      cfg.Workout.MaxSets,
		DefaultRest:  cfg.Workout.DefaultRestSeconds,
		Metrics:      m,
	})
	defer workouts.Close()

	// A workout left open before a restart resumes with its timer.
	if sess, err := workouts.Resume(ctx); err == nil {
		log.Info("workout resumed", "session_id", sess.ID())
	} else if !errors.Is(err, workout.ErrNoActiveWorkout) {
		log.Warn("workout resume failed", "error", err)
	}

	srv := server.New(store, trainingProvider, workouts, m, reg, cfg.Auth.APIKey, log)

	// Start server: tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
