package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/fittracker/internal/config"
	fitmcp "github.com/claude/fittracker/internal/mcp"
	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/storage"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode)")
	remote := flag.String("remote", "", "fittracker server URL (remote mode, e.g. http://fittracker.tail1234.ts.net)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fittracker-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds fitmcp.DataSource
	switch {
	case *remote != "":
		ds = fitmcp.NewHTTPClient(*remote)
		log.Info("remote mode", "server", *remote)

	case *configPath != "":
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		kv, err := storage.OpenKV(context.Background(), cfg, "migrations", log)
		if err != nil {
			log.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		m := metrics.NewManager("fittracker", "mcp", prometheus.NewRegistry())
		store := storage.NewStore(kv, cfg.Storage.KeyPrefix, m, log)
		defer store.Close()
		ds = store
		log.Info("local mode", "backend", cfg.Storage.Backend)

	default:
		fmt.Fprintf(os.Stderr, "Usage: fittracker-mcp (-config config.yaml | -remote <URL>)\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := fitmcp.New(ds, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
