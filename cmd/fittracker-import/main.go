package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/claude/fittracker/internal/config"
	"github.com/claude/fittracker/internal/importer"
	"github.com/claude/fittracker/internal/ingest/training"
	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	csvPath := flag.String("path", "", "training CSV file or directory of CSV files (required)")
	dryRun := flag.Bool("dry-run", false, "parse and report without saving templates")
	flag.Parse()

	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: fittracker-import -config config.yaml -path /path/to/plans [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		log.Info("DRY RUN mode: no templates will be saved")
	}

	kv, err := storage.OpenKV(ctx, cfg, "migrations", log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	m := metrics.NewManager("fittracker", "import", prometheus.NewRegistry())
	store := storage.NewStore(kv, cfg.Storage.KeyPrefix, m, log)
	defer store.Close()

	// Run import
	imp := importer.New(store, training.NewProvider(store, m, log), log, *dryRun)
	stats, err := imp.Import(ctx, *csvPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	if stats.FilesErrored > 0 {
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"templates_received", stats.TemplatesReceived,
		"templates_saved", stats.TemplatesSaved,
		"exercises", stats.ExercisesReceived,
		"rows_invalid", stats.RowsInvalid,
	)
	if len(stats.MalformedTokens) > 0 {
		log.Info("malformed prescriptions", "tokens", stats.MalformedTokens)
	}
}
