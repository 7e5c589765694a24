package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/fittracker/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "fittracker server URL (e.g. https://fittracker.tail1234.ts.net)")
	plansPath := flag.String("path", "", "training CSV file or directory of CSV files")
	apiKey := flag.String("api-key", os.Getenv("FITTRACKER_AUTH_API_KEY"), "server API key (default $FITTRACKER_AUTH_API_KEY)")
	dryRun := flag.Bool("dry-run", false, "have the server validate files without saving")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fittracker-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *plansPath == "" || *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: fittracker-upload -server <URL> -path <plans dir> [-api-key KEY] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "Error: -api-key or FITTRACKER_AUTH_API_KEY is required\n")
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenStateDB(filepath.Join(homeDir, ".fittracker-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode: the server validates files but saves nothing")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	u := upload.New(upload.NewClient(*serverURL, *apiKey), state, *plansPath, *dryRun, log)
	stats, err := u.Run(ctx)
	printStats(log, stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(log *slog.Logger, stats *upload.Stats) {
	log.Info("upload stats",
		"files_total", stats.FilesTotal,
		"files_uploaded", stats.FilesUploaded,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"templates_saved", stats.TemplatesSaved,
		"rows_invalid", stats.RowsInvalid,
	)
	if len(stats.MalformedTokens) > 0 {
		log.Info("malformed prescriptions", "tokens", stats.MalformedTokens)
	}
}
