package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/ingest"
	"github.com/claude/fittracker/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	TemplatesReceived int
	TemplatesSaved    int
	ExercisesReceived int
	RowsInvalid       int

	MalformedTokens []string
}

// CSVIngester turns one training CSV into stored templates.
type CSVIngester interface {
	Ingest(ctx context.Context, r io.Reader, source string, dryRun bool) (*ingest.Result, error)
}

// LogStore records one entry per imported file.
type LogStore interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (string, error)
	UpdateImportLog(ctx context.Context, id string, log storage.ImportLog) error
}

// Importer reads training CSV files from a directory tree and stores the
// templates they describe.
type Importer struct {
	provider CSVIngester
	logs     LogStore
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer.
func New(logs LogStore, provider CSVIngester, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{provider: provider, logs: logs, log: log, dryRun: dryRun}
}

// Import processes every .csv file under dir (or dir itself when it names
// a file), in lexical path order. A file that fails to parse or save is
// counted and logged; the walk continues with the next file.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	files, err := FindCSVFiles(dir)
	if err != nil {
		return &imp.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, f); err != nil {
			imp.log.Warn("import failed", "file", f, "error", err)
			imp.stats.FilesErrored++
		}
	}

	sort.Strings(imp.stats.MalformedTokens)
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		imp.log.Info("skipping empty file", "file", path)
		imp.stats.FilesSkipped++
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	source := filepath.Base(path)
	var logID string
	if !imp.dryRun {
		logID, err = imp.logs.InsertImportLog(ctx, storage.ImportLog{Source: source, Status: "running"})
		if err != nil {
			return fmt.Errorf("creating import log: %w", err)
		}
	}

	start := time.Now()
	result, importErr := imp.provider.Ingest(ctx, f, source, imp.dryRun)
	if result == nil {
		result = &ingest.Result{Source: source}
	}

	if !imp.dryRun {
		if err := imp.logs.UpdateImportLog(ctx, logID, ingest.NewImportLog(result, importErr, time.Since(start))); err != nil {
			imp.log.Error("failed to update import log", "file", path, "error", err)
		}
	}
	if importErr != nil {
		return importErr
	}

	imp.stats.FilesProcessed++
	imp.stats.TemplatesReceived += result.TemplatesReceived
	imp.stats.TemplatesSaved += result.TemplatesSaved
	imp.stats.ExercisesReceived += result.ExercisesReceived
	imp.stats.RowsInvalid += result.RowsInvalid
	imp.stats.MalformedTokens = append(imp.stats.MalformedTokens, result.MalformedTokens...)

	for _, e := range result.Errors {
		imp.log.Warn("row rejected", "file", path, "error", e)
	}
	imp.log.Info("file imported", "file", path, "status", result.Status(nil), "templates", result.TemplatesReceived)
	return nil
}

// FindCSVFiles returns the .csv files under root, sorted. A root that is
// itself a file is returned as-is.
func FindCSVFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
