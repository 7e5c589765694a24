package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/fittracker/internal/importer"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	TemplatesSaved  int
	RowsInvalid     int
	MalformedTokens []string
}

// Uploader walks a directory of training CSVs and posts new or changed
// files to a fittracker server.
type Uploader struct {
	client *Client
	state  *StateDB
	root   string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. In dry-run mode the server validates each
// file without saving and the state DB is left untouched.
func New(client *Client, state *StateDB, root string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		root:   root,
		dryRun: dryRun,
		log:    log,
	}
}

// Run executes the upload pipeline. It stops at the first rejected API
// key; other per-file failures are counted and skipped.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := importer.FindCSVFiles(u.root)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		u.stats.FilesTotal++
		err := u.uploadFile(ctx, f)
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, context.Canceled) {
			return &u.stats, err
		}
		if err != nil {
			u.log.Warn("upload failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}

	return &u.stats, nil
}

func (u *Uploader) uploadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	relPath := u.relPath(path)
	hash := HashBytes(data)

	uploaded, err := u.state.IsUploaded(ctx, relPath, hash)
	if err != nil {
		return err
	}
	if uploaded {
		u.log.Debug("unchanged, skipping", "file", relPath)
		u.stats.FilesSkipped++
		return nil
	}

	result, err := u.client.SendCSV(ctx, filepath.Base(path), data, u.dryRun)
	if err != nil {
		return err
	}

	u.stats.FilesUploaded++
	u.stats.TemplatesSaved += result.TemplatesSaved
	u.stats.RowsInvalid += result.RowsInvalid
	u.stats.MalformedTokens = append(u.stats.MalformedTokens, result.MalformedTokens...)
	u.log.Info("uploaded", "file", relPath, "templates", result.TemplatesReceived, "errors", len(result.Errors))

	if u.dryRun {
		return nil
	}
	return u.state.MarkUploaded(ctx, relPath, hash, result.TemplatesSaved)
}

func (u *Uploader) relPath(path string) string {
	rel, err := filepath.Rel(u.root, path)
	if err != nil || rel == "." {
		return filepath.Base(path)
	}
	return rel
}
