package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/fittracker/internal/ingest"
)

func (s *Server) handleTrainingImport(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("filename")
	if source == "" {
		source = "upload.csv"
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	start := time.Now()
	result, err := s.training.Ingest(r.Context(), r.Body, source, dryRun)
	elapsed := time.Since(start)
	if result == nil {
		result = &ingest.Result{Source: source}
	}
	if !dryRun {
		s.logImport(result, err, elapsed)
	}
	if err != nil {
		s.log.Error("training import error", "source", source, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "result": result})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDataStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// logImport records an import operation's result to the import log.
func (s *Server) logImport(result *ingest.Result, importErr error, elapsed time.Duration) {
	// the request context may already be cancelled
	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.store.InsertImportLog(ctx, ingest.NewImportLog(result, importErr, elapsed)); err != nil {
		s.log.Error("failed to log import", "source", result.Source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout for import logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
