package ingest

import (
	"time"

	"github.com/claude/fittracker/internal/storage"
)

// Result holds the outcome of an import operation.
type Result struct {
	Source string `json:"source"`

	RowsReceived int `json:"rows_received"`
	RowsValid    int `json:"rows_valid"`
	RowsInvalid  int `json:"rows_invalid"`

	TemplatesReceived int      `json:"templates_received"`
	TemplatesSaved    int      `json:"templates_saved"`
	TemplateIDs       []string `json:"template_ids,omitempty"`
	ExercisesReceived int      `json:"exercises_received"`

	UnitCounts      map[string]int `json:"unit_counts,omitempty"`
	MalformedTokens []string       `json:"malformed_tokens,omitempty"`
	Errors          []string       `json:"errors,omitempty"`

	DryRun  bool   `json:"dry_run,omitempty"`
	Message string `json:"message,omitempty"`
}

// HasErrors reports whether any row, day or header problem was recorded.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Status classifies an import: "error" when it failed, "partial" when
// some rows or days were rejected, otherwise "success".
func (r *Result) Status(importErr error) string {
	switch {
	case importErr != nil:
		return "error"
	case r.HasErrors():
		return "partial"
	}
	return "success"
}

// NewImportLog builds the import log entry for one import run.
func NewImportLog(r *Result, importErr error, elapsed time.Duration) storage.ImportLog {
	durationMs := int(elapsed.Milliseconds())
	log := storage.ImportLog{
		Source:            r.Source,
		Status:            r.Status(importErr),
		RowsReceived:      r.RowsReceived,
		RowsValid:         r.RowsValid,
		RowsInvalid:       r.RowsInvalid,
		TemplatesReceived: r.TemplatesReceived,
		TemplatesSaved:    r.TemplatesSaved,
		MalformedTokens:   len(r.MalformedTokens),
		DurationMs:        &durationMs,
	}
	if importErr != nil {
		msg := importErr.Error()
		log.ErrorMessage = &msg
	}
	return log
}
