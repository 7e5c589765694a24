package ingest

import (
	"errors"
	"testing"
	"time"
)

// TestResultStatus verifies the error > partial > success precedence.
func TestResultStatus(t *testing.T) {
	tests := []struct {
		name   string
		errs   []string
		err    error
		status string
	}{
		{"clean", nil, nil, "success"},
		{"row errors", []string{"Row 3: expected 9 columns, got 8"}, nil, "partial"},
		{"failed", []string{"x"}, errors.New("saving template"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Result{Errors: tt.errs}
			if got := r.Status(tt.err); got != tt.status {
				t.Errorf("Status = %q, want %q", got, tt.status)
			}
		})
	}
}

func TestNewImportLog(t *testing.T) {
	r := &Result{
		Source:            "push.csv",
		RowsReceived:      3,
		RowsValid:         2,
		RowsInvalid:       1,
		TemplatesReceived: 1,
		TemplatesSaved:    1,
		MalformedTokens:   []string{"lots"},
		Errors:            []string{"Error processing Day 1: unable to parse reps/time \"lots\""},
	}

	log := NewImportLog(r, nil, 1500*time.Millisecond)
	if log.Source != "push.csv" || log.Status != "partial" {
		t.Errorf("log = %+v", log)
	}
	if log.MalformedTokens != 1 || log.RowsInvalid != 1 || log.TemplatesSaved != 1 {
		t.Errorf("counts = %+v", log)
	}
	if log.DurationMs == nil || *log.DurationMs != 1500 {
		t.Errorf("duration = %v, want 1500", log.DurationMs)
	}
	if log.ErrorMessage != nil {
		t.Errorf("error message = %q, want nil", *log.ErrorMessage)
	}

	log = NewImportLog(r, errors.New("kv down"), 0)
	if log.Status != "error" || log.ErrorMessage == nil || *log.ErrorMessage != "kv down" {
		t.Errorf("failed log = %+v", log)
	}
}
