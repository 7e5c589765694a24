package training

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/fittracker/internal/ingest"
	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/models"
)

// TemplateSaver persists converted templates.
type TemplateSaver interface {
	SaveSessionTemplate(ctx context.Context, t models.SessionTemplate) (models.SessionTemplate, error)
}

// Provider processes training CSV files into stored session templates.
type Provider struct {
	store   TemplateSaver
	metrics *metrics.Manager
	log     *slog.Logger
	now     func() time.Time
}

// NewProvider creates a new training CSV ingest provider.
func NewProvider(store TemplateSaver, m *metrics.Manager, log *slog.Logger) *Provider {
	return &Provider{store: store, metrics: m, log: log, now: time.Now}
}

// Ingest parses a training CSV and saves every emitted template unless
// dryRun is set. Parse problems are reported in the result, not returned.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, source string, dryRun bool) (*ingest.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	rep := NewConverter(p.now).Parse(string(data))
	p.metrics.HistParseDuration.Observe(rep.Stats.ParsingTime.Seconds())

	result := &ingest.Result{
		Source:            source,
		RowsReceived:      rep.Stats.TotalRows,
		RowsValid:         rep.Stats.ValidRows,
		RowsInvalid:       rep.Stats.InvalidRows,
		TemplatesReceived: len(rep.Sessions),
		UnitCounts:        map[string]int{},
		MalformedTokens:   rep.Stats.MalformedTokens,
		Errors:            rep.Errors,
		DryRun:            dryRun,
	}
	for unit, n := range rep.Stats.UnitCounts {
		result.UnitCounts[string(unit)] = n
	}
	for _, s := range rep.Sessions {
		result.ExercisesReceived += len(s.Exercises)
	}

	p.metrics.CounterRows.WithLabelValues("valid").Add(float64(rep.Stats.ValidRows))
	p.metrics.CounterRows.WithLabelValues("invalid").Add(float64(rep.Stats.InvalidRows))
	p.metrics.CounterMalformedTokens.Add(float64(len(rep.Stats.MalformedTokens)))

	if !dryRun {
		for _, s := range rep.Sessions {
			saved, err := p.store.SaveSessionTemplate(ctx, s)
			if err != nil {
				p.metrics.CounterImports.WithLabelValues("error").Inc()
				return result, fmt.Errorf("saving template %q: %w", s.Name, err)
			}
			result.TemplatesSaved++
			result.TemplateIDs = append(result.TemplateIDs, saved.ID)
		}
	}

	status := "success"
	if result.HasErrors() {
		status = "partial"
	}
	p.metrics.CounterImports.WithLabelValues(status).Inc()

	result.Message = fmt.Sprintf("%d templates, %d exercises, %d errors",
		result.TemplatesReceived, result.ExercisesReceived, len(result.Errors))
	p.log.Info("training CSV imported",
		"source", source,
		"templates", result.TemplatesReceived,
		"rows_valid", result.RowsValid,
		"rows_invalid", result.RowsInvalid,
		"malformed_tokens", len(result.MalformedTokens),
		"dry_run", dryRun,
	)
	return result, nil
}
