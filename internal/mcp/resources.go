package mcp

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/claude/fittracker/internal/estimate"
	"github.com/claude/fittracker/internal/ingest/training"
	"github.com/claude/fittracker/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) today(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	date := models.FormatDate(h.now())

	instances, err := h.ds.SessionInstancesForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	sessions, err := h.scheduleEntries(ctx, instances)
	if err != nil {
		return nil, err
	}

	var planned, done int
	for _, s := range sessions {
		planned += s.EstimatedMinutes
		if s.Status == models.StatusCompleted {
			done++
		}
	}

	summary := map[string]any{
		"date":              date,
		"sessions":          sessions,
		"completed":         done,
		"planned_minutes":   planned,
		"planned_formatted": estimate.FormatDuration(planned),
	}

	return jsonContents(req.Params.URI, summary)
}

type catalogEntry struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Tags             []string `json:"tags"`
	ExerciseCount    int      `json:"exercise_count"`
	TotalSets        int      `json:"total_sets"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Muscles          []string `json:"muscles"`
}

func (h *handlers) templateCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	templates, err := h.ds.LoadSessionTemplates(ctx)
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]catalogEntry, len(templates))
	for _, t := range templates {
		e := catalogEntry{
			ID:               t.ID,
			Name:             t.Name,
			Tags:             t.Tags,
			ExerciseCount:    len(t.Exercises),
			EstimatedMinutes: estimate.EstimateSessionDuration(t.Exercises),
			Muscles:          []string{},
		}
		for _, ex := range t.Exercises {
			e.TotalSets += ex.Sets
			if ex.MuscleGroup == "" {
				continue
			}
			if m := training.MuscleSlug(ex.MuscleGroup); !slices.Contains(e.Muscles, m) {
				e.Muscles = append(e.Muscles, m)
			}
		}
		slices.Sort(e.Muscles)
		catalog[training.DayKey(t.Name)] = e
	}

	return jsonContents(req.Params.URI, catalog)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
