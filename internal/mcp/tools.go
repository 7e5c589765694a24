package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/fittracker/internal/estimate"
	"github.com/claude/fittracker/internal/ingest/training"
	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// dateRange resolves optional start/end arguments to calendar dates,
// falling back to the given defaults.
func dateRange(startStr, endStr string, defStart, defEnd time.Time) (string, string, error) {
	start, end := defStart, defEnd
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return "", "", fmt.Errorf("end: %w", err)
		}
	}
	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return "", "", fmt.Errorf("start: %w", err)
		}
	}
	if start.After(end) {
		return "", "", errors.New("start is after end")
	}
	return models.FormatDate(start), models.FormatDate(end), nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.ParseInLocation(models.DateLayout, s, time.Local)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolListSessionTemplates = mcp.NewTool("list_session_templates",
	mcp.WithDescription("List session templates with their exercises, tags and estimated duration."),
	mcp.WithString("tag", mcp.Description("Only return templates carrying this tag (e.g. 'Upper Body', 'Core'). Case-insensitive.")),
)

var toolGetSchedule = mcp.NewTool("get_schedule",
	mcp.WithDescription("Scheduled session instances in a date range, ordered by date and start time, with completion progress."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to 7 days from start.")),
)

var toolGetSessionProgress = mcp.NewTool("get_session_progress",
	mcp.WithDescription("Per-exercise set status and totals for one session instance."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session instance ID")),
)

var toolParsePrescription = mcp.NewTool("parse_prescription",
	mcp.WithDescription("Normalize a free-text reps/time cell (e.g. '8-12', '30s', '10 per side', '1000 steps') into unit and bounds."),
	mcp.WithString("raw", mcp.Required(), mcp.Description("Prescription text")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Weekly/monthly session counts by status plus completed-set volume (sets, reps, seconds, tonnage) per period."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days before end.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to today.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to 'week'."), mcp.Enum("week", "month")),
)

var toolGetDataStats = mcp.NewTool("get_data_stats",
	mcp.WithDescription("Counts of stored templates, instances by status, progress records and the covered date span."),
)

// --- Tool handlers ---

type templateSummary struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Tags             []string `json:"tags"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Exercises        []string `json:"exercises"`
}

func (h *handlers) listSessionTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := req.GetString("tag", "")

	templates, err := h.ds.LoadSessionTemplates(ctx)
	if err != nil {
		h.log.Error("mcp list_session_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := make([]templateSummary, 0, len(templates))
	for _, t := range templates {
		if tag != "" && !t.HasTag(tag) {
			continue
		}
		ts := templateSummary{
			ID:               t.ID,
			Name:             t.Name,
			Tags:             t.Tags,
			EstimatedMinutes: estimate.EstimateSessionDuration(t.Exercises),
			Exercises:        make([]string, 0, len(t.Exercises)),
		}
		if t.EstimatedDurationMinutes != nil {
			ts.EstimatedMinutes = *t.EstimatedDurationMinutes
		}
		for _, ex := range t.Exercises {
			ts.Exercises = append(ts.Exercises, ex.Name+" "+estimate.FormatPrescription(ex))
		}
		out = append(out, ts)
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

type scheduleEntry struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name"`
	Date             string                   `json:"date"`
	StartTime        string                   `json:"start_time,omitempty"`
	Status           models.Status            `json:"status"`
	EstimatedMinutes int                      `json:"estimated_minutes"`
	Progress         estimate.SessionProgress `json:"progress"`
}

func (h *handlers) scheduleEntries(ctx context.Context, instances []models.SessionInstance) ([]scheduleEntry, error) {
	out := make([]scheduleEntry, 0, len(instances))
	for _, inst := range instances {
		progress, err := h.ds.WorkoutProgressForSession(ctx, inst.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, scheduleEntry{
			ID:               inst.ID,
			Name:             inst.TemplateSnapshot.Name,
			Date:             inst.Date,
			StartTime:        inst.StartTime,
			Status:           inst.Status,
			EstimatedMinutes: estimate.InstanceDuration(inst),
			Progress:         estimate.InstanceProgress(inst, progress),
		})
	}
	return out, nil
}

func (h *handlers) getSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := h.now()
	startStr := req.GetString("start", "")
	defStart := now
	if startStr != "" {
		t, err := parseFlexTime(startStr)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		defStart = t
	}

	start, end, err := dateRange(startStr, req.GetString("end", ""), defStart, defStart.AddDate(0, 0, 7))
	if err != nil {
		return mcp.NewToolResultError("invalid date range: " + err.Error()), nil
	}

	instances, err := h.ds.SessionInstancesForDateRange(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_schedule", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	entries, err := h.scheduleEntries(ctx, instances)
	if err != nil {
		h.log.Error("mcp get_schedule progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"start":    start,
		"end":      end,
		"sessions": entries,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

type exerciseProgress struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Prescription string               `json:"prescription"`
	Weight       string               `json:"weight,omitempty"`
	Rest         string               `json:"rest"`
	Sets         []estimate.SetStatus `json:"sets"`
	Percentage   int                  `json:"percentage"`
	Completed    bool                 `json:"completed"`
}

func (h *handlers) getSessionProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}

	inst, err := h.ds.GetSessionInstance(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("session not found: " + id), nil
	}
	if err != nil {
		h.log.Error("mcp get_session_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	progress, err := h.ds.WorkoutProgressForSession(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	exercises := make([]exerciseProgress, 0, len(inst.Exercises()))
	for _, ex := range inst.Exercises() {
		p := models.FindProgress(progress, ex.ID)
		ep := exerciseProgress{
			ID:           ex.ID,
			Name:         ex.Name,
			Prescription: estimate.FormatPrescription(ex),
			Rest:         estimate.FormatRestTime(ex.Rest()),
			Sets:         estimate.AllSetStatuses(ex, p),
			Percentage:   estimate.CompletionPercentage(ex, p),
			Completed:    estimate.IsExerciseCompleted(ex, p),
		}
		if ex.Weight != nil {
			ep.Weight = estimate.FormatWeight(ex.Weight)
		}
		exercises = append(exercises, ep)
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"session_id": inst.ID,
		"name":       inst.TemplateSnapshot.Name,
		"date":       inst.Date,
		"status":     inst.Status,
		"summary":    estimate.InstanceProgress(inst, progress),
		"completed":  estimate.IsInstanceCompleted(inst, progress),
		"exercises":  exercises,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) parsePrescription(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("raw")
	if err != nil {
		return mcp.NewToolResultError("raw parameter is required"), nil
	}

	p := training.ParsePrescription(raw)
	var ex models.SessionExercise
	p.ApplyTo(&ex)

	result, err := mcp.NewToolResultJSON(map[string]any{
		"prescription": p,
		"malformed":    p.Malformed(),
		"formatted":    estimate.FormatPrescription(ex),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	end := h.now()
	if s := req.GetString("end", ""); s != "" {
		t, err := parseFlexTime(s)
		if err != nil {
			return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
		}
		end = t
	}

	start, endDate, err := dateRange(req.GetString("start", ""), "", end.AddDate(0, 0, -90), end)
	if err != nil {
		return mcp.NewToolResultError("invalid date range: " + err.Error()), nil
	}

	bucket := req.GetString("bucket", "week")

	summary, err := h.ds.GetTrainingSummary(ctx, start, endDate, bucket)
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summary)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDataStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetDataStats(ctx)
	if err != nil {
		h.log.Error("mcp get_data_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
