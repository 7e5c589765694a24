package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

var testNow = time.Date(2025, 3, 3, 12, 0, 0, 0, time.Local)

func newTestHandlers(t *testing.T) (*handlers, *storage.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewStore(storage.NewMemoryKV(), "fittracker_", metrics.NewTestManager(), log)
	h := &handlers{ds: store, log: log, now: func() time.Time { return testNow }}
	return h, store
}

func seedPush(t *testing.T, store *storage.Store) (models.SessionTemplate, models.SessionInstance) {
	t.Helper()
	ctx := context.Background()
	tmpl, err := store.SaveSessionTemplate(ctx, models.SessionTemplate{
		Name: "Day 1 - Push",
		Exercises: []models.SessionExercise{
			{
				ID: "bench", Name: "Bench Press", Sets: 2, Unit: models.UnitReps,
				RepsMin: models.Ptr(8), RepsMax: models.Ptr(12), Weight: models.Ptr(80.0),
				MuscleGroup: "Chest", MainMuscle: "Upper Chest", RestSeconds: models.Ptr(120),
			},
			{
				ID: "plank", Name: "Plank", Sets: 1, Unit: models.UnitSeconds,
				TimeSecondsMin: models.Ptr(30), TimeSecondsMax: models.Ptr(30),
				MuscleGroup: "Core", MainMuscle: "Abs", RestSeconds: models.Ptr(60),
			},
		},
		Tags: []string{"Push", "Upper Body"},
	})
	if err != nil {
		t.Fatalf("SaveSessionTemplate: %v", err)
	}
	inst, err := store.CreateSessionInstanceFromTemplate(ctx, tmpl, "2025-03-03", "18:00")
	if err != nil {
		t.Fatalf("CreateSessionInstanceFromTemplate: %v", err)
	}
	return tmpl, inst
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func decodeResult(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

// TestDateRange verifies defaults, explicit dates, RFC3339 input and
// rejection of inverted or invalid ranges.
func TestDateRange(t *testing.T) {
	defStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	defEnd := time.Date(2025, 3, 8, 0, 0, 0, 0, time.Local)

	start, end, err := dateRange("", "", defStart, defEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "2025-03-01" || end != "2025-03-08" {
		t.Errorf("defaults = %s..%s, want 2025-03-01..2025-03-08", start, end)
	}

	start, end, err = dateRange("2024-01-01", "2024-01-31", defStart, defEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "2024-01-01" || end != "2024-01-31" {
		t.Errorf("explicit = %s..%s", start, end)
	}

	start, _, err = dateRange("2024-06-15T10:30:00Z", "2024-06-20", defStart, defEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "2024-06-15" {
		t.Errorf("RFC3339 start = %s, want 2024-06-15", start)
	}

	if _, _, err := dateRange("not-a-date", "", defStart, defEnd); err == nil {
		t.Error("expected error for invalid date")
	}
	if _, _, err := dateRange("2025-03-10", "2025-03-01", defStart, defEnd); err == nil {
		t.Error("expected error for start after end")
	}
}

func TestListSessionTemplatesTagFilter(t *testing.T) {
	h, store := newTestHandlers(t)
	seedPush(t, store)
	if _, err := store.SaveSessionTemplate(context.Background(), models.SessionTemplate{
		Name: "Day 2 - Core",
		Exercises: []models.SessionExercise{
			{ID: "plank", Name: "Plank", Sets: 3, Unit: models.UnitSeconds, TimeSecondsMin: models.Ptr(45), MuscleGroup: "Core", MainMuscle: "Abs"},
		},
		Tags: []string{"Core"},
	}); err != nil {
		t.Fatal(err)
	}

	res, err := h.listSessionTemplates(context.Background(), callRequest(map[string]any{"tag": "upper body"}))
	if err != nil {
		t.Fatal(err)
	}
	var got []templateSummary
	decodeResult(t, res, &got)
	if len(got) != 1 || got[0].Name != "Day 1 - Push" {
		t.Fatalf("templates = %+v, want only Day 1 - Push", got)
	}
	if want := "Bench Press 8-12 reps"; got[0].Exercises[0] != want {
		t.Errorf("exercise = %q, want %q", got[0].Exercises[0], want)
	}

	res, err = h.listSessionTemplates(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	decodeResult(t, res, &got)
	if len(got) != 2 {
		t.Errorf("unfiltered count = %d, want 2", len(got))
	}
}

func TestGetScheduleDefaultsToNextWeek(t *testing.T) {
	h, store := newTestHandlers(t)
	tmpl, inst := seedPush(t, store)
	if _, err := store.CreateSessionInstanceFromTemplate(context.Background(), tmpl, "2025-03-20", ""); err != nil {
		t.Fatal(err)
	}

	res, err := h.getSchedule(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Start    string          `json:"start"`
		End      string          `json:"end"`
		Sessions []scheduleEntry `json:"sessions"`
	}
	decodeResult(t, res, &got)
	if got.Start != "2025-03-03" || got.End != "2025-03-10" {
		t.Errorf("range = %s..%s, want 2025-03-03..2025-03-10", got.Start, got.End)
	}
	if len(got.Sessions) != 1 || got.Sessions[0].ID != inst.ID {
		t.Fatalf("sessions = %+v, want only %s", got.Sessions, inst.ID)
	}
	if got.Sessions[0].Progress.TotalSets != 3 {
		t.Errorf("total sets = %d, want 3", got.Sessions[0].Progress.TotalSets)
	}
}

func TestGetScheduleInvalidRange(t *testing.T) {
	h, _ := newTestHandlers(t)
	res, err := h.getSchedule(context.Background(), callRequest(map[string]any{"start": "2025-03-10", "end": "2025-03-01"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error for inverted range")
	}
}

func TestGetSessionProgress(t *testing.T) {
	h, store := newTestHandlers(t)
	_, inst := seedPush(t, store)
	ctx := context.Background()
	if _, err := store.MarkSetCompleted(ctx, inst.ID, "bench", models.SetProgress{SetNumber: 1, Reps: models.Ptr(10), Weight: models.Ptr(80.0)}); err != nil {
		t.Fatal(err)
	}

	res, err := h.getSessionProgress(ctx, callRequest(map[string]any{"session_id": inst.ID}))
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Summary struct {
			CompletedSets int `json:"completedSets"`
			TotalSets     int `json:"totalSets"`
			Percentage    int `json:"percentage"`
		} `json:"summary"`
		Completed bool               `json:"completed"`
		Exercises []exerciseProgress `json:"exercises"`
	}
	decodeResult(t, res, &got)
	if got.Summary.CompletedSets != 1 || got.Summary.TotalSets != 3 || got.Summary.Percentage != 33 {
		t.Errorf("summary = %+v, want 1/3 at 33%%", got.Summary)
	}
	if got.Completed {
		t.Error("completed = true, want false")
	}
	bench := got.Exercises[0]
	if bench.Percentage != 50 || bench.Weight != "80kg" || bench.Rest != "2m" {
		t.Errorf("bench = %+v", bench)
	}
	if bench.Sets[0] != "completed" || bench.Sets[1] != "not_started" {
		t.Errorf("bench sets = %v", bench.Sets)
	}
}

func TestGetSessionProgressErrors(t *testing.T) {
	h, _ := newTestHandlers(t)

	res, err := h.getSessionProgress(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected error for missing session_id")
	}

	res, err = h.getSessionProgress(context.Background(), callRequest(map[string]any{"session_id": "nope"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected error for unknown session")
	}
}

func TestParsePrescriptionTool(t *testing.T) {
	h, _ := newTestHandlers(t)

	tests := []struct {
		raw       string
		formatted string
		malformed bool
	}{
		{"8-12", "8-12 reps", false},
		{"30s", "30s", false},
		{"1000 steps", "1000 steps", false},
		{"as many as possible", "Reps", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res, err := h.parsePrescription(context.Background(), callRequest(map[string]any{"raw": tt.raw}))
			if err != nil {
				t.Fatal(err)
			}
			var got struct {
				Malformed bool   `json:"malformed"`
				Formatted string `json:"formatted"`
			}
			decodeResult(t, res, &got)
			if got.Formatted != tt.formatted || got.Malformed != tt.malformed {
				t.Errorf("got %+v, want formatted=%q malformed=%v", got, tt.formatted, tt.malformed)
			}
		})
	}
}

func TestGetTrainingSummaryTool(t *testing.T) {
	h, store := newTestHandlers(t)
	_, inst := seedPush(t, store)
	if _, err := store.MarkSetCompleted(context.Background(), inst.ID, "bench", models.SetProgress{SetNumber: 1, Reps: models.Ptr(10), Weight: models.Ptr(80.0)}); err != nil {
		t.Fatal(err)
	}

	res, err := h.getTrainingSummary(context.Background(), callRequest(map[string]any{"bucket": "week"}))
	if err != nil {
		t.Fatal(err)
	}
	var got []storage.TrainingSummaryPeriod
	decodeResult(t, res, &got)
	if len(got) != 1 {
		t.Fatalf("periods = %d, want 1", len(got))
	}
	if got[0].Sessions.Scheduled != 1 {
		t.Errorf("scheduled = %d, want 1", got[0].Sessions.Scheduled)
	}
	if got[0].Strength == nil || got[0].Strength.TotalReps != 10 {
		t.Errorf("strength = %+v, want 10 reps", got[0].Strength)
	}
}

func TestTodayResource(t *testing.T) {
	h, store := newTestHandlers(t)
	seedPush(t, store)

	var req mcp.ReadResourceRequest
	req.Params.URI = "fittracker://today"
	contents, err := h.today(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	tc := contents[0].(mcp.TextResourceContents)
	if tc.URI != "fittracker://today" || tc.MIMEType != "application/json" {
		t.Errorf("contents = %+v", tc)
	}
	var got struct {
		Date     string          `json:"date"`
		Sessions []scheduleEntry `json:"sessions"`
	}
	if err := json.Unmarshal([]byte(tc.Text), &got); err != nil {
		t.Fatal(err)
	}
	if got.Date != "2025-03-03" || len(got.Sessions) != 1 {
		t.Errorf("today = %+v", got)
	}
}

func TestTemplateCatalogResource(t *testing.T) {
	h, store := newTestHandlers(t)
	seedPush(t, store)

	var req mcp.ReadResourceRequest
	req.Params.URI = "fittracker://template_catalog"
	contents, err := h.templateCatalog(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]catalogEntry
	if err := json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &got); err != nil {
		t.Fatal(err)
	}
	e, ok := got["day_1__push"]
	if !ok {
		t.Fatalf("catalog keys = %v, want day_1__push", got)
	}
	if e.ExerciseCount != 2 || e.TotalSets != 3 {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Muscles) != 2 || e.Muscles[0] != "chest" || e.Muscles[1] != "core" {
		t.Errorf("muscles = %v, want [chest core]", e.Muscles)
	}
}

// TestNewRegistersTools verifies the server constructs without panicking.
func TestNewRegistersTools(t *testing.T) {
	h, _ := newTestHandlers(t)
	if s := New(h.ds, "test", h.log); s == nil {
		t.Fatal("New returned nil")
	}
}
