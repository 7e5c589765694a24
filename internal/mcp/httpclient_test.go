package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/storage"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSessionTemplates(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/templates": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.SessionTemplate{{ID: "t1", Name: "Day 1 - Push", Tags: []string{"Push"}}})
		},
	})
	defer ts.Close()

	templates, err := NewHTTPClient(ts.URL).LoadSessionTemplates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(templates) != 1 || templates[0].ID != "t1" {
		t.Errorf("templates = %+v", templates)
	}
}

// TestSessionInstancesForDateRange verifies the HTTP client sends start/end
// query params and parses the JSON array response.
func TestSessionInstancesForDateRange(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/instances": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("start") != "2025-03-01" || q.Get("end") != "2025-03-07" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			writeTestJSON(t, w, []models.SessionInstance{{ID: "s1", Date: "2025-03-03", Status: models.StatusScheduled}})
		},
	})
	defer ts.Close()

	list, err := NewHTTPClient(ts.URL).SessionInstancesForDateRange(context.Background(), "2025-03-01", "2025-03-07")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "s1" {
		t.Errorf("instances = %+v", list)
	}
}

func TestSessionInstancesForDate(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/instances": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("date"); got != "2025-03-03" {
				t.Errorf("date=%q, want 2025-03-03", got)
			}
			writeTestJSON(t, w, []models.SessionInstance{})
		},
	})
	defer ts.Close()

	list, err := NewHTTPClient(ts.URL).SessionInstancesForDate(context.Background(), "2025-03-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("instances = %+v, want empty", list)
	}
}

// TestGetSessionInstanceNotFound verifies a 404 maps to storage.ErrNotFound.
func TestGetSessionInstanceNotFound(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/instances/missing": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			writeTestJSON(t, w, map[string]string{"error": "not found"})
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).GetSessionInstance(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestWorkoutProgressForSession verifies the progress field is unwrapped
// from the progress endpoint's envelope.
func TestWorkoutProgressForSession(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/instances/s1/progress": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, map[string]any{
				"session_id": "s1",
				"progress": []models.WorkoutProgress{
					{SessionID: "s1", ExerciseID: "bench", Sets: []models.SetProgress{{SetNumber: 1, Completed: true}}},
				},
			})
		},
	})
	defer ts.Close()

	progress, err := NewHTTPClient(ts.URL).WorkoutProgressForSession(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(progress) != 1 || progress[0].ExerciseID != "bench" || !progress[0].Sets[0].Completed {
		t.Errorf("progress = %+v", progress)
	}
}

func TestGetTrainingSummary(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/training-summary": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("bucket"); got != "month" {
				t.Errorf("bucket=%q, want month", got)
			}
			writeTestJSON(t, w, []storage.TrainingSummaryPeriod{
				{Period: "2025-03-01", Sessions: storage.SessionCounts{Completed: 4}},
			})
		},
	})
	defer ts.Close()

	periods, err := NewHTTPClient(ts.URL).GetTrainingSummary(context.Background(), "2025-01-01", "2025-03-31", "month")
	if err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 || periods[0].Sessions.Completed != 4 {
		t.Errorf("periods = %+v", periods)
	}
}

// TestServerError verifies non-200 responses surface as errors.
func TestServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL).GetDataStats(context.Background()); err == nil {
		t.Error("expected error for 500 response")
	}
}

// TestHTTPClientAsDataSource runs a tool handler against the remote client.
func TestHTTPClientAsDataSource(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, storage.DataStats{TotalTemplates: 3, TotalInstances: 7})
		},
	})
	defer ts.Close()

	h, _ := newTestHandlers(t)
	h.ds = NewHTTPClient(ts.URL + "/")

	res, err := h.getDataStats(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	var got storage.DataStats
	decodeResult(t, res, &got)
	if got.TotalTemplates != 3 || got.TotalInstances != 7 {
		t.Errorf("stats = %+v", got)
	}
}
