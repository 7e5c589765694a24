package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/claude/fittracker/internal/estimate"
	"github.com/claude/fittracker/internal/ingest/training"
	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/storage"
	"github.com/claude/fittracker/internal/workout"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleParsePrescription(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("raw")
	p := training.ParsePrescription(raw)
	writeJSON(w, http.StatusOK, map[string]any{
		"raw":          raw,
		"prescription": p,
		"malformed":    p.Malformed(),
	})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.LoadSessionTemplates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		filtered := templates[:0]
		for _, t := range templates {
			if t.HasTag(tag) {
				filtered = append(filtered, t)
			}
		}
		templates = filtered
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetSessionTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.SessionTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	t.ID = ""
	saved, err := s.store.SaveSessionTemplate(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetSessionTemplate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	var t models.SessionTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	t.ID = id
	saved, err := s.store.SaveSessionTemplate(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSessionTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
}

func (s *Server) handleScheduleTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetSessionTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Date == "" {
		req.Date = models.FormatDate(time.Now())
	}
	inst, err := s.store.CreateSessionInstanceFromTemplate(r.Context(), t, req.Date, req.StartTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		list []models.SessionInstance
		err  error
	)
	switch {
	case q.Get("date") != "":
		list, err = s.store.SessionInstancesForDate(r.Context(), q.Get("date"))
	case q.Get("start") != "" || q.Get("end") != "":
		start, end := q.Get("start"), q.Get("end")
		if start == "" || end == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start and end parameters required"})
			return
		}
		list, err = s.store.SessionInstancesForDateRange(r.Context(), start, end)
	default:
		list, err = s.store.LoadSessionInstances(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := s.store.GetSessionInstance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handleInstanceProgress(w http.ResponseWriter, r *http.Request) {
	inst, err := s.store.GetSessionInstance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	progress, err := s.store.WorkoutProgressForSession(r.Context(), inst.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":        inst.ID,
		"progress":          progress,
		"summary":           estimate.InstanceProgress(inst, progress),
		"completed":         estimate.IsInstanceCompleted(inst, progress),
		"estimated_minutes": estimate.InstanceDuration(inst),
	})
}

func (s *Server) handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.workouts.Release(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteSessionInstance(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSkipInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// an open workout must see the change, so route through it
	if current, err := s.workouts.Current(); err == nil && current.ID() == id {
		v, err := current.Skip(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v.Instance)
		return
	}
	inst, err := s.store.SkipSessionInstance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handleRescheduleInstance(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Date == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date is required"})
		return
	}
	id := chi.URLParam(r, "id")
	// the open workout would keep completing against the old status
	if err := s.workouts.Release(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	inst, err := s.store.RescheduleSessionInstance(r.Context(), id, req.Date, req.StartTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	end := q.Get("end")
	if end == "" {
		end = models.FormatDate(time.Now())
	}
	start := q.Get("start")
	if start == "" {
		var err error
		if start, err = models.AddDays(end, -90); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	bucket := q.Get("bucket")
	if bucket == "" {
		bucket = "week"
	}
	periods, err := s.store.GetTrainingSummary(r.Context(), start, end, bucket)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, workout.ErrSessionNotFound),
		errors.Is(err, workout.ErrNoActiveWorkout),
		errors.Is(err, workout.ErrUnknownExercise):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, workout.ErrSessionFinished),
		errors.Is(err, workout.ErrSessionNotActive),
		errors.Is(err, workout.ErrMaxSets),
		errors.Is(err, workout.ErrLastSet):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrInvalid),
		errors.Is(err, workout.ErrNoExercises):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
