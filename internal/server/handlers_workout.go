package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/claude/fittracker/internal/workout"
	"github.com/go-chi/chi/v5"
)

// handleCurrentWorkout returns the open workout, resuming it from the
// stored record after a restart.
func (s *Server) handleCurrentWorkout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.workouts.Current()
	if errors.Is(err, workout.ErrNoActiveWorkout) {
		sess, err = s.workouts.Resume(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleOpenWorkout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.workouts.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// workoutAction adapts a session method that takes no input to a handler.
func (s *Server) workoutAction(fn func(*workout.Session, context.Context) (workout.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessionFor(w, r)
		if !ok {
			return
		}
		v, err := fn(sess, r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	in, ok := decodeSetInput(w, r)
	if !ok {
		return
	}
	v, err := sess.CompleteSet(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	var fn func(*workout.Session, context.Context) (workout.View, error)
	switch chi.URLParam(r, "action") {
	case "rest":
		fn = (*workout.Session).StartRestTimer
	case "stopwatch":
		fn = (*workout.Session).StartStopwatch
	case "stop":
		fn = (*workout.Session).StopTimer
	case "toggle":
		fn = (*workout.Session).ToggleTimer
	case "reset":
		fn = (*workout.Session).ResetTimer
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown timer action"})
		return
	}
	s.workoutAction(fn)(w, r)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	v, err := sess.AddSet(r.Context(), chi.URLParam(r, "exerciseId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	setNumber, ok := setNumberParam(w, r)
	if !ok {
		return
	}
	in, ok := decodeSetInput(w, r)
	if !ok {
		return
	}
	v, err := sess.UpdateSet(r.Context(), chi.URLParam(r, "exerciseId"), setNumber, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	setNumber, ok := setNumberParam(w, r)
	if !ok {
		return
	}
	v, err := sess.ToggleSet(r.Context(), chi.URLParam(r, "exerciseId"), setNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	setNumber, ok := setNumberParam(w, r)
	if !ok {
		return
	}
	v, err := sess.RemoveSet(r.Context(), chi.URLParam(r, "exerciseId"), setNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleExitWorkout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.workouts.Current()
	if err != nil || sess.ID() != chi.URLParam(r, "id") {
		writeError(w, workout.ErrNoActiveWorkout)
		return
	}
	if err := s.workouts.Exit(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionFor returns the open session for the {id} parameter, opening it
// when another (or none) is open.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*workout.Session, bool) {
	sess, err := s.workouts.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

// decodeSetInput reads an optional JSON body; an empty body means "use the
// prefilled values".
func decodeSetInput(w http.ResponseWriter, r *http.Request) (workout.SetInput, bool) {
	var in workout.SetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return in, false
	}
	return in, true
}

func setNumberParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "setNumber"))
	if err != nil || n < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set number"})
		return 0, false
	}
	return n, true
}
