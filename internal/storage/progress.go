package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/fittracker/internal/models"
)

// LoadWorkoutProgress returns every progress record.
func (s *Store) LoadWorkoutProgress(ctx context.Context) ([]models.WorkoutProgress, error) {
	return loadList[models.WorkoutProgress](ctx, s, collProgress)
}

// WorkoutProgressForSession returns the progress records of one instance.
func (s *Store) WorkoutProgressForSession(ctx context.Context, sessionID string) ([]models.WorkoutProgress, error) {
	list, err := s.LoadWorkoutProgress(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.WorkoutProgress{}
	for _, p := range list {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ExerciseProgress returns the record for (sessionID, exerciseID), or nil
// when none has been written yet.
func (s *Store) ExerciseProgress(ctx context.Context, sessionID, exerciseID string) (*models.WorkoutProgress, error) {
	list, err := s.WorkoutProgressForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if p := models.FindProgress(list, exerciseID); p != nil {
		c := p.Clone()
		return &c, nil
	}
	return nil, nil
}

// SaveWorkoutProgress upserts p by (SessionID, ExerciseID).
func (s *Store) SaveWorkoutProgress(ctx context.Context, p models.WorkoutProgress) (models.WorkoutProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveProgress(ctx, p)
}

func (s *Store) saveProgress(ctx context.Context, p models.WorkoutProgress) (models.WorkoutProgress, error) {
	p = p.Clone()
	if p.StartedAt.IsZero() {
		p.StartedAt = s.now()
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return models.WorkoutProgress{}, fmt.Errorf("%w progress: %w", ErrInvalid, err)
	}

	list, err := s.LoadWorkoutProgress(ctx)
	if err != nil {
		return models.WorkoutProgress{}, err
	}
	list = models.ReplaceProgress(list, p)
	if err := saveList(ctx, s, collProgress, list); err != nil {
		return models.WorkoutProgress{}, err
	}
	return p.Clone(), nil
}

// MarkSetCompleted records set.SetNumber of an exercise as performed with
// the values carried by set, creating the record and any missing earlier
// sets as needed.
func (s *Store) MarkSetCompleted(ctx context.Context, sessionID, exerciseID string, set models.SetProgress) (models.WorkoutProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, err := s.progressOrNew(ctx, sessionID, exerciseID, now)
	if err != nil {
		return models.WorkoutProgress{}, err
	}

	sp := p.Set(set.SetNumber)
	sp.Reps = set.Reps
	sp.TimeSeconds = set.TimeSeconds
	sp.Steps = set.Steps
	sp.Weight = set.Weight
	sp.RestTimerUsed = set.RestTimerUsed
	sp.Completed = true
	sp.CompletedAt = &now

	saved, err := s.saveProgress(ctx, p)
	if err != nil {
		return models.WorkoutProgress{}, err
	}
	s.metrics.CounterSetsCompleted.Inc()
	return saved, nil
}

// MarkExerciseCompleted stamps CompletedAt on the exercise's progress record.
func (s *Store) MarkExerciseCompleted(ctx context.Context, sessionID, exerciseID string) (models.WorkoutProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, err := s.progressOrNew(ctx, sessionID, exerciseID, now)
	if err != nil {
		return models.WorkoutProgress{}, err
	}
	p.CompletedAt = &now
	return s.saveProgress(ctx, p)
}

func (s *Store) progressOrNew(ctx context.Context, sessionID, exerciseID string, now time.Time) (models.WorkoutProgress, error) {
	list, err := s.WorkoutProgressForSession(ctx, sessionID)
	if err != nil {
		return models.WorkoutProgress{}, err
	}
	if p := models.FindProgress(list, exerciseID); p != nil {
		return p.Clone(), nil
	}
	return models.NewWorkoutProgress(sessionID, exerciseID, now), nil
}
