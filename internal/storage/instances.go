package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/claude/fittracker/internal/models"
)

// LoadSessionInstances returns every stored instance.
func (s *Store) LoadSessionInstances(ctx context.Context) ([]models.SessionInstance, error) {
	return loadList[models.SessionInstance](ctx, s, collInstances)
}

// GetSessionInstance returns the instance with the given id.
func (s *Store) GetSessionInstance(ctx context.Context, id string) (models.SessionInstance, error) {
	list, err := s.LoadSessionInstances(ctx)
	if err != nil {
		return models.SessionInstance{}, err
	}
	for _, inst := range list {
		if inst.ID == id {
			return inst, nil
		}
	}
	return models.SessionInstance{}, fmt.Errorf("session instance %s: %w", id, ErrNotFound)
}

// CreateSessionInstanceFromTemplate schedules t on date. The instance
// carries a deep copy of the template, so later template edits never
// reach it.
func (s *Store) CreateSessionInstanceFromTemplate(ctx context.Context, t models.SessionTemplate, date, startTime string) (models.SessionInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := models.SessionInstance{
		ID:               s.newID(),
		TemplateID:       t.ID,
		TemplateSnapshot: t.Snapshot(),
		Date:             date,
		StartTime:        startTime,
		Status:           models.StatusScheduled,
		ScheduledAt:      s.now(),
	}
	inst.Normalize()
	if err := inst.Validate(); err != nil {
		return models.SessionInstance{}, fmt.Errorf("%w instance: %w", ErrInvalid, err)
	}

	list, err := s.LoadSessionInstances(ctx)
	if err != nil {
		return models.SessionInstance{}, err
	}
	list = append(list, inst)
	if err := saveList(ctx, s, collInstances, list); err != nil {
		return models.SessionInstance{}, err
	}
	s.log.Debug("session scheduled", "session_id", inst.ID, "template_id", t.ID, "date", date)
	return inst.Clone(), nil
}

// SaveSessionInstance upserts inst by id.
func (s *Store) SaveSessionInstance(ctx context.Context, inst models.SessionInstance) (models.SessionInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveInstance(ctx, inst)
}

func (s *Store) saveInstance(ctx context.Context, inst models.SessionInstance) (models.SessionInstance, error) {
	inst = inst.Clone()
	if inst.ID == "" {
		inst.ID = s.newID()
	}
	if inst.ScheduledAt.IsZero() {
		inst.ScheduledAt = s.now()
	}
	inst.Normalize()
	if err := inst.Validate(); err != nil {
		return models.SessionInstance{}, fmt.Errorf("%w instance: %w", ErrInvalid, err)
	}

	list, err := s.LoadSessionInstances(ctx)
	if err != nil {
		return models.SessionInstance{}, err
	}
	replaced := false
	for i := range list {
		if list[i].ID == inst.ID {
			list[i] = inst
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, inst)
	}
	if err := saveList(ctx, s, collInstances, list); err != nil {
		return models.SessionInstance{}, err
	}
	return inst.Clone(), nil
}

// DeleteSessionInstance removes an instance together with its progress records.
func (s *Store) DeleteSessionInstance(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.LoadSessionInstances(ctx)
	if err != nil {
		return err
	}
	out := list[:0]
	for _, inst := range list {
		if inst.ID != id {
			out = append(out, inst)
		}
	}
	if len(out) == len(list) {
		return fmt.Errorf("session instance %s: %w", id, ErrNotFound)
	}
	if err := saveList(ctx, s, collInstances, out); err != nil {
		return err
	}

	progress, err := s.LoadWorkoutProgress(ctx)
	if err != nil {
		return err
	}
	kept := progress[:0]
	for _, p := range progress {
		if p.SessionID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(progress) {
		return nil
	}
	return saveList(ctx, s, collProgress, kept)
}

// SessionInstancesForDate returns the instances scheduled on date, ordered by start time.
func (s *Store) SessionInstancesForDate(ctx context.Context, date string) ([]models.SessionInstance, error) {
	return s.SessionInstancesForDateRange(ctx, date, date)
}

// SessionInstancesForDateRange returns instances with start <= date <= end,
// ordered by date then start time.
func (s *Store) SessionInstancesForDateRange(ctx context.Context, start, end string) ([]models.SessionInstance, error) {
	list, err := s.LoadSessionInstances(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.SessionInstance{}
	for _, inst := range list {
		if inst.Date >= start && inst.Date <= end {
			out = append(out, inst)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// UpdateSessionStatus moves an instance to next, stamping StartedAt on the
// first move to in_progress and CompletedAt on completion.
func (s *Store) UpdateSessionStatus(ctx context.Context, id string, next models.Status) (models.SessionInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, err := s.GetSessionInstance(ctx, id)
	if err != nil {
		return models.SessionInstance{}, err
	}
	if err := inst.Status.CheckTransition(next); err != nil {
		return models.SessionInstance{}, fmt.Errorf("session instance %s: %w", id, err)
	}

	now := s.now()
	inst.Status = next
	switch next {
	case models.StatusInProgress:
		if inst.StartedAt == nil {
			inst.StartedAt = &now
		}
	case models.StatusCompleted:
		inst.CompletedAt = &now
	}

	saved, err := s.saveInstance(ctx, inst)
	if err != nil {
		return models.SessionInstance{}, err
	}
	s.metrics.CounterSessions.WithLabelValues(string(next)).Inc()
	s.log.Info("session status changed", "session_id", id, "status", next)
	return saved, nil
}

// SkipSessionInstance marks a scheduled or running instance as skipped.
func (s *Store) SkipSessionInstance(ctx context.Context, id string) (models.SessionInstance, error) {
	return s.UpdateSessionStatus(ctx, id, models.StatusSkipped)
}

// RescheduleSessionInstance moves an instance to another date and puts it
// back into the scheduled state. Completed instances cannot be moved.
func (s *Store) RescheduleSessionInstance(ctx context.Context, id, date, startTime string) (models.SessionInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, err := s.GetSessionInstance(ctx, id)
	if err != nil {
		return models.SessionInstance{}, err
	}
	if !inst.Status.CanReschedule() {
		return models.SessionInstance{}, fmt.Errorf("session instance %s: %w: %s sessions cannot be rescheduled",
			id, models.ErrInvalidTransition, inst.Status)
	}

	inst.Date = date
	inst.StartTime = startTime
	inst.Status = models.StatusScheduled
	inst.StartedAt = nil
	inst.ScheduledAt = s.now()
	return s.saveInstance(ctx, inst)
}
