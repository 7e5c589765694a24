package storage

import (
	"context"
	"fmt"

	"github.com/claude/fittracker/internal/models"
)

// LoadSessionTemplates returns every stored template in insertion order.
func (s *Store) LoadSessionTemplates(ctx context.Context) ([]models.SessionTemplate, error) {
	return loadList[models.SessionTemplate](ctx, s, collTemplates)
}

// GetSessionTemplate returns the template with the given id.
func (s *Store) GetSessionTemplate(ctx context.Context, id string) (models.SessionTemplate, error) {
	list, err := s.LoadSessionTemplates(ctx)
	if err != nil {
		return models.SessionTemplate{}, err
	}
	for _, t := range list {
		if t.ID == id {
			return t, nil
		}
	}
	return models.SessionTemplate{}, fmt.Errorf("template %s: %w", id, ErrNotFound)
}

// SaveSessionTemplate creates a template when t has no id and otherwise
// replaces the stored one in place, appending if the id is unknown.
// UpdatedAt is refreshed on every save.
func (s *Store) SaveSessionTemplate(ctx context.Context, t models.SessionTemplate) (models.SessionTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.LoadSessionTemplates(ctx)
	if err != nil {
		return models.SessionTemplate{}, err
	}

	t = t.Clone()
	now := s.now()
	if t.ID == "" {
		t.ID = s.newID()
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	for i := range t.Exercises {
		if t.Exercises[i].ID == "" {
			t.Exercises[i].ID = s.newID()
		}
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return models.SessionTemplate{}, fmt.Errorf("%w template: %w", ErrInvalid, err)
	}

	replaced := false
	for i := range list {
		if list[i].ID == t.ID {
			if t.CreatedAt.IsZero() {
				t.CreatedAt = list[i].CreatedAt
			}
			list[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		list = append(list, t)
	}

	if err := saveList(ctx, s, collTemplates, list); err != nil {
		return models.SessionTemplate{}, err
	}
	s.metrics.CounterTemplatesSaved.Inc()
	return t.Clone(), nil
}

// DeleteSessionTemplate removes a template. Instances already scheduled
// from it keep their snapshot.
func (s *Store) DeleteSessionTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.LoadSessionTemplates(ctx)
	if err != nil {
		return err
	}
	out := list[:0]
	for _, t := range list {
		if t.ID != id {
			out = append(out, t)
		}
	}
	if len(out) == len(list) {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return saveList(ctx, s, collTemplates, out)
}
