package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/fittracker/internal/models"
)

// SaveActiveWorkoutState overwrites the singleton resume record.
func (s *Store) SaveActiveWorkoutState(ctx context.Context, st models.ActiveWorkoutState) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("%w active workout state: %w", ErrInvalid, err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding active workout state: %w", err)
	}
	if err := s.kv.Set(ctx, s.key(collActive), data); err != nil {
		return fmt.Errorf("saving active workout state: %w", err)
	}
	return nil
}

// LoadActiveWorkoutState returns the resume record, or nil when no workout
// is active. An unreadable record is discarded and reported as absent.
func (s *Store) LoadActiveWorkoutState(ctx context.Context) (*models.ActiveWorkoutState, error) {
	data, err := s.kv.Get(ctx, s.key(collActive))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading active workout state: %w", err)
	}

	var st models.ActiveWorkoutState
	if err := json.Unmarshal(data, &st); err != nil {
		s.discard(collActive, 0, err)
		return nil, nil
	}
	if err := st.Validate(); err != nil {
		s.discard(collActive, 0, err)
		return nil, nil
	}
	return &st, nil
}

// ClearActiveWorkoutState removes the resume record.
func (s *Store) ClearActiveWorkoutState(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key(collActive)); err != nil {
		return fmt.Errorf("clearing active workout state: %w", err)
	}
	return nil
}
