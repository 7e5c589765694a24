package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxTemplateName        = 100
	maxTemplateDescription = 500
	maxInstanceNotes       = 1000
)

// Normalize fills defaults for optional fields missing from stored records.
func (e *SessionExercise) Normalize() {
	if e.Unit == "" {
		e.Unit = UnitReps
	}
}

// Validate checks the exercise shape and its range invariants.
func (e SessionExercise) Validate() error {
	var errs []error
	if e.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if e.Sets < 1 {
		errs = append(errs, fmt.Errorf("sets must be at least 1, got %d", e.Sets))
	}
	if !e.Unit.Valid() {
		errs = append(errs, fmt.Errorf("unknown unit %q", e.Unit))
	}
	errs = append(errs, checkRange("reps", e.RepsMin, e.RepsMax)...)
	errs = append(errs, checkRange("timeSeconds", e.TimeSecondsMin, e.TimeSecondsMax)...)
	if e.StepsCount != nil && *e.StepsCount < 1 {
		errs = append(errs, fmt.Errorf("stepsCount must be at least 1, got %d", *e.StepsCount))
	}
	if e.Weight != nil && *e.Weight < 0 {
		errs = append(errs, fmt.Errorf("weight must not be negative, got %g", *e.Weight))
	}
	if e.RestSeconds != nil && *e.RestSeconds < 0 {
		errs = append(errs, fmt.Errorf("restSeconds must not be negative, got %d", *e.RestSeconds))
	}
	if strings.TrimSpace(e.MuscleGroup) == "" {
		errs = append(errs, errors.New("muscleGroup is required"))
	}
	if strings.TrimSpace(e.MainMuscle) == "" {
		errs = append(errs, errors.New("mainMuscle is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("exercise %q: %w", e.Name, err)
	}
	return nil
}

func checkRange(name string, lo, hi *int) []error {
	var errs []error
	if lo != nil && *lo < 1 {
		errs = append(errs, fmt.Errorf("%sMin must be at least 1, got %d", name, *lo))
	}
	if hi != nil && *hi < 1 {
		errs = append(errs, fmt.Errorf("%sMax must be at least 1, got %d", name, *hi))
	}
	if lo != nil && hi != nil && *lo > *hi {
		errs = append(errs, fmt.Errorf("%sMin %d exceeds %sMax %d", name, *lo, name, *hi))
	}
	return errs
}

// Normalize fills defaults for optional fields missing from stored records.
func (t *SessionTemplate) Normalize() {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Exercises == nil {
		t.Exercises = []SessionExercise{}
	}
	for i := range t.Exercises {
		t.Exercises[i].Normalize()
	}
}

// Validate checks the template and every embedded exercise.
func (t SessionTemplate) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if len(t.Exercises) == 0 {
		errs = append(errs, errors.New("at least one exercise is required"))
	}
	errs = append(errs, validateSnapshotFields(t.Name, t.Description, t.Exercises)...)
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("template %q: %w", t.Name, err)
	}
	return nil
}

func validateSnapshotFields(name, description string, exercises []SessionExercise) []error {
	var errs []error
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 || n > maxTemplateName {
		errs = append(errs, fmt.Errorf("name must be 1-%d characters", maxTemplateName))
	}
	if utf8.RuneCountInString(description) > maxTemplateDescription {
		errs = append(errs, fmt.Errorf("description must be at most %d characters", maxTemplateDescription))
	}
	for _, ex := range exercises {
		if err := ex.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Normalize fills defaults for optional fields missing from stored records.
func (i *SessionInstance) Normalize() {
	if i.Status == "" {
		i.Status = StatusScheduled
	}
	if i.TemplateSnapshot.Tags == nil {
		i.TemplateSnapshot.Tags = []string{}
	}
	if i.TemplateSnapshot.Exercises == nil {
		i.TemplateSnapshot.Exercises = []SessionExercise{}
	}
	for n := range i.TemplateSnapshot.Exercises {
		i.TemplateSnapshot.Exercises[n].Normalize()
	}
}

// Validate checks the instance, its calendar fields and its snapshot.
func (i SessionInstance) Validate() error {
	var errs []error
	if i.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if _, err := ParseDate(i.Date); err != nil {
		errs = append(errs, err)
	}
	if i.StartTime != "" && !ValidStartTime(i.StartTime) {
		errs = append(errs, fmt.Errorf("startTime %q is not HH:MM", i.StartTime))
	}
	if !i.Status.Valid() {
		errs = append(errs, fmt.Errorf("unknown status %q", i.Status))
	}
	if utf8.RuneCountInString(i.Notes) > maxInstanceNotes {
		errs = append(errs, fmt.Errorf("notes must be at most %d characters", maxInstanceNotes))
	}
	s := i.TemplateSnapshot
	errs = append(errs, validateSnapshotFields(s.Name, s.Description, s.Exercises)...)
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("instance %s: %w", i.ID, err)
	}
	return nil
}

// Normalize fills defaults for optional fields missing from stored records.
func (p *WorkoutProgress) Normalize() {
	if p.Sets == nil {
		p.Sets = []SetProgress{}
	}
}

// Validate checks ids and set numbering.
func (p WorkoutProgress) Validate() error {
	var errs []error
	if p.SessionID == "" {
		errs = append(errs, errors.New("sessionId is required"))
	}
	if p.ExerciseID == "" {
		errs = append(errs, errors.New("exerciseId is required"))
	}
	seen := make(map[int]bool, len(p.Sets))
	for _, s := range p.Sets {
		if s.SetNumber < 1 {
			errs = append(errs, fmt.Errorf("setNumber must be at least 1, got %d", s.SetNumber))
			continue
		}
		if seen[s.SetNumber] {
			errs = append(errs, fmt.Errorf("duplicate setNumber %d", s.SetNumber))
		}
		seen[s.SetNumber] = true
		if s.Weight != nil && *s.Weight < 0 {
			errs = append(errs, fmt.Errorf("set %d weight must not be negative", s.SetNumber))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("progress %s/%s: %w", p.SessionID, p.ExerciseID, err)
	}
	return nil
}

// Validate checks the cursor and timer fields.
func (a ActiveWorkoutState) Validate() error {
	var errs []error
	if a.SessionID == "" {
		errs = append(errs, errors.New("sessionId is required"))
	}
	if a.CurrentExerciseIndex < 0 || a.CurrentSetIndex < 0 {
		errs = append(errs, errors.New("cursor indexes must not be negative"))
	}
	if t := a.TimerState; t != nil {
		if t.Type != TimerRest && t.Type != TimerStopwatch {
			errs = append(errs, fmt.Errorf("unknown timer type %q", t.Type))
		}
		if t.Duration < 0 || t.Seconds < 0 {
			errs = append(errs, errors.New("timer values must not be negative"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("active workout: %w", err)
	}
	return nil
}
