package models

import (
	"slices"
	"strings"
	"time"
)

// Unit is the measurement family of a prescription.
type Unit string

const (
	UnitReps    Unit = "reps"
	UnitSeconds Unit = "seconds"
	UnitSteps   Unit = "steps"
)

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	switch u {
	case UnitReps, UnitSeconds, UnitSteps:
		return true
	}
	return false
}

// DefaultRestSeconds is used whenever an exercise carries no rest time.
const DefaultRestSeconds = 60

// SessionExercise is one prescribed movement within a template.
// Only the range fields matching Unit are meaningful.
type SessionExercise struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Sets           int      `json:"sets"`
	RepsMin        *int     `json:"repsMin,omitempty"`
	RepsMax        *int     `json:"repsMax,omitempty"`
	TimeSecondsMin *int     `json:"timeSecondsMin,omitempty"`
	TimeSecondsMax *int     `json:"timeSecondsMax,omitempty"`
	StepsCount     *int     `json:"stepsCount,omitempty"`
	Unit           Unit     `json:"unit"`
	PerSide        bool     `json:"perSide"`
	Weight         *float64 `json:"weight,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	FormGuidance   string   `json:"formGuidance,omitempty"`
	MuscleGroup    string   `json:"muscleGroup"`
	MainMuscle     string   `json:"mainMuscle"`
	RestSeconds    *int     `json:"restSeconds,omitempty"`
}

// Rest returns the rest time after this exercise. Unset or non-positive
// values fall back to DefaultRestSeconds.
func (e SessionExercise) Rest() int {
	if e.RestSeconds == nil || *e.RestSeconds <= 0 {
		return DefaultRestSeconds
	}
	return *e.RestSeconds
}

// Clone returns a deep copy of e.
func (e SessionExercise) Clone() SessionExercise {
	c := e
	c.RepsMin = clonePtr(e.RepsMin)
	c.RepsMax = clonePtr(e.RepsMax)
	c.TimeSecondsMin = clonePtr(e.TimeSecondsMin)
	c.TimeSecondsMax = clonePtr(e.TimeSecondsMax)
	c.StepsCount = clonePtr(e.StepsCount)
	c.Weight = clonePtr(e.Weight)
	c.RestSeconds = clonePtr(e.RestSeconds)
	return c
}

// SessionTemplate is a reusable, editable workout definition.
// Exercise order defines execution order.
type SessionTemplate struct {
	ID                       string            `json:"id"`
	Name                     string            `json:"name"`
	Description              string            `json:"description,omitempty"`
	Exercises                []SessionExercise `json:"exercises"`
	EstimatedDurationMinutes *int              `json:"estimatedDurationMinutes,omitempty"`
	Tags                     []string          `json:"tags"`
	CreatedAt                time.Time         `json:"createdAt"`
	UpdatedAt                time.Time         `json:"updatedAt"`
}

// TemplateSnapshot is the point-in-time copy of a template held by an instance.
type TemplateSnapshot struct {
	Name                     string            `json:"name"`
	Description              string            `json:"description,omitempty"`
	Exercises                []SessionExercise `json:"exercises"`
	EstimatedDurationMinutes *int              `json:"estimatedDurationMinutes,omitempty"`
	Tags                     []string          `json:"tags"`
}

// Snapshot deep-copies the parts of t that an instance freezes at scheduling time.
func (t SessionTemplate) Snapshot() TemplateSnapshot {
	return TemplateSnapshot{
		Name:                     t.Name,
		Description:              t.Description,
		Exercises:                cloneExercises(t.Exercises),
		EstimatedDurationMinutes: clonePtr(t.EstimatedDurationMinutes),
		Tags:                     slices.Clone(nonNilTags(t.Tags)),
	}
}

// Clone returns a deep copy of t.
func (t SessionTemplate) Clone() SessionTemplate {
	c := t
	c.Exercises = cloneExercises(t.Exercises)
	c.EstimatedDurationMinutes = clonePtr(t.EstimatedDurationMinutes)
	c.Tags = slices.Clone(nonNilTags(t.Tags))
	return c
}

// HasTag reports whether t carries tag, ignoring case.
func (t SessionTemplate) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if strings.EqualFold(v, tag) {
			return true
		}
	}
	return false
}

// SessionInstance schedules a frozen copy of a template on a calendar date.
type SessionInstance struct {
	ID               string           `json:"id"`
	TemplateID       string           `json:"templateId"`
	TemplateSnapshot TemplateSnapshot `json:"templateSnapshot"`
	Date             string           `json:"date"`
	StartTime        string           `json:"startTime,omitempty"`
	Status           Status           `json:"status"`
	ScheduledAt      time.Time        `json:"scheduledAt"`
	StartedAt        *time.Time       `json:"startedAt,omitempty"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// Exercises returns the snapshot exercises in execution order.
func (i SessionInstance) Exercises() []SessionExercise {
	return i.TemplateSnapshot.Exercises
}

// TotalSets sums the prescribed sets across the snapshot.
func (i SessionInstance) TotalSets() int {
	total := 0
	for _, ex := range i.TemplateSnapshot.Exercises {
		total += ex.Sets
	}
	return total
}

// Clone returns a deep copy of i.
func (i SessionInstance) Clone() SessionInstance {
	c := i
	c.TemplateSnapshot.Exercises = cloneExercises(i.TemplateSnapshot.Exercises)
	c.TemplateSnapshot.EstimatedDurationMinutes = clonePtr(i.TemplateSnapshot.EstimatedDurationMinutes)
	c.TemplateSnapshot.Tags = slices.Clone(i.TemplateSnapshot.Tags)
	c.StartedAt = clonePtr(i.StartedAt)
	c.CompletedAt = clonePtr(i.CompletedAt)
	return c
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneExercises(in []SessionExercise) []SessionExercise {
	out := make([]SessionExercise, len(in))
	for i, ex := range in {
		out[i] = ex.Clone()
	}
	return out
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
