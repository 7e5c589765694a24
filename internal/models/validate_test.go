package models

import (
	"strings"
	"testing"
	"time"
)

// TestValidateTemplate verifies that a well-formed template passes validation.
func TestValidateTemplate(t *testing.T) {
	if err := sampleTemplate().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestValidateExerciseRange verifies that inverted ranges and zero sets are rejected
// and that every issue is reported, not only the first.
func TestValidateExerciseRange(t *testing.T) {
	ex := sampleTemplate().Exercises[0]
	ex.RepsMin = Ptr(12)
	ex.RepsMax = Ptr(8)
	ex.Sets = 0

	err := ex.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "repsMin 12 exceeds repsMax 8") {
		t.Errorf("error %q should mention the inverted range", msg)
	}
	if !strings.Contains(msg, "sets must be at least 1") {
		t.Errorf("error %q should mention sets", msg)
	}
}

// TestValidateTemplateName verifies the 100 character name limit.
func TestValidateTemplateName(t *testing.T) {
	tpl := sampleTemplate()
	tpl.Name = strings.Repeat("x", 101)
	if err := tpl.Validate(); err == nil {
		t.Error("expected error for long name")
	}
	tpl.Name = "  "
	if err := tpl.Validate(); err == nil {
		t.Error("expected error for blank name")
	}
}

// TestValidateInstance verifies calendar and status checks on instances.
func TestValidateInstance(t *testing.T) {
	inst := SessionInstance{
		ID:               "i1",
		TemplateID:       "tpl-1",
		TemplateSnapshot: sampleTemplate().Snapshot(),
		Date:             "2025-03-01",
		StartTime:        "18:00",
		Status:           StatusScheduled,
		ScheduledAt:      time.Now(),
	}
	if err := inst.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := inst
	bad.Date = "March 1"
	bad.StartTime = "6pm"
	bad.Status = "done"
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"YYYY-MM-DD", "HH:MM", "unknown status"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should contain %q", err, want)
		}
	}
}

// TestNormalizeDefaults verifies defaulting of fields missing from older records.
func TestNormalizeDefaults(t *testing.T) {
	inst := SessionInstance{TemplateSnapshot: TemplateSnapshot{
		Exercises: []SessionExercise{{Name: "Plank"}},
	}}
	inst.Normalize()
	if inst.Status != StatusScheduled {
		t.Errorf("status = %q, want %q", inst.Status, StatusScheduled)
	}
	if inst.TemplateSnapshot.Tags == nil {
		t.Error("tags should default to empty slice")
	}
	if inst.TemplateSnapshot.Exercises[0].Unit != UnitReps {
		t.Errorf("unit = %q, want reps", inst.TemplateSnapshot.Exercises[0].Unit)
	}
}

// TestValidateProgressDuplicateSets verifies set numbers must be unique.
func TestValidateProgressDuplicateSets(t *testing.T) {
	p := WorkoutProgress{
		SessionID:  "s1",
		ExerciseID: "e1",
		Sets:       []SetProgress{{SetNumber: 1}, {SetNumber: 1}},
	}
	if err := p.Validate(); err == nil {
		t.Error("expected error for duplicate set numbers")
	}
}

// TestValidateActiveState verifies the timer type check.
func TestValidateActiveState(t *testing.T) {
	a := ActiveWorkoutState{SessionID: "s1", TimerState: &TimerState{Type: "lap"}}
	if err := a.Validate(); err == nil {
		t.Error("expected error for unknown timer type")
	}
	a.TimerState.Type = TimerStopwatch
	if err := a.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
