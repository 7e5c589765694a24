package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func sampleTemplate() SessionTemplate {
	return SessionTemplate{
		ID:          "tpl-1",
		Name:        "Day 1 - Push",
		Description: "1 exercises targeting push",
		Exercises: []SessionExercise{{
			ID:          "ex-1",
			Name:        "Bench Press",
			Sets:        4,
			RepsMin:     Ptr(8),
			RepsMax:     Ptr(12),
			Unit:        UnitReps,
			Weight:      Ptr(80.0),
			MuscleGroup: "Chest",
			MainMuscle:  "Upper Chest",
			RestSeconds: Ptr(180),
		}},
		EstimatedDurationMinutes: Ptr(19),
		Tags:                     []string{"Push"},
	}
}

// TestSnapshotIsDeepCopy verifies that mutating a template after taking a
// snapshot leaves the snapshot untouched, including pointer fields and tags.
func TestSnapshotIsDeepCopy(t *testing.T) {
	tpl := sampleTemplate()
	snap := tpl.Snapshot()

	tpl.Name = "Renamed"
	*tpl.Exercises[0].RepsMin = 1
	*tpl.Exercises[0].Weight = 200
	tpl.Exercises[0].Name = "Incline Press"
	tpl.Exercises = append(tpl.Exercises, SessionExercise{ID: "ex-2"})
	tpl.Tags[0] = "Pull"
	*tpl.EstimatedDurationMinutes = 99

	if snap.Name != "Day 1 - Push" {
		t.Errorf("snapshot name = %q, want %q", snap.Name, "Day 1 - Push")
	}
	if len(snap.Exercises) != 1 {
		t.Fatalf("snapshot exercises = %d, want 1", len(snap.Exercises))
	}
	if got := *snap.Exercises[0].RepsMin; got != 8 {
		t.Errorf("snapshot repsMin = %d, want 8", got)
	}
	if got := *snap.Exercises[0].Weight; got != 80 {
		t.Errorf("snapshot weight = %g, want 80", got)
	}
	if snap.Exercises[0].Name != "Bench Press" {
		t.Errorf("snapshot exercise name = %q, want %q", snap.Exercises[0].Name, "Bench Press")
	}
	if snap.Tags[0] != "Push" {
		t.Errorf("snapshot tag = %q, want %q", snap.Tags[0], "Push")
	}
	if *snap.EstimatedDurationMinutes != 19 {
		t.Errorf("snapshot duration = %d, want 19", *snap.EstimatedDurationMinutes)
	}
}

// TestRestDefault verifies the 60 second fallback for unset or zero rest.
func TestRestDefault(t *testing.T) {
	tests := []struct {
		name string
		rest *int
		want int
	}{
		{"unset", nil, 60},
		{"zero", Ptr(0), 60},
		{"explicit", Ptr(90), 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (SessionExercise{RestSeconds: tt.rest}).Rest(); got != tt.want {
				t.Errorf("Rest() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestTemplateJSONShape verifies the camelCase field names used in the stored collections.
func TestTemplateJSONShape(t *testing.T) {
	tpl := sampleTemplate()
	data, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "name", "exercises", "estimatedDurationMinutes", "tags", "createdAt", "updatedAt"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	ex := raw["exercises"].([]any)[0].(map[string]any)
	for _, key := range []string{"repsMin", "repsMax", "perSide", "muscleGroup", "mainMuscle", "restSeconds"} {
		if _, ok := ex[key]; !ok {
			t.Errorf("missing exercise key %q", key)
		}
	}
	if _, ok := ex["timeSecondsMin"]; ok {
		t.Error("timeSecondsMin should be omitted for a reps exercise")
	}
}

// TestStatusTransitions verifies the one-directional life cycle.
func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusSkipped, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusSkipped, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusSkipped, StatusInProgress, false},
		{StatusCompleted, StatusScheduled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	err := StatusCompleted.CheckTransition(StatusSkipped)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("CheckTransition error = %v, want ErrInvalidTransition", err)
	}
	if StatusCompleted.CanReschedule() {
		t.Error("completed instance should not be reschedulable")
	}
	if !StatusSkipped.CanReschedule() {
		t.Error("skipped instance should be reschedulable")
	}
}

// TestSetBackfill verifies that touching set 3 first creates empty sets 1 and 2.
func TestSetBackfill(t *testing.T) {
	p := NewWorkoutProgress("s1", "e1", time.Now())
	s := p.Set(3)
	if s == nil || s.SetNumber != 3 {
		t.Fatalf("Set(3) = %+v, want set number 3", s)
	}
	if len(p.Sets) != 3 {
		t.Fatalf("len(sets) = %d, want 3", len(p.Sets))
	}
	for i, set := range p.Sets {
		if set.SetNumber != i+1 {
			t.Errorf("sets[%d].SetNumber = %d, want %d", i, set.SetNumber, i+1)
		}
		if set.Completed {
			t.Errorf("sets[%d] should be an empty placeholder", i)
		}
	}

	// A lower set number after backfill must not add anything.
	p.Set(2)
	if len(p.Sets) != 3 {
		t.Errorf("len(sets) after Set(2) = %d, want 3", len(p.Sets))
	}
}

// TestReplaceProgress verifies replace-by-exercise semantics.
func TestReplaceProgress(t *testing.T) {
	list := []WorkoutProgress{
		{SessionID: "s1", ExerciseID: "a"},
		{SessionID: "s1", ExerciseID: "b"},
	}
	list = ReplaceProgress(list, WorkoutProgress{SessionID: "s1", ExerciseID: "a", Notes: "updated"})
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if got := FindProgress(list, "a").Notes; got != "updated" {
		t.Errorf("notes = %q, want %q", got, "updated")
	}
	list = ReplaceProgress(list, WorkoutProgress{SessionID: "s1", ExerciseID: "c"})
	if len(list) != 3 {
		t.Errorf("len after insert = %d, want 3", len(list))
	}
	if FindProgress(list, "zzz") != nil {
		t.Error("FindProgress for unknown id should be nil")
	}
}

// TestTimerResume verifies how a persisted timer is restored after a reload.
func TestTimerResume(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	rest := TimerState{Type: TimerRest, StartTime: start, Duration: 90, IsRunning: true}
	if sec, running := rest.Resume(start.Add(30 * time.Second)); sec != 60 || !running {
		t.Errorf("rest after 30s = (%d, %v), want (60, true)", sec, running)
	}
	if sec, running := rest.Resume(start.Add(2 * time.Minute)); sec != 0 || running {
		t.Errorf("expired rest = (%d, %v), want (0, false)", sec, running)
	}

	sw := TimerState{Type: TimerStopwatch, StartTime: start, IsRunning: true}
	if sec, running := sw.Resume(start.Add(45 * time.Second)); sec != 45 || !running {
		t.Errorf("stopwatch = (%d, %v), want (45, true)", sec, running)
	}

	paused := TimerState{Type: TimerRest, StartTime: start, Duration: 90, Seconds: 42}
	if sec, running := paused.Resume(start.Add(time.Hour)); sec != 42 || running {
		t.Errorf("paused = (%d, %v), want (42, false)", sec, running)
	}
}

// TestDates verifies calendar helpers.
func TestDates(t *testing.T) {
	got, err := AddDays("2025-02-27", 3)
	if err != nil {
		t.Fatalf("AddDays: %v", err)
	}
	if got != "2025-03-02" {
		t.Errorf("AddDays = %q, want %q", got, "2025-03-02")
	}
	if _, err := AddDays("27/02/2025", 1); err == nil {
		t.Error("expected error for non ISO date")
	}

	// 2025-03-05 is a Wednesday.
	week := WeekDates(time.Date(2025, 3, 5, 12, 0, 0, 0, time.Local))
	if week[0] != "2025-03-02" || week[6] != "2025-03-08" {
		t.Errorf("WeekDates = %v, want 2025-03-02..2025-03-08", week)
	}

	if !ValidStartTime("07:30") {
		t.Error("07:30 should be valid")
	}
	if ValidStartTime("25:00") || ValidStartTime("7:30") {
		t.Error("25:00 and 7:30 should be invalid")
	}
}

// TestPrescriptionMalformed verifies the malformed signal.
func TestPrescriptionMalformed(t *testing.T) {
	if !(Prescription{Unit: UnitReps}).Malformed() {
		t.Error("empty reps prescription should be malformed")
	}
	if (Prescription{Unit: UnitReps, RepsMin: Ptr(5), RepsMax: Ptr(5)}).Malformed() {
		t.Error("5 reps should not be malformed")
	}
	if (Prescription{Unit: UnitSteps, StepsCount: Ptr(10)}).Malformed() {
		t.Error("steps should not be malformed")
	}
}
