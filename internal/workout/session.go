package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/fittracker/internal/estimate"
	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/storage"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoExercises      = errors.New("session has no exercises")
	ErrSessionFinished  = errors.New("session already finished")
	ErrUnknownExercise  = errors.New("exercise not in session")
	ErrSessionNotActive = errors.New("session is not active")
)

// Store is the persistence a workout session needs.
type Store interface {
	GetSessionInstance(ctx context.Context, id string) (models.SessionInstance, error)
	UpdateSessionStatus(ctx context.Context, id string, next models.Status) (models.SessionInstance, error)
	WorkoutProgressForSession(ctx context.Context, sessionID string) ([]models.WorkoutProgress, error)
	SaveWorkoutProgress(ctx context.Context, p models.WorkoutProgress) (models.WorkoutProgress, error)
	SaveActiveWorkoutState(ctx context.Context, st models.ActiveWorkoutState) error
	LoadActiveWorkoutState(ctx context.Context) (*models.ActiveWorkoutState, error)
	ClearActiveWorkoutState(ctx context.Context) error
}

// Options tune a Session. Zero values fall back to defaults.
type Options struct {
	Now          func() time.Time
	TickInterval time.Duration
	MaxSets      int
	DefaultRest  int
	Metrics      *metrics.Manager
}

// Session drives the execution of one session instance: the exercise/set
// cursor, the timer, progress writes and the resume record.
type Session struct {
	store   Store
	log     *slog.Logger
	metrics *metrics.Manager
	now     func() time.Time
	maxSets int
	rest    int

	mu            sync.Mutex
	instance      models.SessionInstance
	progress      []models.WorkoutProgress
	exerciseIndex int
	setIndex      int
	started       bool
	startedAt     time.Time
	finished      bool
	closed        bool
	timer         *Timer
}

// View is a read model of the session for presentation.
type View struct {
	Instance             models.SessionInstance   `json:"instance"`
	Started              bool                     `json:"started"`
	Finished             bool                     `json:"finished"`
	StartedAt            *time.Time               `json:"startedAt,omitempty"`
	CurrentExerciseIndex int                      `json:"currentExerciseIndex"`
	CurrentSetIndex      int                      `json:"currentSetIndex"`
	CurrentExercise      *models.SessionExercise  `json:"currentExercise,omitempty"`
	Input                SetInput                 `json:"input"`
	Timer                TimerSnapshot            `json:"timer"`
	Progress             []models.WorkoutProgress `json:"progress"`
	Summary              estimate.SessionProgress `json:"summary"`
}

// Open loads a session instance for execution. When the stored resume
// record belongs to this session, cursor and timer continue from it. A
// scheduled instance moves to in_progress.
func Open(ctx context.Context, store Store, log *slog.Logger, sessionID string, opts Options) (*Session, error) {
	inst, err := store.GetSessionInstance(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if len(inst.Exercises()) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoExercises, sessionID)
	}

	progress, err := store.WorkoutProgressForSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading progress for %s: %w", sessionID, err)
	}

	s := &Session{
		store:    store,
		log:      log.With("session_id", sessionID),
		metrics:  opts.Metrics,
		now:      opts.Now,
		maxSets:  opts.MaxSets,
		rest:     opts.DefaultRest,
		instance: inst,
		progress: progress,
		finished: inst.Status == models.StatusCompleted || inst.Status == models.StatusSkipped,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxSets <= 0 {
		s.maxSets = DefaultMaxSets
	}
	if s.rest <= 0 {
		s.rest = models.DefaultRestSeconds
	}
	s.timer = NewTimer(opts.TickInterval, s.now, s.onTick)

	active, err := store.LoadActiveWorkoutState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active workout: %w", err)
	}
	if active != nil && active.SessionID == sessionID && !s.finished {
		s.resumeLocked(*active)
	}

	if inst.Status == models.StatusScheduled {
		updated, err := store.UpdateSessionStatus(ctx, sessionID, models.StatusInProgress)
		if err != nil {
			s.timer.Close()
			return nil, fmt.Errorf("starting session %s: %w", sessionID, err)
		}
		s.instance = updated
	}

	s.log.Info("workout opened", "resumed", s.started, "status", s.instance.Status)
	return s, nil
}

func (s *Session) resumeLocked(st models.ActiveWorkoutState) {
	exercises := s.instance.Exercises()
	s.exerciseIndex = min(max(st.CurrentExerciseIndex, 0), len(exercises)-1)
	s.setIndex = min(max(st.CurrentSetIndex, 0), max(exercises[s.exerciseIndex].Sets-1, 0))
	s.started = true
	s.startedAt = st.StartedAt
	if st.TimerState != nil {
		s.timer.Restore(*st.TimerState)
	}
	if s.metrics != nil {
		s.metrics.GaugeActiveWorkout.Set(1)
	}
}

// ID returns the session instance id.
func (s *Session) ID() string {
	return s.instance.ID
}

// state returns the in-memory instance status and whether the session finished.
func (s *Session) state() (models.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instance.Status, s.finished
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Start begins the workout clock and starts writing the resume record.
func (s *Session) Start(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActiveLocked(); err != nil {
		return View{}, err
	}
	s.startLocked()
	return s.viewLocked(), s.persistLocked(ctx)
}

func (s *Session) startLocked() {
	if s.started {
		return
	}
	s.started = true
	if s.startedAt.IsZero() {
		s.startedAt = s.now()
	}
	if s.metrics != nil {
		s.metrics.GaugeActiveWorkout.Set(1)
	}
	s.log.Info("workout started")
}

func (s *Session) checkActiveLocked() error {
	if s.closed {
		return ErrSessionNotActive
	}
	if s.finished {
		return ErrSessionFinished
	}
	return nil
}

// CompleteSet records the current set as performed and advances the
// cursor. Nil input fields take the prefilled values. Completing the last
// set of the last exercise finishes the session.
func (s *Session) CompleteSet(ctx context.Context, in SetInput) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActiveLocked(); err != nil {
		return View{}, err
	}
	s.startLocked()

	ex := s.instance.Exercises()[s.exerciseIndex]
	setNumber := s.setIndex + 1
	p := s.progressForLocked(ex.ID)
	defaults := DefaultInput(ex, &p, setNumber)

	now := s.now()
	set := p.Set(setNumber)
	value := in.value(ex.Unit)
	if value == nil {
		value = defaults.value(ex.Unit)
	}
	weight := in.Weight
	if weight == nil {
		weight = defaults.Weight
	}
	set.Reps, set.TimeSeconds, set.Steps = nil, nil, nil
	set.SetValue(ex.Unit, clone(value))
	set.Weight = positive(weight)
	set.Completed = true
	set.CompletedAt = &now
	set.RestTimerUsed = models.Ptr(s.timer.Snapshot().Type == models.TimerRest)

	saved, err := s.store.SaveWorkoutProgress(ctx, p)
	if err != nil {
		return View{}, fmt.Errorf("saving progress: %w", err)
	}
	s.progress = models.ReplaceProgress(s.progress, saved)
	if s.metrics != nil {
		s.metrics.CounterSetsCompleted.Inc()
	}
	s.log.Debug("set completed", "exercise", ex.Name, "set", setNumber)

	if s.setIndex < ex.Sets-1 {
		s.setIndex++
		return s.viewLocked(), s.persistLocked(ctx)
	}
	if err := s.nextExerciseLocked(ctx); err != nil {
		return View{}, err
	}
	return s.viewLocked(), nil
}

// NextExercise moves to the next exercise, or finishes the session when
// the cursor is on the last one.
func (s *Session) NextExercise(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActiveLocked(); err != nil {
		return View{}, err
	}
	s.startLocked()
	if err := s.nextExerciseLocked(ctx); err != nil {
		return View{}, err
	}
	return s.viewLocked(), nil
}

func (s *Session) nextExerciseLocked(ctx context.Context) error {
	if s.exerciseIndex < len(s.instance.Exercises())-1 {
		s.exerciseIndex++
		s.setIndex = 0
		s.timer.Stop()
		return s.persistLocked(ctx)
	}
	return s.finishLocked(ctx)
}

// PreviousExercise moves back one exercise. The set index restarts at 0
// rather than returning to the set reached earlier.
func (s *Session) PreviousExercise(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActiveLocked(); err != nil {
		return View{}, err
	}
	s.startLocked()
	if s.exerciseIndex > 0 {
		s.exerciseIndex--
		s.setIndex = 0
		s.timer.Stop()
	}
	return s.viewLocked(), s.persistLocked(ctx)
}

// StartRestTimer starts the countdown with the current exercise's rest time.
func (s *Session) StartRestTimer(ctx context.Context) (View, error) {
	return s.timerAction(ctx, func() { s.timer.StartRest(s.restLocked()) })
}

// StartStopwatch starts counting up from zero.
func (s *Session) StartStopwatch(ctx context.Context) (View, error) {
	return s.timerAction(ctx, s.timer.StartStopwatch)
}

// StopTimer halts and clears whichever timer is active.
func (s *Session) StopTimer(ctx context.Context) (View, error) {
	return s.timerAction(ctx, s.timer.Stop)
}

// ToggleTimer pauses or resumes the active timer.
func (s *Session) ToggleTimer(ctx context.Context) (View, error) {
	return s.timerAction(ctx, s.timer.Toggle)
}

// ResetTimer stops the timer and restores its initial value.
func (s *Session) ResetTimer(ctx context.Context) (View, error) {
	return s.timerAction(ctx, func() { s.timer.Reset(s.restLocked()) })
}

func (s *Session) timerAction(ctx context.Context, fn func()) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActiveLocked(); err != nil {
		return View{}, err
	}
	s.startLocked()
	fn()
	return s.viewLocked(), s.persistLocked(ctx)
}

func (s *Session) restLocked() int {
	ex := s.instance.Exercises()[s.exerciseIndex]
	if ex.RestSeconds == nil || *ex.RestSeconds <= 0 {
		return s.rest
	}
	return *ex.RestSeconds
}

// UpdateSet edits the recorded values of a set. Editing a completed set
// with different values marks it not completed.
func (s *Session) UpdateSet(ctx context.Context, exerciseID string, setNumber int, in SetInput) (View, error) {
	return s.editSets(ctx, exerciseID, func(ex models.SessionExercise, p models.WorkoutProgress) (models.WorkoutProgress, error) {
		if setNumber < 1 {
			return p, fmt.Errorf("set number must be at least 1, got %d", setNumber)
		}
		return UpdateSetValues(p, ex.Unit, setNumber, in), nil
	})
}

// ToggleSet flips completion of a set.
func (s *Session) ToggleSet(ctx context.Context, exerciseID string, setNumber int) (View, error) {
	return s.editSets(ctx, exerciseID, func(_ models.SessionExercise, p models.WorkoutProgress) (models.WorkoutProgress, error) {
		if setNumber < 1 {
			return p, fmt.Errorf("set number must be at least 1, got %d", setNumber)
		}
		return ToggleSetCompleted(p, setNumber, s.now()), nil
	})
}

// AddSet appends a set to an exercise, up to the configured maximum.
func (s *Session) AddSet(ctx context.Context, exerciseID string) (View, error) {
	return s.editSets(ctx, exerciseID, func(ex models.SessionExercise, p models.WorkoutProgress) (models.WorkoutProgress, error) {
		return AddSet(ex, p, s.maxSets)
	})
}

// RemoveSet deletes a set and renumbers the rest.
func (s *Session) RemoveSet(ctx context.Context, exerciseID string, setNumber int) (View, error) {
	return s.editSets(ctx, exerciseID, func(ex models.SessionExercise, p models.WorkoutProgress) (models.WorkoutProgress, error) {
		return RemoveSet(ex, p, setNumber)
	})
}

func (s *Session) editSets(ctx context.Context, exerciseID string, edit func(models.SessionExercise, models.WorkoutProgress) (models.WorkoutProgress, error)) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActiveLocked(); err != nil {
		return View{}, err
	}

	var ex *models.SessionExercise
	for i := range s.instance.TemplateSnapshot.Exercises {
		if s.instance.TemplateSnapshot.Exercises[i].ID == exerciseID {
			ex = &s.instance.TemplateSnapshot.Exercises[i]
			break
		}
	}
	if ex == nil {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownExercise, exerciseID)
	}

	p, err := edit(*ex, s.progressForLocked(ex.ID))
	if err != nil {
		return View{}, err
	}
	saved, err := s.store.SaveWorkoutProgress(ctx, p)
	if err != nil {
		return View{}, fmt.Errorf("saving progress: %w", err)
	}
	s.progress = models.ReplaceProgress(s.progress, saved)
	return s.viewLocked(), nil
}

// Finish completes the session regardless of remaining sets.
func (s *Session) Finish(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActiveLocked(); err != nil {
		return View{}, err
	}
	if err := s.finishLocked(ctx); err != nil {
		return View{}, err
	}
	return s.viewLocked(), nil
}

func (s *Session) finishLocked(ctx context.Context) error {
	s.timer.Stop()
	updated, err := s.store.UpdateSessionStatus(ctx, s.instance.ID, models.StatusCompleted)
	if err != nil {
		return fmt.Errorf("completing session: %w", err)
	}
	s.instance = updated
	s.finished = true
	if err := s.store.ClearActiveWorkoutState(ctx); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.GaugeActiveWorkout.Set(0)
	}
	s.log.Info("workout completed", "sets", estimate.CalculateSessionProgress(s.instance.Exercises(), s.progress).CompletedSets)
	return nil
}

// Skip marks the session skipped and drops the resume record.
func (s *Session) Skip(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActiveLocked(); err != nil {
		return View{}, err
	}
	s.timer.Stop()
	updated, err := s.store.UpdateSessionStatus(ctx, s.instance.ID, models.StatusSkipped)
	if err != nil {
		return View{}, fmt.Errorf("skipping session: %w", err)
	}
	s.instance = updated
	s.finished = true
	if err := s.store.ClearActiveWorkoutState(ctx); err != nil {
		return View{}, err
	}
	if s.metrics != nil {
		s.metrics.GaugeActiveWorkout.Set(0)
	}
	s.log.Info("workout skipped")
	return s.viewLocked(), nil
}

// Exit leaves the workout keeping recorded progress; the resume record is
// cleared and the session stays in its current status.
func (s *Session) Exit(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.timer.Close()
	if s.metrics != nil {
		s.metrics.GaugeActiveWorkout.Set(0)
	}
	if err := s.store.ClearActiveWorkoutState(ctx); err != nil {
		return err
	}
	s.log.Info("workout exited")
	return nil
}

// Close stops the timer goroutine without touching stored state.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.timer.Close()
}

// Snapshot returns the current read model.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) onTick(snap TimerSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.finished || !s.started || !s.timer.current(snap) {
		return
	}
	if err := s.persistLocked(context.Background()); err != nil {
		s.log.Warn("saving active workout on tick", "error", err)
	}
}

func (s *Session) persistLocked(ctx context.Context) error {
	if !s.started || s.finished || s.closed {
		return nil
	}
	st := models.ActiveWorkoutState{
		SessionID:            s.instance.ID,
		CurrentExerciseIndex: s.exerciseIndex,
		CurrentSetIndex:      s.setIndex,
		StartedAt:            s.startedAt,
		TimerState:           s.timer.State(),
	}
	if err := s.store.SaveActiveWorkoutState(ctx, st); err != nil {
		return fmt.Errorf("saving active workout: %w", err)
	}
	return nil
}

func (s *Session) progressForLocked(exerciseID string) models.WorkoutProgress {
	if p := models.FindProgress(s.progress, exerciseID); p != nil {
		return p.Clone()
	}
	return models.NewWorkoutProgress(s.instance.ID, exerciseID, s.now())
}

func (s *Session) viewLocked() View {
	exercises := s.instance.Exercises()
	v := View{
		Instance:             s.instance.Clone(),
		Started:              s.started,
		Finished:             s.finished,
		CurrentExerciseIndex: s.exerciseIndex,
		CurrentSetIndex:      s.setIndex,
		Timer:                s.timer.Snapshot(),
		Progress:             make([]models.WorkoutProgress, len(s.progress)),
		Summary:              estimate.CalculateSessionProgress(exercises, s.progress),
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		v.StartedAt = &t
	}
	for i, p := range s.progress {
		v.Progress[i] = p.Clone()
	}
	if !s.finished {
		ex := exercises[s.exerciseIndex].Clone()
		v.CurrentExercise = &ex
		v.Input = DefaultInput(ex, models.FindProgress(s.progress, ex.ID), s.setIndex+1)
	}
	return v
}
