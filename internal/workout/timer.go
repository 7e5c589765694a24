package workout

import (
	"context"
	"sync"
	"time"

	"github.com/claude/fittracker/internal/models"
)

// TimerSnapshot is the visible state of the workout timer.
type TimerSnapshot struct {
	Type      models.TimerType `json:"type,omitempty"`
	Seconds   int              `json:"seconds"`
	Duration  int              `json:"duration,omitempty"`
	IsRunning bool             `json:"isRunning"`

	// gen identifies the run that produced a tick; stale ticks are ignored.
	gen uint64
}

// Timer is the rest countdown / stopwatch. A running timer owns one ticker
// goroutine; every stop, replace or reset cancels it. With a zero interval
// no goroutine is started and Tick must be called by the owner.
type Timer struct {
	interval time.Duration
	now      func() time.Time
	onTick   func(TimerSnapshot)

	mu       sync.Mutex
	typ      models.TimerType
	seconds  int
	duration int
	running  bool
	gen      uint64
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewTimer creates a stopped timer. onTick, if set, is called after every
// tick outside the timer's lock.
func NewTimer(interval time.Duration, now func() time.Time, onTick func(TimerSnapshot)) *Timer {
	return &Timer{interval: interval, now: now, onTick: onTick}
}

// StartRest starts a countdown from seconds, discarding any other timer.
func (t *Timer) StartRest(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
	t.typ = models.TimerRest
	t.seconds = seconds
	t.duration = seconds
	t.runLocked()
}

// StartStopwatch starts counting up from zero, discarding any other timer.
func (t *Timer) StartStopwatch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
	t.typ = models.TimerStopwatch
	t.seconds = 0
	t.duration = 0
	t.runLocked()
}

// Stop halts and clears the timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
	t.typ = ""
	t.seconds = 0
	t.duration = 0
}

// Toggle pauses a running timer or resumes a paused one.
func (t *Timer) Toggle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.haltLocked()
		return
	}
	if t.typ == "" {
		return
	}
	t.runLocked()
}

// Reset stops the timer and restores its initial value: restSeconds for a
// rest timer (DefaultRestSeconds when not positive), zero for a stopwatch.
func (t *Timer) Reset(restSeconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
	switch t.typ {
	case models.TimerRest:
		if restSeconds <= 0 {
			restSeconds = models.DefaultRestSeconds
		}
		t.seconds = restSeconds
		t.duration = restSeconds
	case models.TimerStopwatch:
		t.seconds = 0
	}
}

// Restore loads a persisted timer, accounting for time passed since it was saved.
func (t *Timer) Restore(ts models.TimerState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()

	seconds, running := ts.Resume(t.now())
	t.typ = ts.Type
	t.seconds = seconds
	t.duration = ts.Duration
	if ts.Type == models.TimerRest && ts.IsRunning && !running {
		// countdown ran out while away
		t.typ = ""
		t.duration = 0
		return
	}
	if running {
		t.runLocked()
	}
}

// Snapshot returns the current timer state.
func (t *Timer) Snapshot() TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// State returns the persisted form of the timer, or nil when no timer is set.
// StartTime is chosen so that Resume reproduces the current value.
func (t *Timer) State() *models.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.typ == "" {
		return nil
	}
	st := &models.TimerState{
		Type:      t.typ,
		Duration:  t.duration,
		Seconds:   t.seconds,
		IsRunning: t.running,
		StartTime: t.now(),
	}
	switch t.typ {
	case models.TimerRest:
		st.StartTime = st.StartTime.Add(-time.Duration(t.duration-t.seconds) * time.Second)
	case models.TimerStopwatch:
		st.StartTime = st.StartTime.Add(-time.Duration(t.seconds) * time.Second)
	}
	return st
}

// Tick advances the timer by one interval. It is called by the ticker
// goroutine, or directly when the timer was created without an interval.
func (t *Timer) Tick() {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()
	t.tick(gen)
}

// Close stops the timer and waits for its goroutine to exit.
func (t *Timer) Close() {
	t.mu.Lock()
	t.haltLocked()
	t.mu.Unlock()
	t.wg.Wait()
}

// tick applies one step for run gen and reports whether that run continues.
func (t *Timer) tick(gen uint64) bool {
	t.mu.Lock()
	if !t.running || gen != t.gen {
		t.mu.Unlock()
		return false
	}
	switch t.typ {
	case models.TimerRest:
		t.seconds--
		if t.seconds <= 0 {
			t.haltLocked()
			t.typ = ""
			t.seconds = 0
			t.duration = 0
		}
	case models.TimerStopwatch:
		t.seconds++
	}
	snap := t.snapshotLocked()
	cont := t.running
	t.mu.Unlock()

	if t.onTick != nil {
		t.onTick(snap)
	}
	return cont
}

func (t *Timer) runLocked() {
	t.gen++
	t.running = true
	if t.interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	gen := t.gen
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !t.tick(gen) {
					return
				}
			}
		}
	}()
}

// haltLocked stops the running goroutine, if any, keeping type and value.
func (t *Timer) haltLocked() {
	if t.running {
		t.gen++
	}
	t.running = false
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Timer) snapshotLocked() TimerSnapshot {
	return TimerSnapshot{
		Type:      t.typ,
		Seconds:   t.seconds,
		Duration:  t.duration,
		IsRunning: t.running,
		gen:       t.gen,
	}
}

// current reports whether snap was produced by the run still in progress.
func (t *Timer) current(snap TimerSnapshot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return snap.gen == t.gen
}
