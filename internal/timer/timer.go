// Package timer implements the study countdown: a small state machine that
// loses one second per tick while running.
package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"studybuddy/backend/internal/events"
)

const (
	TickInterval = time.Second
	tickMillis   = int64(TickInterval / time.Millisecond)

	// maxDurationPart bounds minutes and seconds so the millisecond total
	// cannot overflow.
	maxDurationPart = math.MaxInt32
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidDuration = fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	ErrClosed          = errors.New("timer closed")
)

// Snapshot is the timer state published after every change.
// PlannedMillis and ElapsedMillis describe the most recent run and survive a
// reset until the next start.
type Snapshot struct {
	State           State  `json:"state"`
	RemainingMillis int64  `json:"remainingMillis"`
	Formatted       string `json:"formatted"`
	PlannedMillis   int64  `json:"plannedMillis"`
	ElapsedMillis   int64  `json:"elapsedMillis"`
	Event           Event  `json:"event,omitempty"`
	Version         int    `json:"version"`
}

// Timer is safe for concurrent use. At most one countdown task runs at a
// time; every task carries a generation number and a tick from an older
// generation is dropped.
//
// Subscribers are called in event order, one at a time, and must not call
// back into the Timer.
type Timer struct {
	mu        sync.Mutex
	state     State
	remaining int64
	planned   int64
	elapsed   int64
	version   int
	closed    bool

	generation uint64
	cancel     context.CancelFunc
	tasks      sync.WaitGroup

	// publishMu keeps notifications in the order the changes were applied.
	publishMu sync.Mutex

	clock   Clock
	emitter *events.Emitter[Snapshot]
	logger  *slog.Logger
}

type Option func(*Timer)

func WithClock(clock Clock) Option {
	return func(t *Timer) { t.clock = clock }
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Timer) { t.logger = logger }
}

func New(opts ...Option) *Timer {
	t := &Timer{clock: SystemClock}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	t.logger = t.logger.With("component", "timer")
	t.emitter = events.NewEmitter[Snapshot](t.logger)
	return t
}

// SetTime loads a duration without starting the countdown. It only applies in
// Setting or Finished and moves a finished timer back to Setting.
func (t *Timer) SetTime(minutes, seconds int) error {
	total, ok := totalMillis(minutes, seconds)
	if !ok || total < 0 {
		return ErrInvalidDuration
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.state != Setting && t.state != Finished {
		t.mu.Unlock()
		return nil
	}
	t.state = Setting
	t.remaining = total
	t.commitLocked(EventSet)
	return nil
}

// Start loads minutes and seconds and begins counting down. A non-positive
// total is rejected with ErrInvalidDuration and leaves the timer unchanged.
// Starting a timer that is already running or paused does nothing.
func (t *Timer) Start(minutes, seconds int) error {
	total, ok := totalMillis(minutes, seconds)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.state == Running || t.state == Paused {
		t.mu.Unlock()
		return nil
	}
	if !ok || total <= 0 {
		t.mu.Unlock()
		return ErrInvalidDuration
	}
	t.remaining = total
	t.beginRunLocked()
	return nil
}

// StartText is Start for raw text entry: values that do not parse count as
// zero, so fully malformed input ends up rejected as a zero duration.
func (t *Timer) StartText(minutes, seconds string) error {
	return t.Start(ParseLenient(minutes), ParseLenient(seconds))
}

// SetTimeText is SetTime for raw text entry, parsed like StartText.
func (t *Timer) SetTimeText(minutes, seconds string) error {
	return t.SetTime(ParseLenient(minutes), ParseLenient(seconds))
}

// StartPreset starts counting down from the duration loaded by SetTime.
func (t *Timer) StartPreset() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.state == Running || t.state == Paused {
		t.mu.Unlock()
		return nil
	}
	if t.state == Finished || t.remaining <= 0 {
		t.mu.Unlock()
		return ErrInvalidDuration
	}
	t.beginRunLocked()
	return nil
}

// Pause suspends a running countdown. Time stands still until Resume.
func (t *Timer) Pause() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.state != Running {
		t.mu.Unlock()
		return nil
	}
	t.stopTaskLocked()
	t.state = Paused
	t.commitLocked(EventPaused)
	return nil
}

// Resume continues a paused countdown from where it stopped. Ticks missed
// while paused are not replayed.
func (t *Timer) Resume() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.state != Paused {
		t.mu.Unlock()
		return nil
	}
	t.state = Running
	t.startTaskLocked()
	t.commitLocked(EventResumed)
	return nil
}

// Reset cancels any countdown and returns to Setting with nothing loaded.
func (t *Timer) Reset() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.stopTaskLocked()
	t.state = Setting
	t.remaining = 0
	t.commitLocked(EventReset)
	return nil
}

// Close cancels the countdown task and waits for it to exit. Every later
// call returns ErrClosed. Close must not be called from a subscriber.
func (t *Timer) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.stopTaskLocked()
	t.mu.Unlock()

	t.tasks.Wait()
	t.logger.Debug("timer closed")
	return nil
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) RemainingMillis() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// FormattedTime renders the remaining time as MM:SS.
func (t *Timer) FormattedTime() string {
	return FormatMillis(t.RemainingMillis())
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked("")
}

// Subscribe registers fn for every change. See the Timer doc for limits on
// what fn may do.
func (t *Timer) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return t.emitter.Subscribe(fn)
}

func (t *Timer) beginRunLocked() {
	t.planned = t.remaining
	t.elapsed = 0
	t.state = Running
	t.startTaskLocked()
	t.commitLocked(EventStarted)
}

func (t *Timer) startTaskLocked() {
	t.stopTaskLocked()

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	generation := t.generation
	ticker := t.clock.NewTicker(TickInterval)

	t.tasks.Add(1)
	go t.run(ctx, generation, ticker)
}

// stopTaskLocked cancels the running task, if any, and invalidates its
// generation so a tick already in flight is ignored.
func (t *Timer) stopTaskLocked() {
	t.generation++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Timer) run(ctx context.Context, generation uint64, ticker Ticker) {
	defer t.tasks.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !t.tick(generation) {
				return
			}
		}
	}
}

// tick applies one decrement for the task of the given generation and
// reports whether that task should keep going.
func (t *Timer) tick(generation uint64) bool {
	t.mu.Lock()
	if t.closed || generation != t.generation || t.state != Running {
		t.mu.Unlock()
		return false
	}

	t.remaining -= tickMillis
	t.elapsed += tickMillis
	if t.remaining > 0 {
		t.commitLocked(EventTick)
		return true
	}

	t.elapsed += t.remaining
	t.remaining = 0
	t.state = Finished
	t.stopTaskLocked()
	t.commitLocked(EventFinished)
	return false
}

// commitLocked bumps the version and publishes a snapshot. It releases t.mu.
func (t *Timer) commitLocked(event Event) {
	t.version++
	snap := t.snapshotLocked(event)
	t.publishMu.Lock()
	t.mu.Unlock()
	defer t.publishMu.Unlock()

	t.logger.Debug("timer changed", "event", string(event), "state", snap.State.String(), "remaining_ms", snap.RemainingMillis)
	t.emitter.Publish(snap)
}

func (t *Timer) snapshotLocked(event Event) Snapshot {
	return Snapshot{
		State:           t.state,
		RemainingMillis: t.remaining,
		Formatted:       FormatMillis(t.remaining),
		PlannedMillis:   t.planned,
		ElapsedMillis:   t.elapsed,
		Event:           event,
		Version:         t.version,
	}
}

// totalMillis reports ok=false when either part is outside ±maxDurationPart.
func totalMillis(minutes, seconds int) (int64, bool) {
	if outOfRange(minutes) || outOfRange(seconds) {
		return 0, false
	}
	return (int64(minutes)*60 + int64(seconds)) * 1000, true
}

func outOfRange(v int) bool {
	return v > maxDurationPart || v < -maxDurationPart
}
