package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// manualClock hands out tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	ticker := &manualTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, ticker)
	return ticker
}

func (c *manualClock) created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *manualClock) latest() *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

// fire delivers one tick to the newest ticker and reports whether a task
// picked it up.
func (c *manualClock) fire() bool {
	ticker := c.latest()
	if ticker == nil || ticker.isStopped() {
		return false
	}
	select {
	case ticker.ch <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

type harness struct {
	timer  *Timer
	clock  *manualClock
	events chan Snapshot
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &manualClock{}
	tm := New(WithClock(clock))
	h := &harness{timer: tm, clock: clock, events: make(chan Snapshot, 64)}
	tm.Subscribe(func(s Snapshot) { h.events <- s })
	t.Cleanup(func() { _ = tm.Close() })
	return h
}

// tickAndWait fires a tick and waits for the snapshot it produced.
func (h *harness) tickAndWait(t *testing.T) Snapshot {
	t.Helper()
	h.drain()
	require.True(t, h.clock.fire(), "no countdown task received the tick")
	select {
	case snap := <-h.events:
		return snap
	case <-time.After(time.Second):
		t.Fatal("tick was not applied")
		return Snapshot{}
	}
}

func (h *harness) drain() {
	for {
		select {
		case <-h.events:
		default:
			return
		}
	}
}

func TestStartZeroIsRejected(t *testing.T) {
	h := newHarness(t)

	err := h.timer.Start(0, 0)

	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, Setting, h.timer.State())
	assert.Equal(t, int64(0), h.timer.RemainingMillis())
	assert.Equal(t, 0, h.clock.created())
}

func TestStartNegativeTotalIsRejected(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.timer.Start(0, -5), ErrInvalidDuration)
	assert.Equal(t, Setting, h.timer.State())
}

func TestStartOutOfRangeIsRejected(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.timer.Start(307445734561826, 0), ErrInvalidDuration)
	assert.ErrorIs(t, h.timer.Start(0, maxDurationPart+1), ErrInvalidDuration)
	assert.ErrorIs(t, h.timer.SetTime(-maxDurationPart-1, 0), ErrInvalidDuration)
	assert.Equal(t, Setting, h.timer.State())
	assert.Equal(t, 0, h.clock.created())

	require.NoError(t, h.timer.Start(maxDurationPart, 0))
	assert.Equal(t, int64(maxDurationPart)*60*1000, h.timer.RemainingMillis())
}

func TestStartOneMinuteThirty(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.timer.Start(1, 30))

	assert.Equal(t, int64(90000), h.timer.RemainingMillis())
	assert.Equal(t, Running, h.timer.State())
	assert.Equal(t, "01:30", h.timer.FormattedTime())
}

func TestStartTextIsLenient(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.timer.StartText("abc", ""), ErrInvalidDuration)
	assert.Equal(t, Setting, h.timer.State())

	require.NoError(t, h.timer.StartText("1", " 5 "))
	assert.Equal(t, int64(65000), h.timer.RemainingMillis())

	require.NoError(t, h.timer.Reset())
	require.NoError(t, h.timer.StartText("x", "30"))
	assert.Equal(t, int64(30000), h.timer.RemainingMillis())
}

func TestTickDecrementsOneSecond(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.timer.Start(0, 3))

	snap := h.tickAndWait(t)

	assert.Equal(t, EventTick, snap.Event)
	assert.Equal(t, Running, snap.State)
	assert.Equal(t, int64(2000), snap.RemainingMillis)
	assert.Equal(t, int64(1000), snap.ElapsedMillis)
}

func TestLastTickFinishes(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.timer.Start(0, 1))

	snap := h.tickAndWait(t)

	assert.Equal(t, EventFinished, snap.Event)
	assert.Equal(t, Finished, h.timer.State())
	assert.Equal(t, int64(0), h.timer.RemainingMillis())
	assert.Equal(t, int64(1000), snap.ElapsedMillis)

	// The task is gone; nothing can push the countdown negative.
	assert.False(t, h.clock.fire())
	assert.Equal(t, int64(0), h.timer.RemainingMillis())
}

func TestTickAfterFinishIsIgnored(t *testing.T) {
	tm := New(WithClock(&manualClock{}))
	t.Cleanup(func() { _ = tm.Close() })
	require.NoError(t, tm.Start(0, 1))

	tm.mu.Lock()
	generation := tm.generation
	tm.mu.Unlock()

	assert.False(t, tm.tick(generation))
	assert.False(t, tm.tick(generation))
	assert.Equal(t, int64(0), tm.RemainingMillis())
	assert.Equal(t, Finished, tm.State())
}

func TestPauseResumeAppliesNoBacklog(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.timer.Start(1, 0))
	h.tickAndWait(t)

	require.NoError(t, h.timer.Pause())
	require.Equal(t, Paused, h.timer.State())

	time.Sleep(30 * time.Millisecond)
	h.clock.fire()
	assert.Equal(t, int64(59000), h.timer.RemainingMillis())

	require.NoError(t, h.timer.Resume())
	assert.Equal(t, Running, h.timer.State())
	assert.Equal(t, int64(59000), h.timer.RemainingMillis())

	snap := h.tickAndWait(t)
	assert.Equal(t, int64(58000), snap.RemainingMillis)
}

func TestStaleGenerationTickIsDropped(t *testing.T) {
	tm := New(WithClock(&manualClock{}))
	t.Cleanup(func() { _ = tm.Close() })
	require.NoError(t, tm.Start(0, 10))

	tm.mu.Lock()
	stale := tm.generation
	tm.mu.Unlock()

	require.NoError(t, tm.Pause())
	require.NoError(t, tm.Resume())

	assert.False(t, tm.tick(stale))
	assert.Equal(t, int64(10000), tm.RemainingMillis())
}

func TestStartWhileActiveIsNoop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.timer.Start(0, 30))

	require.NoError(t, h.timer.Start(5, 0))
	assert.Equal(t, int64(30000), h.timer.RemainingMillis())
	assert.Equal(t, 1, h.clock.created())

	require.NoError(t, h.timer.Pause())
	require.NoError(t, h.timer.Start(5, 0))
	assert.Equal(t, Paused, h.timer.State())
	assert.Equal(t, int64(30000), h.timer.RemainingMillis())
}

func TestPauseAndResumeOutsideTheirStatesAreNoops(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.timer.Pause())
	require.NoError(t, h.timer.Resume())
	assert.Equal(t, Setting, h.timer.State())

	require.NoError(t, h.timer.Start(0, 5))
	require.NoError(t, h.timer.Resume())
	assert.Equal(t, Running, h.timer.State())
	assert.Equal(t, 1, h.clock.created())
}

func TestResetFromEveryState(t *testing.T) {
	setups := map[string]func(t *testing.T, h *harness){
		"setting": func(t *testing.T, h *harness) {
			require.NoError(t, h.timer.SetTime(2, 0))
		},
		"running": func(t *testing.T, h *harness) {
			require.NoError(t, h.timer.Start(1, 0))
		},
		"paused": func(t *testing.T, h *harness) {
			require.NoError(t, h.timer.Start(1, 0))
			require.NoError(t, h.timer.Pause())
		},
		"finished": func(t *testing.T, h *harness) {
			require.NoError(t, h.timer.Start(0, 1))
			h.tickAndWait(t)
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			setup(t, h)

			require.NoError(t, h.timer.Reset())

			assert.Equal(t, Setting, h.timer.State())
			assert.Equal(t, int64(0), h.timer.RemainingMillis())
			assert.Equal(t, "00:00", h.timer.FormattedTime())

			h.clock.fire()
			assert.Equal(t, Setting, h.timer.State())
			assert.Equal(t, int64(0), h.timer.RemainingMillis())
		})
	}
}

func TestSetTimeThenStartPreset(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.timer.StartPreset(), ErrInvalidDuration)

	require.NoError(t, h.timer.SetTime(25, 0))
	assert.Equal(t, Setting, h.timer.State())
	assert.Equal(t, "25:00", h.timer.FormattedTime())

	require.NoError(t, h.timer.StartPreset())
	assert.Equal(t, Running, h.timer.State())
	assert.Equal(t, int64(25*60*1000), h.timer.Snapshot().PlannedMillis)

	require.NoError(t, h.timer.SetTime(1, 0))
	assert.Equal(t, int64(25*60*1000), h.timer.RemainingMillis())
}

func TestSetTimeTextIsLenient(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.timer.SetTimeText(" 2", "oops"))
	assert.Equal(t, "02:00", h.timer.FormattedTime())

	require.NoError(t, h.timer.SetTimeText("", ""))
	assert.Equal(t, int64(0), h.timer.RemainingMillis())
	assert.ErrorIs(t, h.timer.StartPreset(), ErrInvalidDuration)
}

func TestRestartAfterFinish(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.timer.Start(0, 1))
	h.tickAndWait(t)
	require.Equal(t, Finished, h.timer.State())

	require.NoError(t, h.timer.Start(0, 2))

	snap := h.timer.Snapshot()
	assert.Equal(t, Running, snap.State)
	assert.Equal(t, int64(2000), snap.PlannedMillis)
	assert.Equal(t, int64(0), snap.ElapsedMillis)
}

func TestCloseCancelsTask(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.timer.Start(0, 10))

	require.NoError(t, h.timer.Close())
	require.NoError(t, h.timer.Close())

	assert.False(t, h.clock.fire())
	assert.Equal(t, int64(10000), h.timer.RemainingMillis())
	assert.ErrorIs(t, h.timer.Start(0, 1), ErrClosed)
	assert.ErrorIs(t, h.timer.Pause(), ErrClosed)
	assert.ErrorIs(t, h.timer.Resume(), ErrClosed)
	assert.ErrorIs(t, h.timer.Reset(), ErrClosed)
	assert.ErrorIs(t, h.timer.SetTime(1, 0), ErrClosed)
	assert.ErrorIs(t, h.timer.StartPreset(), ErrClosed)
}

func TestSubscribersSeeEventsInOrder(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.timer.Start(0, 2))
	started := <-h.events
	h.tickAndWait(t)
	finished := h.tickAndWait(t)
	require.NoError(t, h.timer.Reset())
	reset := <-h.events

	assert.Equal(t, EventStarted, started.Event)
	assert.Equal(t, EventFinished, finished.Event)
	assert.Equal(t, EventReset, reset.Event)
	assert.Less(t, started.Version, finished.Version)
	assert.Less(t, finished.Version, reset.Version)
	assert.Equal(t, int64(2000), reset.ElapsedMillis)
}

func TestSystemClockCountsDown(t *testing.T) {
	if testing.Short() {
		t.Skip("uses wall clock")
	}
	tm := New()
	t.Cleanup(func() { _ = tm.Close() })

	require.NoError(t, tm.Start(0, 1))

	assert.Eventually(t, func() bool {
		return tm.State() == Finished
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(0), tm.RemainingMillis())
}
