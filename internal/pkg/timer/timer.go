// Package timer provides the wall clock for cooking phases. It reports
// elapsed time through a tick callback and never touches the store or the
// recommendation engine; callers read the elapsed seconds at phase end.
package timer

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTickInterval keeps the on-screen clock smooth without burning CPU.
const DefaultTickInterval = 100 * time.Millisecond

// TickFunc receives the elapsed time in milliseconds on every tick.
type TickFunc func(elapsedMs int64)

// Timer is a pausable stopwatch. Start resumes from the paused elapsed
// time; Reset returns it to zero. Safe for concurrent use.
type Timer struct {
	mu       sync.Mutex
	interval time.Duration
	startAt  time.Time
	elapsed  time.Duration
	running  bool
	stop     chan struct{}
	onTick   TickFunc
}

// New creates a stopped timer with the given tick interval. A non-positive
// interval falls back to DefaultTickInterval.
func New(interval time.Duration) *Timer {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Timer{interval: interval}
}

// Start begins (or resumes) ticking. onTick is invoked on every interval
// with the total elapsed milliseconds; pass nil to keep a previous callback.
// Starting a running timer is a no-op.
func (t *Timer) Start(onTick TickFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	if onTick != nil {
		t.onTick = onTick
	}
	t.startAt = time.Now().Add(-t.elapsed)
	t.running = true
	t.stop = make(chan struct{})

	go t.run(t.stop)
}

func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.running {
				t.mu.Unlock()
				return
			}
			t.elapsed = time.Since(t.startAt)
			cb := t.onTick
			elapsed := t.elapsed
			t.mu.Unlock()

			if cb != nil {
				cb(elapsed.Milliseconds())
			}
		}
	}
}

// Pause stops ticking and freezes the elapsed time. Pausing a stopped
// timer is a no-op.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.elapsed = time.Since(t.startAt)
	t.running = false
	close(t.stop)
}

// Reset pauses the timer and zeroes the elapsed time.
func (t *Timer) Reset() {
	t.mu.Lock()
	if t.running {
		t.running = false
		close(t.stop)
	}
	t.elapsed = 0
	cb := t.onTick
	t.mu.Unlock()

	if cb != nil {
		cb(0)
	}
}

// Elapsed returns the total elapsed time.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return time.Since(t.startAt)
	}
	return t.elapsed
}

// ElapsedSeconds returns the elapsed time in whole seconds.
func (t *Timer) ElapsedSeconds() int {
	return int(t.Elapsed() / time.Second)
}

// Running reports whether the timer is ticking.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// FormatElapsed renders the elapsed time as mm:ss.
func (t *Timer) FormatElapsed() string {
	total := t.ElapsedSeconds()
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
