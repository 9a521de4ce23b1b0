package presence

import (
	"sync"
	"time"

	"github.com/shahin-grc/collab/internal/clock"
)

// LocalQuietPeriod is how long the local typist must stay idle before a
// typing_stop is inferred. It is intentionally shorter than the remote
// TypingStaleAfter window: the remote timer only guards against a lost stop
// message and must not be conflated with this debounce.
const LocalQuietPeriod = 1000 * time.Millisecond

// Debouncer drives the local side of the typing indicator. Every input
// immediately reports a start and re-arms the quiet timer; only when the
// quiet period elapses with no further input does it report a stop.
type Debouncer struct {
	clk     clock.Clock
	onStart func()
	onStop  func()

	mu     sync.Mutex
	timer  clock.Timer
	gen    uint64
	closed bool
}

// NewDebouncer wires a debouncer to the start/stop emit callbacks.
func NewDebouncer(clk clock.Clock, onStart, onStop func()) *Debouncer {
	return &Debouncer{clk: clk, onStart: onStart, onStop: onStop}
}

// Input registers local typing activity.
func (d *Debouncer) Input() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clk.AfterFunc(LocalQuietPeriod, func() {
		d.quiet(gen)
	})
	d.mu.Unlock()

	d.onStart()
}

func (d *Debouncer) quiet(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.onStop()
}

// Stop reports an explicit stop immediately and cancels the pending timer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.mu.Unlock()

	d.onStop()
}

// Close cancels the pending timer without emitting anything further.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
