package clock

import "time"

// Clock provides a testable time and timer source.
//
// Protocol code must not call time.Now or time.AfterFunc directly; the
// typing debounce and staleness behavior is only testable when timers are
// injected.
type Clock interface {
	Now() time.Time
	// AfterFunc arms a one-shot timer that invokes fn after d elapses.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancelable one-shot timer handle.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// timer from firing.
	Stop() bool
}

// Real is a production Clock backed by the time package.
type Real struct{}

// Now implements Clock.
func (Real) Now() time.Time { return time.Now() }

// AfterFunc implements Clock.
func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) Stop() bool { return r.t.Stop() }
