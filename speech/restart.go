package speech

import (
	"sync"
	"time"
)

// DefaultRestartDelay is the debounce between an unexpected engine end and
// the automatic restart. It keeps platforms that immediately end an
// empty-audio session from producing a tight start/end loop.
const DefaultRestartDelay = 150 * time.Millisecond

type stopTimer interface {
	Stop() bool
}

// restarter schedules at most one pending delayed restart. Cancel prevents a
// pending restart from firing; a restart that has begun running is not
// interrupted (the callback re-checks controller state under its own lock).
type restarter struct {
	delay time.Duration
	after func(time.Duration, func()) stopTimer

	mu      sync.Mutex
	pending stopTimer
}

func newRestarter(delay time.Duration) *restarter {
	if delay <= 0 {
		delay = DefaultRestartDelay
	}
	return &restarter{
		delay: delay,
		after: func(d time.Duration, fn func()) stopTimer { return time.AfterFunc(d, fn) },
	}
}

// Schedule arms the debounce timer. It reports false, without rescheduling,
// when a restart is already pending.
func (r *restarter) Schedule(fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		return false
	}
	var t stopTimer
	t = r.after(r.delay, func() {
		r.mu.Lock()
		if r.pending != t {
			// Canceled (or superseded) after the timer fired but before
			// the callback took the lock.
			r.mu.Unlock()
			return
		}
		r.pending = nil
		r.mu.Unlock()
		fn()
	})
	r.pending = t
	return true
}

// Cancel drops any pending restart.
func (r *restarter) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}
