// internal/reconcile/debounce.go
package reconcile

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of calls into one, firing the last
// function after a quiet period. Each Call resets the timer.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Call schedules fn after the delay, replacing any pending call.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Immediate cancels any pending call and runs fn synchronously.
func (d *Debouncer) Immediate(fn func()) {
	d.Cancel()
	fn()
}
