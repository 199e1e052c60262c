// Package schedule provides a cancellable delayed-task primitive: schedule a
// callback after a delay, where scheduling again cancels whatever was
// pending. Used for search-as-you-type and for coalescing background sync
// after bursts of page visits, so only the last-scheduled task's effect is
// observed.
package schedule

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled function after a fixed delay.
// Safe for concurrent use. The zero value is not usable; construct with
// NewDebouncer.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates a Debouncer with the given delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arranges for fn to run after the configured delay, cancelling any
// previously scheduled call that has not fired yet. A call that has already
// started running is not interrupted, but its scheduling slot is spent: it
// cannot suppress fn.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen

	d.timer = time.AfterFunc(d.delay, func() {
		// A newer Schedule or Stop may have raced the timer firing; the
		// generation check guarantees only the latest winner runs.
		d.mu.Lock()
		stale := gen != d.gen
		d.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

// Stop cancels any pending call. It does not wait for a call already in
// flight.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
