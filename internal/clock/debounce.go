package clock

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one call.
//
// Each Trigger restarts the delay; fn runs once the delay elapses with no
// further trigger. fn never runs with the debouncer's lock held, so it may
// call Trigger itself. A call already running is never interrupted.
type Debouncer struct {
	clock Clock
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   Timer
	pending bool
	gen     uint64
	running int
	idle    chan struct{} // closed when running drops to zero
}

// NewDebouncer returns a debouncer that calls fn delay after the last
// Trigger.
func NewDebouncer(c Clock, delay time.Duration, fn func()) *Debouncer {
	if c == nil {
		c = Real{}
	}
	return &Debouncer{clock: c, delay: delay, fn: fn}
}

// Trigger schedules fn, replacing any schedule not yet fired.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A stopped timer can still fire if Stop lost the race.
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	if d.running == 0 {
		d.idle = make(chan struct{})
	}
	d.running++
	d.mu.Unlock()

	defer d.done()
	d.fn()
}

func (d *Debouncer) done() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running--
	if d.running == 0 {
		close(d.idle)
	}
}

// Idle returns a channel that is closed once no timer-started call is
// running. It is already closed when none is.
func (d *Debouncer) Idle() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running == 0 {
		return closed
	}
	return d.idle
}

// Wait blocks until no timer-started call is running.
func (d *Debouncer) Wait() {
	<-d.Idle()
}

var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Flush runs a scheduled call immediately on the calling goroutine. It
// reports whether a call was pending.
func (d *Debouncer) Flush() bool {
	if !d.cancel() {
		return false
	}
	d.fn()
	return true
}

// Stop drops a scheduled call without running it. It reports whether a call
// was pending.
func (d *Debouncer) Stop() bool {
	return d.cancel()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	was := d.pending
	d.pending = false
	return was
}
