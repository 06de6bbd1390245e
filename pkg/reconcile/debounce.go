package reconcile

import (
	"sync"
	"time"
)

// debouncer coalesces rapid successive payloads into a single delivery:
// each add resets the timer and replaces the pending payload, so only
// the most recent one is committed when the delay elapses
// (last-write-wins).
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	payload []byte
	fn      func([]byte)
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// add schedules fn(payload) after the delay, replacing any pending
// payload and restarting the countdown.
func (d *debouncer) add(payload []byte, fn func([]byte)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.payload, d.fn = payload, fn
	d.gen++
	gen := d.gen

	// A countdown that already expired but has not yet consumed the
	// payload sees the newer generation and leaves it for this one, so
	// the delay is never cut short by a mid-fire race.
	if d.timer == nil || !d.timer.Stop() {
		d.wg.Add(1)
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *debouncer) fire(gen uint64) {
	defer d.wg.Done()

	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	fn, payload := d.fn, d.payload
	d.fn, d.payload, d.timer = nil, nil, nil
	d.mu.Unlock()

	if fn == nil {
		return
	}
	fn(payload)
}

// cancel drops the pending payload without delivering it.
func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fn, d.payload = nil, nil
	if d.timer != nil && d.timer.Stop() {
		d.timer = nil
		d.wg.Done()
	}
}

// flush delivers the pending payload immediately instead of waiting
// for the countdown.
func (d *debouncer) flush() {
	d.mu.Lock()
	fn, payload := d.fn, d.payload
	d.fn, d.payload = nil, nil
	if d.timer != nil && d.timer.Stop() {
		d.timer = nil
		d.wg.Done()
	}
	d.mu.Unlock()

	if fn != nil {
		fn(payload)
	}
}

// stopAndWait stops accepting payloads, cancels the countdown and waits
// for any in-flight delivery to finish, up to the timeout.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	d.fn, d.payload = nil, nil
	if d.timer != nil && d.timer.Stop() {
		d.timer = nil
		d.wg.Done()
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
