package viewstate

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of search input into a single delivery
// after a quiet interval. Delivery order is preserved: only the latest
// value is ever delivered.
type Debouncer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func(string)
	timer   *time.Timer
	pending string
	armed   bool
}

// NewDebouncer returns a Debouncer that calls fn with the most recent
// value once d has elapsed without further input. A non-positive d
// delivers synchronously.
func NewDebouncer(d time.Duration, fn func(string)) *Debouncer {
	return &Debouncer{d: d, fn: fn}
}

// Trigger records a value and restarts the quiet timer.
func (b *Debouncer) Trigger(v string) {
	if b.d <= 0 {
		b.fn(v)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = v
	b.armed = true
	if b.timer == nil {
		b.timer = time.AfterFunc(b.d, b.fire)
		return
	}
	b.timer.Reset(b.d)
}

func (b *Debouncer) fire() {
	b.mu.Lock()
	if !b.armed {
		b.mu.Unlock()
		return
	}
	v := b.pending
	b.armed = false
	b.mu.Unlock()

	b.fn(v)
}

// Flush delivers the pending value immediately, if any.
func (b *Debouncer) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	armed := b.armed
	v := b.pending
	b.armed = false
	b.mu.Unlock()

	if armed {
		b.fn(v)
	}
}

// Stop cancels any pending delivery.
func (b *Debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.armed = false
}
