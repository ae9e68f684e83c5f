package feed

import (
	"context"
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single callback. The first
// trigger arms a timer; everything arriving inside the window is absorbed and
// the callback runs once when the window closes.
type Debouncer struct {
	window time.Duration
	fn     func(context.Context)

	mu    sync.Mutex
	timer *time.Timer
	wg    sync.WaitGroup
}

func NewDebouncer(window time.Duration, fn func(context.Context)) *Debouncer {
	if window <= 0 {
		window = 500 * time.Millisecond
	}
	return &Debouncer{window: window, fn: fn}
}

// Trigger schedules the callback if no window is open, and is a no-op while
// one is.
func (d *Debouncer) Trigger(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		return
	}
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.window, func() {
		defer d.wg.Done()
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		d.fn(ctx)
	})
}

// Flush runs a pending callback immediately. Used on shutdown so an armed
// window is not lost.
func (d *Debouncer) Flush(ctx context.Context) {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()
	if pending {
		defer d.wg.Done()
		d.fn(ctx)
	}
	d.wg.Wait()
}
