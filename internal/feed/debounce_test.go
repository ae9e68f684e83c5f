package feed

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})

	for i := 0; i < 20; i++ {
		d.Trigger(context.Background())
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, 5*time.Millisecond)

	// A trigger after the window closed opens a fresh one.
	d.Trigger(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() == 2 },
		time.Second, 5*time.Millisecond)
}

func TestDebouncerFlushRunsPendingWindow(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(time.Hour, func(context.Context) {
		calls.Add(1)
	})

	d.Trigger(context.Background())
	d.Flush(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	// Nothing pending; flush is a no-op.
	d.Flush(context.Background())
	assert.Equal(t, int32(1), calls.Load())
}
