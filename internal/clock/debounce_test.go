package clock_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/invoiceforge/internal/clock"
	"github.com/roach88/invoiceforge/internal/testutil"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestDebouncer_BurstFiresOnce(t *testing.T) {
	c := testutil.NewFakeClock(epoch)
	var calls int
	d := clock.NewDebouncer(c, 500*time.Millisecond, func() { calls++ })

	for i := 0; i < 5; i++ {
		d.Trigger()
		c.Advance(100 * time.Millisecond)
	}
	assert.Zero(t, calls)
	assert.True(t, d.Pending())

	// The last trigger was at 400ms, so the call is due at 900ms.
	c.Advance(399 * time.Millisecond)
	assert.Zero(t, calls)

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, calls)
	assert.False(t, d.Pending())
}

func TestDebouncer_SeparateBurstsFireSeparately(t *testing.T) {
	c := testutil.NewFakeClock(epoch)
	var calls int
	d := clock.NewDebouncer(c, 500*time.Millisecond, func() { calls++ })

	d.Trigger()
	c.Advance(time.Second)
	d.Trigger()
	c.Advance(time.Second)

	assert.Equal(t, 2, calls)
}

func TestDebouncer_Flush(t *testing.T) {
	c := testutil.NewFakeClock(epoch)
	var calls int
	d := clock.NewDebouncer(c, 500*time.Millisecond, func() { calls++ })

	assert.False(t, d.Flush())

	d.Trigger()
	assert.True(t, d.Flush())
	assert.Equal(t, 1, calls)

	// The replaced timer must not fire a second call.
	c.Advance(time.Second)
	assert.Equal(t, 1, calls)
}

func TestDebouncer_Stop(t *testing.T) {
	c := testutil.NewFakeClock(epoch)
	var calls int
	d := clock.NewDebouncer(c, 500*time.Millisecond, func() { calls++ })

	d.Trigger()
	d.Stop()
	c.Advance(time.Second)

	assert.Zero(t, calls)
	assert.False(t, d.Pending())
}

func TestDebouncer_RealClock(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	d := clock.NewDebouncer(nil, 10*time.Millisecond, func() {
		calls.Add(1)
		close(done)
	})

	d.Trigger()
	d.Trigger()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncer_WaitBlocksOnRunningCall(t *testing.T) {
	c := testutil.NewFakeClock(epoch)
	entered := make(chan struct{})
	release := make(chan struct{})
	d := clock.NewDebouncer(c, 500*time.Millisecond, func() {
		close(entered)
		<-release
	})

	d.Trigger()
	go c.Advance(time.Second)
	<-entered

	assert.False(t, d.Stop(), "a running call is no longer pending")
	waited := make(chan struct{})
	go func() {
		d.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while the call was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait never returned")
	}
}

func TestDebouncer_IdleWhenNothingRuns(t *testing.T) {
	d := clock.NewDebouncer(testutil.NewFakeClock(epoch), time.Second, func() {})
	select {
	case <-d.Idle():
	default:
		t.Fatal("Idle must be closed when no call is running")
	}
}
