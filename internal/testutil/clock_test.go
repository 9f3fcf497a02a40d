package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClock_NowAdvances(t *testing.T) {
	c := NewFakeClock(epoch)
	assert.Equal(t, epoch, c.Now())

	c.Advance(time.Second)
	assert.Equal(t, epoch.Add(time.Second), c.Now())
}

func TestFakeClock_FiresInDeadlineOrder(t *testing.T) {
	c := NewFakeClock(epoch)

	var fired []string
	c.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Zero(t, c.Pending())
}

func TestFakeClock_CallbackSeesDeadline(t *testing.T) {
	c := NewFakeClock(epoch)

	var at time.Time
	c.AfterFunc(500*time.Millisecond, func() { at = c.Now() })
	c.Advance(time.Minute)

	assert.Equal(t, epoch.Add(500*time.Millisecond), at)
	assert.Equal(t, epoch.Add(time.Minute), c.Now())
}

func TestFakeClock_CallbackMaySchedule(t *testing.T) {
	c := NewFakeClock(epoch)

	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			c.AfterFunc(time.Second, tick)
		}
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(10 * time.Second)
	assert.Equal(t, 3, count)
}

func TestFakeClock_Stop(t *testing.T) {
	c := NewFakeClock(epoch)

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	require.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Hour)
	assert.False(t, fired)
}

func TestFakeClock_ConcurrentAccess(t *testing.T) {
	c := NewFakeClock(epoch)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AfterFunc(time.Millisecond, func() {})
			_ = c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Pending())
	c.Advance(time.Millisecond)
	assert.Zero(t, c.Pending())
}
