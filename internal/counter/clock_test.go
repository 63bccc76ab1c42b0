package counter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestManualClock_FiresInDeadlineOrder(t *testing.T) {
	c := NewManualClock(epoch)
	var fired []string
	var seenAt []time.Time

	c.AfterFunc(300*time.Millisecond, func() {
		fired = append(fired, "late")
		seenAt = append(seenAt, c.Now())
	})
	c.AfterFunc(100*time.Millisecond, func() {
		fired = append(fired, "early")
		seenAt = append(seenAt, c.Now())
	})
	c.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "early-second") })

	c.Advance(50 * time.Millisecond)
	assert.Empty(t, fired)
	assert.Equal(t, 3, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"early", "early-second", "late"}, fired)
	assert.Equal(t, []time.Time{epoch.Add(100 * time.Millisecond), epoch.Add(300 * time.Millisecond)}, seenAt)
	assert.Equal(t, epoch.Add(1050*time.Millisecond), c.Now())
	assert.Zero(t, c.Pending())
}

func TestManualClock_Stop(t *testing.T) {
	c := NewManualClock(epoch)
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports nothing pending")

	c.Advance(2 * time.Second)
	assert.False(t, called)

	fired := c.AfterFunc(time.Millisecond, func() {})
	c.Advance(time.Millisecond)
	assert.False(t, fired.Stop(), "stop after firing")
}

func TestManualClock_CallbackSchedulesAnother(t *testing.T) {
	c := NewManualClock(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			c.AfterFunc(100*time.Millisecond, tick)
		}
	}
	c.AfterFunc(100*time.Millisecond, tick)

	c.Advance(250 * time.Millisecond)
	assert.Equal(t, 2, count)
	c.Advance(time.Second)
	assert.Equal(t, 3, count)
}

func TestManualClock_NeverMovesBackwards(t *testing.T) {
	c := NewManualClock(epoch)
	c.AdvanceTo(epoch.Add(time.Second))
	c.AdvanceTo(epoch)
	assert.Equal(t, epoch.Add(time.Second), c.Now())
}

func TestSystemClock(t *testing.T) {
	c := SystemClock()
	done := make(chan struct{})
	c.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("system clock timer did not fire")
	}
	assert.False(t, c.Now().IsZero())
}
