package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_StopKeepsElapsed(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed(), "a clock that never started does not move")

	c.Start()
	time.Sleep(2 * time.Millisecond)
	c.Update()
	elapsed := c.Elapsed()
	assert.Greater(t, elapsed, 0.0)

	c.Stop()
	time.Sleep(2 * time.Millisecond)
	c.Update()
	assert.Equal(t, elapsed, c.Elapsed())
}

func TestTimerWaiter(t *testing.T) {
	w := NewTimerWaiter()
	assert.NoError(t, w.Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Wait(ctx, time.Hour), context.Canceled)
}

func TestWaiterFunc(t *testing.T) {
	var got time.Duration
	w := WaiterFunc(func(_ context.Context, d time.Duration) error {
		got = d
		return nil
	})
	assert.NoError(t, w.Wait(context.Background(), 42*time.Millisecond))
	assert.Equal(t, 42*time.Millisecond, got)
}
