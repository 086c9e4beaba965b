package scare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock drives a Trigger with a hand-cranked clock.
func testClock(tr *Trigger, start time.Time) *time.Time {
	now := start
	tr.now = func() time.Time { return now }
	return &now
}

func fixedCooldown(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

func TestTriggerFirstMotionFires(t *testing.T) {
	t.Parallel()
	tr := NewTrigger(fixedCooldown(5 * time.Second))
	testClock(tr, time.Unix(1000, 0))

	assert.True(t, tr.Observe(true))

	stats, last := tr.Snapshot()
	assert.Equal(t, int64(1), stats.Detections)
	assert.Equal(t, time.Unix(1000, 0), stats.LastDetection)
	assert.Equal(t, time.Unix(1000, 0), last)
}

func TestTriggerCooldownTimeline(t *testing.T) {
	t.Parallel()
	tr := NewTrigger(fixedCooldown(5 * time.Second))
	now := testClock(tr, time.Unix(1000, 0))

	// t=0: fires.
	require.True(t, tr.Observe(true))

	// t=3: still cooling down.
	*now = now.Add(3 * time.Second)
	assert.False(t, tr.Observe(true))

	// t=6: cooldown expired, fires again.
	*now = now.Add(3 * time.Second)
	assert.True(t, tr.Observe(true))

	stats, _ := tr.Snapshot()
	assert.Equal(t, int64(2), stats.Detections)
}

func TestTriggerFiresExactlyAtCooldown(t *testing.T) {
	t.Parallel()
	tr := NewTrigger(fixedCooldown(5 * time.Second))
	now := testClock(tr, time.Unix(1000, 0))

	require.True(t, tr.Observe(true))
	*now = now.Add(5 * time.Second)
	assert.True(t, tr.Observe(true))
}

func TestTriggerIgnoresQuietFrames(t *testing.T) {
	t.Parallel()
	tr := NewTrigger(fixedCooldown(time.Second))
	now := testClock(tr, time.Unix(1000, 0))

	for i := 0; i < 100; i++ {
		assert.False(t, tr.Observe(false))
		*now = now.Add(time.Second)
	}

	stats, last := tr.Snapshot()
	assert.Zero(t, stats.Detections)
	assert.True(t, stats.LastDetection.IsZero())
	assert.True(t, last.IsZero())
}

func TestTriggerStatsFrozenDuringCooldown(t *testing.T) {
	t.Parallel()
	tr := NewTrigger(fixedCooldown(10 * time.Second))
	now := testClock(tr, time.Unix(1000, 0))

	require.True(t, tr.Observe(true))
	fired := *now

	// A burst of motion inside the cooldown leaves stats untouched.
	for i := 0; i < 9; i++ {
		*now = now.Add(time.Second)
		assert.False(t, tr.Observe(true))
	}

	stats, last := tr.Snapshot()
	assert.Equal(t, int64(1), stats.Detections)
	assert.Equal(t, fired, stats.LastDetection)
	assert.Equal(t, fired, last)
}

func TestTriggerReadsCooldownEachObservation(t *testing.T) {
	t.Parallel()
	cooldown := 10 * time.Second
	tr := NewTrigger(func() time.Duration { return cooldown })
	now := testClock(tr, time.Unix(1000, 0))

	require.True(t, tr.Observe(true))
	*now = now.Add(3 * time.Second)
	assert.False(t, tr.Observe(true))

	// Shortening the cooldown takes effect on the next frame.
	cooldown = 2 * time.Second
	assert.True(t, tr.Observe(true))
}
