package scare

import (
	"time"
)

// Stats are the running detection counters. They advance only when a
// scare actually fires; motion during the cooldown leaves them alone.
type Stats struct {
	Detections    int64
	LastDetection time.Time
}

// Trigger is the gate between detected motion and a fired scare. It is
// owned by the processing loop and must not be shared; the loop publishes
// snapshots for everyone else.
type Trigger struct {
	cooldown func() time.Duration
	now      func() time.Time

	lastTrigger time.Time
	stats       Stats
}

// NewTrigger builds a trigger that reads the cooldown through the given
// function, so a changed setting applies to the very next frame.
func NewTrigger(cooldown func() time.Duration) *Trigger {
	return &Trigger{
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Observe feeds one frame's motion result through the gate. When it
// returns true the scare fires now: the cooldown clock and the stats
// have already advanced. The very first motion always fires; the
// cooldown only measures time since the previous scare.
func (t *Trigger) Observe(detected bool) bool {
	if !detected {
		return false
	}
	now := t.now()
	if !t.lastTrigger.IsZero() && now.Sub(t.lastTrigger) < t.cooldown() {
		return false
	}
	t.lastTrigger = now
	t.stats.Detections++
	t.stats.LastDetection = now
	return true
}

// Snapshot returns the current stats and the time of the last fired
// scare.
func (t *Trigger) Snapshot() (Stats, time.Time) {
	return t.stats, t.lastTrigger
}
