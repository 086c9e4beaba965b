package detect

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func matsEqual(t *testing.T, a, b gocv.Mat) bool {
	t.Helper()
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)
	s := diff.Sum()
	return s.Val1+s.Val2+s.Val3+s.Val4 == 0
}

func TestRenderOverlayLeavesInputsUntouched(t *testing.T) {
	frame := grayFrame(t)
	before := frame.Clone()
	defer before.Close()

	mask := newMask(t)
	fillRect(&mask, image.Rect(50, 50, 100, 100))
	maskBefore := mask.Clone()
	defer maskBefore.Close()

	now := time.Now()
	ev := Event{Detected: true, Blobs: []image.Rectangle{image.Rect(50, 50, 100, 100)}, TotalArea: 2500}
	out := RenderOverlay(frame, mask, ev, Status{Detections: 3, LastDetection: now, LastTrigger: now, Cooldown: 5 * time.Second}, now)
	defer out.Close()

	assert.True(t, matsEqual(t, frame, before), "input frame was modified")
	assert.True(t, matsEqual(t, mask, maskBefore), "input mask was modified")
	assert.False(t, matsEqual(t, frame, out), "overlay drew nothing")
}

func TestRenderOverlayCooldownCountdownWindow(t *testing.T) {
	frame := grayFrame(t)
	mask := newMask(t)
	now := time.Now()

	base := Status{Detections: 1, Cooldown: 5 * time.Second}

	noTrigger := base
	active := base
	active.LastTrigger = now.Add(-2 * time.Second)
	expired := base
	expired.LastTrigger = now.Add(-10 * time.Second)

	outNone := RenderOverlay(frame, mask, Event{}, noTrigger, now)
	defer outNone.Close()
	outActive := RenderOverlay(frame, mask, Event{}, active, now)
	defer outActive.Close()
	outExpired := RenderOverlay(frame, mask, Event{}, expired, now)
	defer outExpired.Close()

	// The countdown only appears while the cooldown is running.
	assert.False(t, matsEqual(t, outNone, outActive))
	assert.True(t, matsEqual(t, outNone, outExpired))
}

func TestRenderOverlayStatusLine(t *testing.T) {
	frame := grayFrame(t)
	mask := newMask(t)
	now := time.Now()

	quiet := RenderOverlay(frame, mask, Event{}, Status{}, now)
	defer quiet.Close()
	alert := RenderOverlay(frame, mask, Event{Detected: true}, Status{}, now)
	defer alert.Close()

	assert.False(t, matsEqual(t, quiet, alert))
}
