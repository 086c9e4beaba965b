package detect

import (
	"gocv.io/x/gocv"
)

const (
	// Frames of history the background model keeps. Short on purpose so
	// the model re-adapts quickly to lighting changes.
	mogHistory = 100

	// Frames absorbed before the foreground map is trusted.
	WarmupFrames = 10
)

// varThreshold maps the operator-facing sensitivity (10..100) onto the
// MOG2 variance threshold. Higher sensitivity means a lower threshold.
// The default sensitivity of 25 lands on the stock OpenCV threshold of 16.
func varThreshold(sensitivity int) float64 {
	return 400.0 / float64(sensitivity)
}

// BackgroundModel learns the static scene and separates each frame into
// background and candidate foreground. Until the warm-up period has
// passed the model has not seen enough of the scene, and callers must
// treat every frame as motion-free.
type BackgroundModel struct {
	sub  gocv.BackgroundSubtractorMOG2
	seen int
}

func NewBackgroundModel(sensitivity int) *BackgroundModel {
	return &BackgroundModel{
		sub: gocv.NewBackgroundSubtractorMOG2WithParams(
			mogHistory, varThreshold(sensitivity), false),
	}
}

// Apply absorbs frame into the model and writes the raw foreground map
// (0 background, intermediate values uncertain, 255 confident) to fg.
func (b *BackgroundModel) Apply(frame gocv.Mat, fg *gocv.Mat) {
	b.sub.Apply(frame, fg)
	b.seen++
}

// Ready reports whether the warm-up period has passed. The frame that
// completes the warm-up is itself still undecidable.
func (b *BackgroundModel) Ready() bool {
	return b.seen > WarmupFrames
}

func (b *BackgroundModel) Close() {
	b.sub.Close()
}
