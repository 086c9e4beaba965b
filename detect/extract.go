package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// Foreground values at or below this are dropped. MOG2 marks confident
// foreground as 255, so only the top band survives.
const confidentForeground = 250

// MotionExtractor reduces a raw foreground map to a clean binary motion
// mask: keep only confident foreground, then a single morphological
// opening to knock out speckle noise.
type MotionExtractor struct {
	kernel gocv.Mat
}

func NewMotionExtractor() *MotionExtractor {
	return &MotionExtractor{
		kernel: gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3)),
	}
}

func (e *MotionExtractor) Extract(fg gocv.Mat, mask *gocv.Mat) {
	gocv.Threshold(fg, mask, confidentForeground, 255, gocv.ThresholdBinary)
	gocv.MorphologyEx(*mask, mask, gocv.MorphOpen, e.kernel)
}

func (e *MotionExtractor) Close() {
	e.kernel.Close()
}
