package detect

import (
	"gocv.io/x/gocv"

	"scarecam/video/sink"
)

// Detector chains the per-frame motion pipeline: background subtraction,
// mask extraction, blob filtering. It owns its intermediate Mats and is
// not safe for concurrent use; the processing loop is its only caller.
type Detector struct {
	bg *BackgroundModel
	ex *MotionExtractor

	// Optional debug taps, published as MJPEG streams.
	debug *sink.MJPEGStreamPool

	fg   gocv.Mat
	mask gocv.Mat
}

type Options struct {
	// Sensitivity tunes the background model, 10..100. Takes effect when
	// the detector is built, not per frame.
	Sensitivity int

	// Debug receives intermediate pipeline images when non-nil.
	Debug *sink.MJPEGStreamPool
}

func NewDetector(opts Options) *Detector {
	return &Detector{
		bg:    NewBackgroundModel(opts.Sensitivity),
		ex:    NewMotionExtractor(),
		debug: opts.Debug,
		fg:    gocv.NewMat(),
		mask:  gocv.NewMat(),
	}
}

// Warm absorbs a frame into the background model without making a
// detection decision. Used while connecting, before the loop starts.
func (d *Detector) Warm(frame gocv.Mat) {
	d.bg.Apply(frame, &d.fg)
}

// Ready reports whether the background model has absorbed enough frames
// to produce detections.
func (d *Detector) Ready() bool {
	return d.bg.Ready()
}

// Process runs one frame through the pipeline. The returned mask is owned
// by the detector and is only valid until the next Process or Warm call;
// callers that keep it must copy it. Before the background model is warm
// the event is always empty and the mask is all black.
func (d *Detector) Process(frame gocv.Mat, minArea float64) (Event, gocv.Mat) {
	d.bg.Apply(frame, &d.fg)

	if !d.bg.Ready() {
		if d.mask.Empty() {
			d.mask.Close()
			d.mask = gocv.NewMatWithSize(frame.Rows(), frame.Cols(), gocv.MatTypeCV8UC1)
		} else {
			d.mask.SetTo(gocv.NewScalar(0, 0, 0, 0))
		}
		return Event{}, d.mask
	}

	if d.debug != nil {
		d.debug.Put("motion", d.fg)
	}

	d.ex.Extract(d.fg, &d.mask)

	if d.debug != nil {
		d.debug.Put("motionmask", d.mask)
	}

	return FindBlobs(d.mask, minArea), d.mask
}

func (d *Detector) Close() {
	d.bg.Close()
	d.ex.Close()
	d.fg.Close()
	d.mask.Close()
}
