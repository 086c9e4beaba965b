package source

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Frame is a single captured image and its capture time. The Mat is owned
// by the Frame; Close must be called exactly once when the caller is done
// with it so the Mat can be reused.
type Frame struct {
	Mat  gocv.Mat
	Time time.Time

	pool   *MatPool
	closed bool
}

func (f *Frame) Close() {
	if f.closed {
		panic("frame already closed")
	}
	f.closed = true
	if f.pool != nil {
		f.pool.ReleaseMat(f.Mat)
		return
	}
	f.Mat.Close()
}

// Clone returns an independent copy of the frame backed by a fresh Mat.
func (f *Frame) Clone() *Frame {
	n := &Frame{
		Mat:  gocv.NewMat(),
		Time: f.Time,
	}
	f.Mat.CopyTo(&n.Mat)
	return n
}

// Source is a camera the processing loop pulls frames from, one at a time.
type Source interface {
	// Read blocks until the next frame is available. The returned frame
	// must be closed by the caller. A read failure is returned as an
	// error for that frame only; the source stays open and the next
	// Read tries again. No reconnection is attempted.
	Read() (*Frame, error)

	// Size returns the size of the capture source.
	Size() image.Point

	// Close disconnects from the capture source and frees up all
	// resources. Safe to call while no Read is in flight.
	Close() error
}
