package sink

import (
	"gocv.io/x/gocv"
)

// Sink is a destination for a stream of images, such as an MJPEG stream or
// a local preview window.
type Sink interface {
	// Put inserts an image into the sink. The sink must not modify the
	// Mat or hold any reference to it after Put returns.
	Put(input gocv.Mat)

	// Close should be called to finalize the Sink.
	Close()
}
