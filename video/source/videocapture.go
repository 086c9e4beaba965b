package source

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"
)

// VideoCapture reads frames from an OpenCV capture device. The buffer size
// is pinned to a single frame so a slow consumer sees the present, not a
// backlog of stale frames.
type VideoCapture struct {
	cap  *gocv.VideoCapture
	pool *MatPool
	size image.Point
}

// OpenVideoCapture connects to uri (a device index or a stream URL) and
// configures the requested geometry and rate. The device may not honor
// every property; Size reports what it actually settled on.
func OpenVideoCapture(uri string, width, height, fps int) (*VideoCapture, error) {
	cap, err := gocv.OpenVideoCapture(uri)
	if err != nil {
		return nil, fmt.Errorf("open capture %q: %w", uri, err)
	}
	cap.Set(gocv.VideoCaptureFrameWidth, float64(width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(height))
	cap.Set(gocv.VideoCaptureFPS, float64(fps))
	cap.Set(gocv.VideoCaptureBufferSize, 1)

	size := image.Pt(
		int(cap.Get(gocv.VideoCaptureFrameWidth)),
		int(cap.Get(gocv.VideoCaptureFrameHeight)))
	if size.X == 0 || size.Y == 0 {
		size = image.Pt(width, height)
	}

	return &VideoCapture{
		cap:  cap,
		pool: NewMatPool(),
		size: size,
	}, nil
}

func (v *VideoCapture) Read() (*Frame, error) {
	f := &Frame{
		Mat:  v.pool.NewMat(),
		Time: time.Now(),
		pool: v.pool,
	}
	if ok := v.cap.Read(&f.Mat); !ok {
		f.Close()
		return nil, fmt.Errorf("capture read failed")
	}
	if f.Mat.Empty() {
		f.Close()
		return nil, fmt.Errorf("capture produced empty frame")
	}
	return f, nil
}

func (v *VideoCapture) Size() image.Point {
	return v.size
}

func (v *VideoCapture) Close() error {
	v.pool.Close()
	return v.cap.Close()
}
