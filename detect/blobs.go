package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// Event describes the motion found in a single frame.
type Event struct {
	// Detected is true when at least one blob survived the area filter.
	Detected bool

	// Blobs are the bounding boxes of the surviving motion regions, in
	// no particular order.
	Blobs []image.Rectangle

	// TotalArea is the summed contour area of the surviving blobs, in
	// pixels.
	TotalArea float64
}

// FindBlobs extracts the connected motion regions from a binary mask and
// keeps the ones strictly larger than minArea. A region exactly at
// minArea does not count.
func FindBlobs(mask gocv.Mat, minArea float64) Event {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var ev Event
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area <= minArea {
			continue
		}
		ev.Blobs = append(ev.Blobs, gocv.BoundingRect(c))
		ev.TotalArea += area
	}
	ev.Detected = len(ev.Blobs) > 0
	return ev
}
