package detect

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

var (
	colorAlert    = color.RGBA{R: 255, A: 255}
	colorOK       = color.RGBA{G: 255, A: 255}
	colorText     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorCooldown = color.RGBA{R: 255, G: 255, A: 255}
)

// Status is the point-in-time trigger state the overlay stamps onto the
// frame.
type Status struct {
	Detections    int64
	LastDetection time.Time
	LastTrigger   time.Time
	Cooldown      time.Duration
}

// RenderOverlay composites the motion mask in red over the frame, draws a
// box around each blob and stamps the status text. The inputs are left
// untouched; the caller owns the returned Mat. The cooldown countdown is
// drawn only while the cooldown is actually running.
func RenderOverlay(frame, mask gocv.Mat, ev Event, st Status, now time.Time) gocv.Mat {
	out := frame.Clone()

	if !mask.Empty() {
		// Spread the mask into the red channel only, then blend. This
		// dims the scene slightly and paints moving regions red.
		zero := gocv.NewMatWithSize(mask.Rows(), mask.Cols(), gocv.MatTypeCV8UC1)
		colored := gocv.NewMat()
		gocv.Merge([]gocv.Mat{zero, zero, mask}, &colored)
		gocv.AddWeighted(out, 0.7, colored, 0.3, 0, &out)
		colored.Close()
		zero.Close()
	}

	for _, r := range ev.Blobs {
		gocv.Rectangle(&out, r, colorAlert, 2)
	}

	font := gocv.FontHersheySimplex

	status := "Monitoring..."
	statusColor := colorOK
	if ev.Detected {
		status = "MOTION DETECTED!"
		statusColor = colorAlert
	}
	gocv.PutText(&out, status, image.Pt(10, 30), font, 0.7, statusColor, 2)

	gocv.PutText(&out, fmt.Sprintf("Detections: %d", st.Detections),
		image.Pt(10, 60), font, 0.6, colorText, 2)

	if !st.LastDetection.IsZero() {
		gocv.PutText(&out, "Last: "+st.LastDetection.Format("15:04:05"),
			image.Pt(10, 90), font, 0.5, colorText, 1)
	}

	if remaining := st.Cooldown - now.Sub(st.LastTrigger); remaining > 0 && !st.LastTrigger.IsZero() {
		gocv.PutText(&out, fmt.Sprintf("Cooldown: %.1fs", remaining.Seconds()),
			image.Pt(10, 120), font, 0.6, colorCooldown, 2)
	}

	return out
}
