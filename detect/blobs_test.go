package detect

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// fillRect paints a filled rectangle onto a mask. OpenCV treats both
// corners as inclusive, so Rect(10,10,50,50) covers 41x41 pixels and its
// contour area computes to exactly 40*40.
func fillRect(m *gocv.Mat, r image.Rectangle) {
	gocv.Rectangle(m, r, white, -1)
}

func newMask(t *testing.T) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestFindBlobsEmptyMask(t *testing.T) {
	mask := newMask(t)
	ev := FindBlobs(mask, 500)
	assert.False(t, ev.Detected)
	assert.Empty(t, ev.Blobs)
	assert.Zero(t, ev.TotalArea)
}

func TestFindBlobsAreaBoundary(t *testing.T) {
	mask := newMask(t)
	fillRect(&mask, image.Rect(10, 10, 50, 50)) // contour area 1600

	t.Run("strictly above passes", func(t *testing.T) {
		ev := FindBlobs(mask, 1599)
		require.True(t, ev.Detected)
		require.Len(t, ev.Blobs, 1)
		assert.Equal(t, 1600.0, ev.TotalArea)
	})

	t.Run("exactly at threshold fails", func(t *testing.T) {
		ev := FindBlobs(mask, 1600)
		assert.False(t, ev.Detected)
		assert.Empty(t, ev.Blobs)
		assert.Zero(t, ev.TotalArea)
	})
}

func TestFindBlobsBoundingBox(t *testing.T) {
	mask := newMask(t)
	fillRect(&mask, image.Rect(100, 80, 140, 120))

	ev := FindBlobs(mask, 100)
	require.Len(t, ev.Blobs, 1)
	b := ev.Blobs[0]
	assert.Equal(t, image.Pt(100, 80), b.Min)
	assert.Equal(t, 41, b.Dx())
	assert.Equal(t, 41, b.Dy())
}

func TestFindBlobsMultipleRegions(t *testing.T) {
	mask := newMask(t)
	fillRect(&mask, image.Rect(10, 10, 50, 50))    // area 1600
	fillRect(&mask, image.Rect(200, 200, 260, 240)) // area 60*40 = 2400

	ev := FindBlobs(mask, 1000)
	require.True(t, ev.Detected)
	require.Len(t, ev.Blobs, 2)
	assert.Equal(t, 4000.0, ev.TotalArea)
}

func TestFindBlobsFiltersSmallRegions(t *testing.T) {
	mask := newMask(t)
	fillRect(&mask, image.Rect(10, 10, 50, 50))   // area 1600, survives
	fillRect(&mask, image.Rect(300, 300, 310, 310)) // area 100, dropped

	ev := FindBlobs(mask, 500)
	require.Len(t, ev.Blobs, 1)
	assert.Equal(t, image.Pt(10, 10), ev.Blobs[0].Min)
	assert.Equal(t, 1600.0, ev.TotalArea)
}
