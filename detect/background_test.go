package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestVarThreshold(t *testing.T) {
	t.Parallel()
	// The default sensitivity maps onto the stock OpenCV threshold.
	assert.Equal(t, 16.0, varThreshold(25))
	// More sensitive means a lower variance threshold.
	assert.Greater(t, varThreshold(10), varThreshold(100))
}

func TestBackgroundModelWarmup(t *testing.T) {
	b := NewBackgroundModel(25)
	defer b.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	fg := gocv.NewMat()
	defer fg.Close()

	for i := 0; i < WarmupFrames; i++ {
		assert.False(t, b.Ready(), "frame %d should still be warming up", i)
		b.Apply(frame, &fg)
	}
	// The frame that completes the warm-up is itself undecidable.
	assert.False(t, b.Ready())

	b.Apply(frame, &fg)
	assert.True(t, b.Ready())
}
