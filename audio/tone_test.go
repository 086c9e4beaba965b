package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthCueLength(t *testing.T) {
	t.Parallel()
	cue := synthCue(sampleRate)
	// Exactly one second of audio at the output rate.
	assert.Equal(t, int(sampleRate), cue.Len())
}

func TestSynthCueEnvelope(t *testing.T) {
	t.Parallel()
	cue := synthCue(sampleRate)

	s := cue.Streamer(0, cue.Len())
	samples := make([][2]float64, cue.Len())
	n, ok := s.Stream(samples)
	require.True(t, ok)
	samples = samples[:n]
	require.NotEmpty(t, samples)

	var peak float64
	for _, sm := range samples {
		assert.Equal(t, sm[0], sm[1], "cue should be identical on both channels")
		if a := math.Abs(sm[0]); a > peak {
			peak = a
		}
	}
	// The tremolo caps the product of the two unit sines below 1.
	assert.Greater(t, peak, 0.5)
	assert.LessOrEqual(t, peak, 1.0)

	// The first sample starts the tone at the zero crossing. The buffer
	// quantizes to 16 bits, so allow a step of slack.
	assert.InDelta(t, 0, samples[0][0], 1.0/32768)
}
