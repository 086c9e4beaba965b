package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// Fallback cue played when no sound files are loaded: one second of a low
// 200 Hz tone pulsed by a 6 Hz tremolo.
const (
	cueToneHz    = 200
	cueTremoloHz = 6
	cueDuration  = time.Second
)

func synthCue(sr beep.SampleRate) *beep.Buffer {
	buf := beep.NewBuffer(beep.Format{
		SampleRate:  sr,
		NumChannels: 2,
		Precision:   2,
	})

	total := sr.N(cueDuration)
	n := 0
	buf.Append(beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if n >= total {
			return 0, false
		}
		filled := 0
		for i := range samples {
			if n >= total {
				break
			}
			at := float64(n) / float64(sr)
			tone := math.Sin(2 * math.Pi * cueToneHz * at)
			tremolo := 0.5 + 0.5*math.Sin(2*math.Pi*cueTremoloHz*at)
			v := tone * tremolo
			samples[i][0] = v
			samples[i][1] = v
			n++
			filled++
		}
		return filled, true
	}))
	return buf
}
