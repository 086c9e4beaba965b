package audio

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	log "github.com/sirupsen/logrus"
)

const (
	// Output format. Matches the clip pre-decode rate, so playback never
	// resamples.
	sampleRate = beep.SampleRate(22050)

	// Speaker buffer in samples. Small, to keep the scare close on the
	// heels of the detection.
	speakerBuffer = 512
)

type clip struct {
	name string
	buf  *beep.Buffer
}

// Dispatcher owns the library of scare clips and plays one at random on
// demand. Clips are decoded into memory up front; Play hands a fresh
// streamer to the speaker and returns immediately. With no clips loaded
// it falls back to a synthesized cue, so a scare always makes a sound.
type Dispatcher struct {
	dir string
	cue *beep.Buffer

	// play dispatches a streamer to the output. Nil when the audio
	// device failed to open, in which case Play degrades to a log line.
	play func(beep.Streamer)

	mu    sync.Mutex
	clips []clip
}

func NewDispatcher(soundsDir string) *Dispatcher {
	d := &Dispatcher{
		dir: soundsDir,
		cue: synthCue(sampleRate),
	}
	if err := speaker.Init(sampleRate, speakerBuffer); err != nil {
		log.Errorf("Audio device unavailable, scares will be silent: %v", err)
	} else {
		d.play = func(s beep.Streamer) {
			speaker.Play(s)
		}
	}
	if err := d.Reload(); err != nil {
		log.Errorf("Failed to load scare sounds: %v", err)
	}
	return d
}

// Reload rescans the sounds directory and swaps in the new clip set. A
// missing directory is not an error; it just means the synthesized cue
// will be used.
func (d *Dispatcher) Reload() error {
	entries, err := os.ReadDir(d.dir)
	if os.IsNotExist(err) {
		log.Warnf("Sounds directory %q does not exist, using synthesized cue", d.dir)
		d.mu.Lock()
		d.clips = nil
		d.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	var clips []clip
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".wav" && ext != ".mp3" && ext != ".ogg" {
			continue
		}
		c, err := loadClip(filepath.Join(d.dir, e.Name()), ext)
		if err != nil {
			log.Errorf("Skipping %v: %v", e.Name(), err)
			continue
		}
		clips = append(clips, c)
	}

	d.mu.Lock()
	d.clips = clips
	d.mu.Unlock()

	log.Infof("Loaded %d scare sounds from %v", len(clips), d.dir)
	return nil
}

func loadClip(path, ext string) (clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return clip{}, err
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".ogg":
		s, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return clip{}, fmt.Errorf("unsupported extension %q", ext)
	}
	if err != nil {
		f.Close()
		return clip{}, fmt.Errorf("decode: %w", err)
	}
	defer s.Close()

	buf := beep.NewBuffer(beep.Format{
		SampleRate:  sampleRate,
		NumChannels: 2,
		Precision:   2,
	})
	if format.SampleRate != sampleRate {
		buf.Append(beep.Resample(4, format.SampleRate, sampleRate, s))
	} else {
		buf.Append(s)
	}

	return clip{name: filepath.Base(path), buf: buf}, nil
}

// Play starts one clip (or the synthesized cue) and returns immediately.
// It never blocks on playback and each call dispatches exactly once.
// Returns the name of what was played.
func (d *Dispatcher) Play() string {
	d.mu.Lock()
	var c clip
	if len(d.clips) > 0 {
		c = d.clips[rand.Intn(len(d.clips))]
	} else {
		c = clip{name: "synthesized cue", buf: d.cue}
	}
	d.mu.Unlock()

	if d.play == nil {
		log.Warnf("No audio device, skipping playback of %v", c.name)
		return c.name
	}
	d.play(c.buf.Streamer(0, c.buf.Len()))
	log.WithField("clip", c.name).Info("Dispatched scare sound")
	return c.name
}

// Clips returns the names of the loaded clips, for status reporting.
func (d *Dispatcher) Clips() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.clips))
	for _, c := range d.clips {
		names = append(names, c.name)
	}
	return names
}
