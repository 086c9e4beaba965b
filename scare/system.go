package scare

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"scarecam/config"
	"scarecam/detect"
	"scarecam/metrics"
	"scarecam/util"
	"scarecam/video/sink"
	"scarecam/video/source"
)

// SoundPlayer dispatches one scare sound without blocking. It reports
// what it played.
type SoundPlayer interface {
	Play() string
}

// FireEvent describes one fired scare, handed to listeners off the
// processing loop.
type FireEvent struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Blobs     int       `json:"blobs"`
	TotalArea float64   `json:"total_area"`
	Clip      string    `json:"clip"`

	// Snapshot is the annotated frame at the moment of the scare,
	// JPEG-encoded. Omitted from JSON payloads.
	Snapshot []byte `json:"-"`
}

// FireListener consumes fired scares. Each listener runs on its own
// goroutine; a slow listener delays nobody.
type FireListener interface {
	ScareFired(FireEvent)
}

type Options struct {
	Source    source.Source
	Settings  *config.Settings
	Audio     SoundPlayer
	Listeners []FireListener

	// Debug receives intermediate detection images when non-nil.
	Debug *sink.MJPEGStreamPool
}

// System owns the whole detection-to-scare pipeline. A single goroutine
// (Run) reads frames, detects motion and decides scares; everything it
// learns is published as one unit into the latest bundle, which the
// display pump and the HTTP surface read under the same mutex.
type System struct {
	src       source.Source
	settings  *config.Settings
	audio     SoundPlayer
	listeners []FireListener
	debug     *sink.MJPEGStreamPool

	mu  sync.Mutex
	cur latest

	started atomic.Bool
	stopped *util.Event
}

// latest is the most recent processing result. The Mats are owned by the
// bundle and are replaced (and closed) wholesale on each publish.
type latest struct {
	seq       uint64
	raw       gocv.Mat
	annotated gocv.Mat
	mask      gocv.Mat
	maskValid bool
	status    detect.Status
	event     detect.Event
	when      time.Time
	valid     bool
}

func New(opts Options) *System {
	return &System{
		src:       opts.Source,
		settings:  opts.Settings,
		audio:     opts.Audio,
		listeners: opts.Listeners,
		debug:     opts.Debug,
		stopped:   util.NewEvent(),
	}
}

// Run drives the processing loop until ctx is canceled. It owns the
// source for its whole lifetime and releases it on the way out, so a
// stop is always a clean disconnect. There is no reconnect logic: a
// camera that goes away mid-session stays away until restart.
func (s *System) Run(ctx context.Context) error {
	s.started.Store(true)
	defer s.stopped.Notify()
	defer s.src.Close()

	det := detect.NewDetector(detect.Options{
		Sensitivity: s.settings.Sensitivity(),
		Debug:       s.debug,
	})
	defer det.Close()
	defer s.dropLatest()

	tr := NewTrigger(s.settings.Cooldown)

	s.warmup(ctx, det)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	log.Info("Background model warm, monitoring started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		f, err := s.src.Read()
		if err != nil {
			metrics.FrameErrors.Inc()
			log.Errorf("Frame read failed: %v", err)
			continue
		}

		s.step(f, det, tr)
		f.Close()
	}
}

// warmup absorbs the first frames into the background model before any
// detection decision is made. Read failures just shorten the warm-up;
// the detector stays conservative until it has seen enough.
func (s *System) warmup(ctx context.Context, det *detect.Detector) {
	for i := 0; i < detect.WarmupFrames; i++ {
		if ctx.Err() != nil {
			return
		}
		f, err := s.src.Read()
		if err != nil {
			log.Warnf("Warmup read failed: %v", err)
			continue
		}
		det.Warm(f.Mat)
		f.Close()
	}
}

// step processes a single frame: detect, maybe fire, render, publish.
func (s *System) step(f *source.Frame, det *detect.Detector, tr *Trigger) {
	start := time.Now()
	defer func() {
		metrics.FramesTotal.Inc()
		metrics.FrameSeconds.Observe(time.Since(start).Seconds())
	}()

	// One coherent view of the tunables for this frame.
	paused := s.settings.Paused()
	minArea := s.settings.MinBlobArea()
	cooldown := s.settings.Cooldown()

	if paused {
		// Detection is skipped entirely while paused; the live view
		// shows the raw frame and the mask goes stale.
		stats, lastTrigger := tr.Snapshot()
		st := detect.Status{
			Detections:    stats.Detections,
			LastDetection: stats.LastDetection,
			LastTrigger:   lastTrigger,
			Cooldown:      cooldown,
		}
		s.publishPaused(f, st)
		return
	}

	ev, mask := det.Process(f.Mat, minArea)

	fired := tr.Observe(ev.Detected)

	stats, lastTrigger := tr.Snapshot()
	st := detect.Status{
		Detections:    stats.Detections,
		LastDetection: stats.LastDetection,
		LastTrigger:   lastTrigger,
		Cooldown:      cooldown,
	}

	annotated := detect.RenderOverlay(f.Mat, mask, ev, st, time.Now())

	if fired {
		metrics.TriggersTotal.WithLabelValues(metrics.KindMotion).Inc()
		snap := annotated.Clone()
		go s.fire(ev, st, snap)
	}
	if ev.Detected {
		metrics.DetectionsTotal.Inc()
	}

	s.publish(f, annotated, mask, st, ev)
}

// fire runs the scare side effects away from the processing loop: play a
// sound, then hand the event to every listener on its own goroutine.
func (s *System) fire(ev detect.Event, st detect.Status, snap gocv.Mat) {
	defer snap.Close()

	clip := s.audio.Play()

	jpeg, err := gocv.IMEncode(".jpg", snap)
	if err != nil {
		log.Errorf("Failed to encode scare snapshot: %v", err)
		jpeg = nil
	}

	fe := FireEvent{
		ID:        uuid.NewString(),
		Time:      st.LastDetection,
		Blobs:     len(ev.Blobs),
		TotalArea: ev.TotalArea,
		Clip:      clip,
		Snapshot:  jpeg,
	}
	log.WithField("id", fe.ID).Infof("Scare fired: %d blobs, area %.0f, clip %v",
		fe.Blobs, fe.TotalArea, fe.Clip)

	for _, l := range s.listeners {
		go func(l FireListener) {
			l.ScareFired(fe)
		}(l)
	}
}

// TestTrigger plays a scare sound immediately, ignoring the paused mode
// and the cooldown. It mutates no trigger state and no stats.
func (s *System) TestTrigger() string {
	metrics.TriggersTotal.WithLabelValues(metrics.KindTest).Inc()
	clip := s.audio.Play()
	log.Infof("Test trigger dispatched %v", clip)
	return clip
}

// publish replaces the latest bundle as a single unit. The raw frame and
// mask are copied (their owners reuse them); the annotated Mat is handed
// over.
func (s *System) publish(f *source.Frame, annotated, mask gocv.Mat, st detect.Status, ev detect.Event) {
	raw := f.Mat.Clone()
	m := mask.Clone()

	s.mu.Lock()
	old := s.cur
	s.cur = latest{
		seq:       old.seq + 1,
		raw:       raw,
		annotated: annotated,
		mask:      m,
		maskValid: true,
		status:    st,
		event:     ev,
		when:      f.Time,
		valid:     true,
	}
	s.mu.Unlock()

	closeLatest(&old)
}

// publishPaused publishes the raw frame as the display view and carries
// the previous mask forward unchanged.
func (s *System) publishPaused(f *source.Frame, st detect.Status) {
	raw := f.Mat.Clone()
	annotated := f.Mat.Clone()

	s.mu.Lock()
	old := s.cur
	s.cur = latest{
		seq:       old.seq + 1,
		raw:       raw,
		annotated: annotated,
		mask:      old.mask,
		maskValid: old.maskValid,
		status:    st,
		when:      f.Time,
		valid:     true,
	}
	old.mask = gocv.Mat{}
	old.maskValid = false
	s.mu.Unlock()

	closeLatest(&old)
}

func (s *System) dropLatest() {
	s.mu.Lock()
	old := s.cur
	s.cur = latest{seq: old.seq}
	s.mu.Unlock()
	closeLatest(&old)
}

func closeLatest(l *latest) {
	if !l.valid {
		return
	}
	l.raw.Close()
	l.annotated.Close()
	if l.maskValid {
		l.mask.Close()
	}
}

// Report is the point-in-time status served over HTTP and pushed to the
// stats websocket.
type Report struct {
	Running           bool             `json:"running"`
	Detections        int64            `json:"detections"`
	LastDetection     string           `json:"last_detection,omitempty"`
	CooldownRemaining float64          `json:"cooldown_remaining_seconds"`
	MotionDetected    bool             `json:"motion_detected"`
	Blobs             int              `json:"blobs"`
	TotalArea         float64          `json:"total_area"`
	Settings          config.Detection `json:"settings"`
}

func (s *System) Report() Report {
	s.mu.Lock()
	cur := s.cur
	s.mu.Unlock()

	r := Report{
		Running:    s.started.Load() && !s.stopped.HasBeenNotified(),
		Detections: cur.status.Detections,
		Settings:   s.settings.Snapshot(),
	}
	if cur.valid {
		r.MotionDetected = cur.event.Detected
		r.Blobs = len(cur.event.Blobs)
		r.TotalArea = cur.event.TotalArea
		if !cur.status.LastDetection.IsZero() {
			r.LastDetection = cur.status.LastDetection.Format(time.RFC3339)
		}
		if !cur.status.LastTrigger.IsZero() {
			if remaining := cur.status.Cooldown - time.Since(cur.status.LastTrigger); remaining > 0 {
				r.CooldownRemaining = remaining.Seconds()
			}
		}
	}
	return r
}

// Stopped is notified once Run has exited and the camera is released.
func (s *System) Stopped() *util.Event {
	return s.stopped
}
