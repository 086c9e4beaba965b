package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scarecam",
		Name:      "frames_processed_total",
		Help:      "Frames read from the camera and run through the pipeline.",
	})

	FrameErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scarecam",
		Name:      "frame_read_errors_total",
		Help:      "Camera reads that failed and were skipped.",
	})

	DetectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scarecam",
		Name:      "motion_frames_total",
		Help:      "Frames in which motion was detected.",
	})

	TriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scarecam",
		Name:      "scare_triggers_total",
		Help:      "Scares dispatched, by kind.",
	}, []string{"kind"})

	FrameSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scarecam",
		Name:      "frame_processing_seconds",
		Help:      "Wall time spent processing a single frame.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)

const (
	// Label values for TriggersTotal.
	KindMotion = "motion"
	KindTest   = "test"
)
