package scare

import (
	"context"
	"time"

	"scarecam/video/sink"
)

// StatsUpdater receives periodic status reports for pushing to connected
// dashboards.
type StatsUpdater interface {
	Push(Report)
}

const (
	// Display refresh. The camera runs at 30 fps; pushing faster only
	// duplicates frames.
	defaultFrameInterval = 33 * time.Millisecond

	// Stats push cadence.
	defaultStatsInterval = time.Second
)

type PumpOptions struct {
	// Live receives the annotated view, Mask the binary motion mask.
	Live []sink.Sink
	Mask []sink.Sink

	// Updater, when non-nil, gets a status report every StatsInterval.
	Updater StatsUpdater

	FrameInterval time.Duration
	StatsInterval time.Duration
}

// Pump is the display task: it copies the latest processing results out
// to the video sinks and the stats updater on its own cadence, never
// touching the processing loop itself.
type Pump struct {
	sys  *System
	opts PumpOptions
}

func NewPump(sys *System, opts PumpOptions) *Pump {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaultFrameInterval
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = defaultStatsInterval
	}
	return &Pump{sys: sys, opts: opts}
}

func (p *Pump) Run(ctx context.Context) {
	frames := time.NewTicker(p.opts.FrameInterval)
	defer frames.Stop()
	stats := time.NewTicker(p.opts.StatsInterval)
	defer stats.Stop()

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			return

		case <-frames.C:
			// The bundle Mats are only safe under the system mutex; the
			// sinks copy what they need before Put returns.
			p.sys.mu.Lock()
			cur := &p.sys.cur
			if cur.valid && cur.seq != lastSeq {
				lastSeq = cur.seq
				for _, s := range p.opts.Live {
					s.Put(cur.annotated)
				}
				if cur.maskValid {
					for _, s := range p.opts.Mask {
						s.Put(cur.mask)
					}
				}
			}
			p.sys.mu.Unlock()

		case <-stats.C:
			if p.opts.Updater != nil {
				p.opts.Updater.Push(p.sys.Report())
			}
		}
	}
}
