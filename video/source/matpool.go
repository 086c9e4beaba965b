package source

import (
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// maxPoolMats bounds how many Mats a pool will hand out before concluding
// that frames are being leaked. The processing loop holds only a handful
// of frames at any moment.
const maxPoolMats = 128

// MatPool recycles Mats between frames to avoid reallocating image
// buffers thirty times a second. All bookkeeping happens on a single
// goroutine, so the pool is safe to use from multiple goroutines.
type MatPool struct {
	requests chan chan gocv.Mat
	returns  chan gocv.Mat
	quit     chan bool

	allocated int
	available []gocv.Mat
}

func NewMatPool() *MatPool {
	p := &MatPool{
		requests: make(chan chan gocv.Mat),
		returns:  make(chan gocv.Mat),
		quit:     make(chan bool),
	}
	go func() {
		closed := false
		for {
			select {
			case <-p.quit:
				closed = true
				for _, m := range p.available {
					m.Close()
					p.allocated -= 1
				}
				p.available = nil
			case m := <-p.returns:
				if closed {
					m.Close()
					p.allocated -= 1
				} else {
					p.available = append(p.available, m)
				}
			case r := <-p.requests:
				var m gocv.Mat
				if len(p.available) > 0 {
					m, p.available = p.available[0], p.available[1:]
				} else {
					m = gocv.NewMat()
					p.allocated += 1
					if p.allocated > maxPoolMats {
						log.Fatalf("Too many MatPool allocations. Perhaps a Frame isn't being closed?")
					}
				}
				r <- m
			}
		}
	}()
	return p
}

func (p *MatPool) NewMat() gocv.Mat {
	r := make(chan gocv.Mat)
	p.requests <- r
	return <-r
}

func (p *MatPool) ReleaseMat(m gocv.Mat) {
	p.returns <- m
}

// Close releases all pooled Mats. Mats still checked out are closed as
// they are returned.
func (p *MatPool) Close() {
	p.quit <- true
}
