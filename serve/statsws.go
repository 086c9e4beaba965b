package serve

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"scarecam/scare"
)

const (
	// Time allowed to write a message to the client.
	writeWait  = 10 * time.Second
	pingPeriod = 10 * time.Second
)

// StatsUpdater pushes status JSON to connected websocket clients. The
// display pump feeds it periodic reports and fired scares arrive
// immediately.
type StatsUpdater struct {
	upgrader websocket.Upgrader
	cs       map[chan []byte]bool
	addc     chan chan []byte
	delc     chan chan []byte
	pushc    chan []byte
}

func NewStatsUpdater() *StatsUpdater {
	m := &StatsUpdater{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		cs:    make(map[chan []byte]bool),
		addc:  make(chan chan []byte),
		delc:  make(chan chan []byte),
		pushc: make(chan []byte),
	}
	go func() {
		for {
			select {
			case c := <-m.addc:
				m.cs[c] = true
			case c := <-m.delc:
				delete(m.cs, c)
			case p := <-m.pushc:
				for c := range m.cs {
					// A client that can't keep up skips updates.
					select {
					case c <- p:
					default:
					}
				}
			}
		}
	}()
	return m
}

func (m *StatsUpdater) push(v interface{}) {
	js, err := json.Marshal(v)
	if err != nil {
		log.Errorf("Failed to marshal stats push: %v", err)
		return
	}
	m.pushc <- js
}

// Push broadcasts a periodic status report.
func (m *StatsUpdater) Push(r scare.Report) {
	m.push(r)
}

// ScareFired broadcasts the fired scare right away rather than waiting
// for the next stats tick.
func (m *StatsUpdater) ScareFired(ev scare.FireEvent) {
	m.push(ev)
}

func (m *StatsUpdater) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.WithField("addr", r.RemoteAddr).Errorf("Websocket handshake failed for stats stream: %v", err)
		}
		return
	}
	go m.serve(ws)
}

func (m *StatsUpdater) serve(ws *websocket.Conn) {
	clog := log.WithField("addr", ws.RemoteAddr())
	clog.Info("connected to stats socket")
	defer func() {
		ws.Close()
		clog.Info("disconnected from stats socket")
	}()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	updates := make(chan []byte, 4)
	m.addc <- updates
	defer func() { m.delc <- updates }()

	// Even though we don't care about incoming messages, we need to read
	// from the socket in order to process control messages.
	go func() {
		for {
			if _, _, err := ws.NextReader(); err != nil {
				ws.Close()
				return
			}
		}
	}()

	for {
		select {
		case p := <-updates:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, p); err != nil {
				return
			}
		case <-pingTicker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}
