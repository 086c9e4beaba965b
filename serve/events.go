package serve

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/samber/lo"

	"scarecam/eventlog"
)

const defaultEventLimit = 50

// EventStore provides the persisted scare history.
type EventStore interface {
	Recent(limit int) ([]eventlog.ScareEvent, error)
	SnapshotPath(id string) (string, error)
}

type EventEntry struct {
	ID           string  `json:"id"`
	Timestamp    int64   `json:"timestamp"`
	Blobs        int     `json:"blobs"`
	TotalArea    float64 `json:"total_area"`
	Clip         string  `json:"clip"`
	HaveSnapshot bool    `json:"have_snapshot"`
}

type EventsResponse struct {
	Items           []*EventEntry `json:"items"`
	ItemsCount      int           `json:"items_count"`
	OldestTimestamp int64         `json:"oldest_timestamp,omitempty"`
}

// EventServer serves the scare history as JSON, newest first.
type EventServer struct {
	Events EventStore
}

func (s *EventServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := defaultEventLimit
	if v := r.Form.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	evs, err := s.Events.Recent(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := &EventsResponse{
		Items: lo.Map(evs, func(ev eventlog.ScareEvent, _ int) *EventEntry {
			return &EventEntry{
				ID:           ev.ID,
				Timestamp:    ev.CreatedAt.Unix(),
				Blobs:        ev.Blobs,
				TotalArea:    ev.TotalArea,
				Clip:         ev.Clip,
				HaveSnapshot: ev.HasSnapshot,
			}
		}),
		ItemsCount: len(evs),
	}
	if len(evs) > 0 {
		resp.OldestTimestamp = evs[len(evs)-1].CreatedAt.Unix()
	}

	js, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}

// SnapshotServer serves the stored JPEG for one event by id.
type SnapshotServer struct {
	Events EventStore
}

func (s *SnapshotServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.Form.Get("id")
	p, err := s.Events.SnapshotPath(id)
	if err != nil {
		http.Error(w, fmt.Sprintf("No snapshot found for id %v", id), http.StatusNotFound)
		return
	}

	f, err := os.Open(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Add("Content-Type", "image/jpeg")
	io.Copy(w, f)
}
