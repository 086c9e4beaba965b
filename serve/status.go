// Package serve provides the HTTP surface: status and event queries,
// runtime controls, snapshot serving and the stats websocket.
package serve

import (
	"encoding/json"
	"net/http"

	"scarecam/scare"
)

// System is the part of the scare pipeline the HTTP layer talks to.
type System interface {
	Report() scare.Report
	TestTrigger() string
}

// SoundBank exposes the loaded scare sounds.
type SoundBank interface {
	Clips() []string
	Reload() error
}

// StatusResponse extends the pipeline report with what else the
// operator page needs to render itself.
type StatusResponse struct {
	scare.Report

	Sounds  []string `json:"sounds"`
	Streams []string `json:"streams"`
}

// StatusServer serves the point-in-time system status as JSON.
type StatusServer struct {
	Sys    System
	Sounds SoundBank

	// StreamNames lists the available MJPEG streams.
	StreamNames func() []string
}

func (s *StatusServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := &StatusResponse{
		Report: s.Sys.Report(),
		Sounds: s.Sounds.Clips(),
	}
	if s.StreamNames != nil {
		resp.Streams = s.StreamNames()
	}

	js, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}
