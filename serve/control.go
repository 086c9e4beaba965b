package serve

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"scarecam/config"
)

// ControlServer mutates runtime state: pausing detection, adjusting
// detection settings, test-firing the scare and reloading sounds.
type ControlServer struct {
	Settings *config.Settings
	Sys      System
	Sounds   SoundBank
}

func (s *ControlServer) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/control/pause", s.handlePause)
	mux.HandleFunc("/control/settings", s.handleSettings)
	mux.HandleFunc("/trigger", s.handleTrigger)
	mux.HandleFunc("/sounds/reload", s.handleReload)
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != "POST" {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	js, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}

// handlePause toggles detection when the body is empty, or sets the
// paused flag from a {"paused": bool} body.
func (s *ControlServer) handlePause(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		Paused *bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var paused bool
	if req.Paused != nil {
		s.Settings.SetPaused(*req.Paused)
		paused = *req.Paused
	} else {
		paused = s.Settings.TogglePaused()
	}
	log.Infof("Detection paused set to %v", paused)

	writeJSON(w, map[string]bool{"paused": paused})
}

// handleSettings applies a partial settings update. Absent fields keep
// their current values; out-of-range values are clamped. A sensitivity
// change takes effect the next time the camera connects.
func (s *ControlServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		Sensitivity     *int `json:"sensitivity"`
		MinBlobArea     *int `json:"min_blob_area"`
		CooldownSeconds *int `json:"cooldown_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Sensitivity != nil {
		s.Settings.SetSensitivity(*req.Sensitivity)
	}
	if req.MinBlobArea != nil {
		s.Settings.SetMinBlobArea(*req.MinBlobArea)
	}
	if req.CooldownSeconds != nil {
		s.Settings.SetCooldownSeconds(*req.CooldownSeconds)
	}

	snap := s.Settings.Snapshot()
	log.Infof("Detection settings updated: %+v", snap)
	writeJSON(w, snap)
}

// handleTrigger fires the scare sound directly, bypassing detection,
// cooldown and statistics.
func (s *ControlServer) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	clip := s.Sys.TestTrigger()

	w.Header().Add("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, clip)
}

func (s *ControlServer) handleReload(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := s.Sounds.Reload(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string][]string{"sounds": s.Sounds.Clips()})
}
