package config

import (
	"sync/atomic"
	"time"
)

// Settings holds the tunables an operator can change while the camera is
// running. The processing loop reads them fresh at the top of every frame,
// so each accessor is an independent atomic; a frame observes each value
// at most once.
type Settings struct {
	sensitivity atomic.Int64
	minBlobArea atomic.Int64
	cooldownSec atomic.Int64
	paused      atomic.Bool
}

func NewSettings(c *Config) *Settings {
	s := &Settings{}
	s.ApplyConfig(c)
	return s
}

// ApplyConfig replaces the detection tunables with the ones from c. Called
// at startup and again on every config file reload.
func (s *Settings) ApplyConfig(c *Config) {
	s.SetSensitivity(c.Sensitivity)
	s.SetMinBlobArea(c.MinBlobArea)
	s.SetCooldownSeconds(c.CooldownSeconds)
}

func (s *Settings) Sensitivity() int {
	return int(s.sensitivity.Load())
}

func (s *Settings) SetSensitivity(v int) {
	s.sensitivity.Store(int64(clamp(v, SensitivityMin, SensitivityMax)))
}

func (s *Settings) MinBlobArea() float64 {
	return float64(s.minBlobArea.Load())
}

func (s *Settings) SetMinBlobArea(v int) {
	s.minBlobArea.Store(int64(clamp(v, MinBlobAreaMin, MinBlobAreaMax)))
}

func (s *Settings) Cooldown() time.Duration {
	return time.Duration(s.cooldownSec.Load()) * time.Second
}

func (s *Settings) SetCooldownSeconds(v int) {
	s.cooldownSec.Store(int64(clamp(v, CooldownSecondsMin, CooldownSecondsMax)))
}

func (s *Settings) Paused() bool {
	return s.paused.Load()
}

func (s *Settings) SetPaused(v bool) {
	s.paused.Store(v)
}

// TogglePaused flips the paused flag and returns the new value.
func (s *Settings) TogglePaused() bool {
	for {
		old := s.paused.Load()
		if s.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Detection is a point-in-time copy of the tunables, used for status
// reporting.
type Detection struct {
	Sensitivity     int  `json:"sensitivity"`
	MinBlobArea     int  `json:"min_blob_area"`
	CooldownSeconds int  `json:"cooldown_seconds"`
	Paused          bool `json:"paused"`
}

func (s *Settings) Snapshot() Detection {
	return Detection{
		Sensitivity:     int(s.sensitivity.Load()),
		MinBlobArea:     int(s.minBlobArea.Load()),
		CooldownSeconds: int(s.cooldownSec.Load()),
		Paused:          s.paused.Load(),
	}
}
