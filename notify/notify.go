// Package notify fans fired scares out to notification channels such
// as web push and MQTT. Notifications are gated by quiet hours; the
// scare itself is not, so the audio always plays.
package notify

import (
	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"scarecam/scare"
)

// Notification is sent to all Listeners registered with Notifier.
type Notification struct {
	ID         string  `json:"id"`
	TimeString string  `json:"time"`
	Blobs      int     `json:"blobs"`
	TotalArea  float64 `json:"total_area"`
	Clip       string  `json:"clip"`
}

type Listener interface {
	Notify(n *Notification) error
}

type Notifier struct {
	Listeners []Listener

	// Quiet hours bound the local hours during which notifications are
	// sent. Equal values disable the gate.
	HoursStart int
	HoursEnd   int
}

func (n *Notifier) withinHours(h int) bool {
	if n.HoursStart == n.HoursEnd {
		return true
	}
	if n.HoursStart < n.HoursEnd {
		return h >= n.HoursStart && h < n.HoursEnd
	}
	// Window wraps midnight.
	return h >= n.HoursStart || h < n.HoursEnd
}

// ScareFired is invoked when a scare fires.
func (n *Notifier) ScareFired(ev scare.FireEvent) {
	if !n.withinHours(ev.Time.Hour()) {
		log.Infof("Would send notification, but currently in quiet hours.")
		return
	}

	notification := &Notification{
		ID:         ev.ID,
		TimeString: ev.Time.Format("3:04 PM"),
		Blobs:      ev.Blobs,
		TotalArea:  ev.TotalArea,
		Clip:       ev.Clip,
	}
	log.Infof("Sending notification: %v", spew.Sdump(notification))
	for _, l := range n.Listeners {
		go func(l Listener) {
			if err := l.Notify(notification); err != nil {
				log.Errorf("Failed to send notification: %v", err)
			}
		}(l)
	}
}
