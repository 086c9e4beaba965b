// Package eventlog persists fired scares to a sqlite database so the
// event history survives restarts. Snapshot JPEGs are stored alongside
// the database on disk, keyed by event ID.
package eventlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"scarecam/scare"
)

// ScareEvent is one fired scare as stored in the database.
type ScareEvent struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"time"`
	Blobs        int       `json:"blobs"`
	TotalArea    float64   `json:"total_area"`
	Clip         string    `json:"clip"`
	SnapshotPath string    `json:"-"`
	HasSnapshot  bool      `gorm:"-" json:"has_snapshot"`
}

// Log records scare events and their snapshots under a data directory.
type Log struct {
	db      *gorm.DB
	snapDir string
}

// Open creates the data directory if needed, opens the sqlite database
// inside it, and migrates the schema.
func Open(dataDir string) (*Log, error) {
	snapDir := filepath.Join(dataDir, "snapshots")
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(dataDir, "scarecam.db")), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open event database: %v", err)
	}
	if err := db.AutoMigrate(&ScareEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate event database: %v", err)
	}

	return &Log{db: db, snapDir: snapDir}, nil
}

// DB exposes the underlying handle so other components (web push
// subscriptions) can share the same database file.
func (l *Log) DB() *gorm.DB {
	return l.db
}

// ScareFired records the event and writes its snapshot JPEG. Failures
// are logged rather than surfaced since the scare has already fired.
func (l *Log) ScareFired(ev scare.FireEvent) {
	rec := &ScareEvent{
		ID:        ev.ID,
		CreatedAt: ev.Time,
		Blobs:     ev.Blobs,
		TotalArea: ev.TotalArea,
		Clip:      ev.Clip,
	}

	if len(ev.Snapshot) > 0 {
		p := filepath.Join(l.snapDir, ev.ID+".jpg")
		if err := os.WriteFile(p, ev.Snapshot, 0644); err != nil {
			log.Errorf("Failed to write snapshot for event %v: %v", ev.ID, err)
		} else {
			rec.SnapshotPath = p
		}
	}

	if err := l.db.Create(rec).Error; err != nil {
		log.Errorf("Failed to record scare event %v: %v", ev.ID, err)
	}
}

// Recent returns up to limit events, newest first.
func (l *Log) Recent(limit int) ([]ScareEvent, error) {
	var evs []ScareEvent
	if err := l.db.Order("created_at desc").Limit(limit).Find(&evs).Error; err != nil {
		return nil, fmt.Errorf("failed to load events: %v", err)
	}
	for i := range evs {
		evs[i].HasSnapshot = evs[i].SnapshotPath != ""
	}
	return evs, nil
}

// SnapshotPath resolves an event ID to its snapshot file.
func (l *Log) SnapshotPath(id string) (string, error) {
	var ev ScareEvent
	if err := l.db.First(&ev, "id = ?", id).Error; err != nil {
		return "", fmt.Errorf("no such event %v: %v", id, err)
	}
	if ev.SnapshotPath == "" {
		return "", fmt.Errorf("event %v has no snapshot", id)
	}
	return ev.SnapshotPath, nil
}

// PruneLoop prunes once at startup and then hourly until ctx is
// cancelled.
func (l *Log) PruneLoop(ctx context.Context, keep time.Duration) {
	if err := l.Prune(keep); err != nil {
		log.Errorf("Event prune failed: %v", err)
	}
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := l.Prune(keep); err != nil {
				log.Errorf("Event prune failed: %v", err)
			}
		}
	}
}

// Prune deletes events older than keep along with their snapshots.
func (l *Log) Prune(keep time.Duration) error {
	cutoff := time.Now().Add(-keep)

	var old []ScareEvent
	if err := l.db.Where("created_at < ?", cutoff).Find(&old).Error; err != nil {
		return fmt.Errorf("failed to find expired events: %v", err)
	}
	if len(old) == 0 {
		return nil
	}

	for _, ev := range old {
		if ev.SnapshotPath == "" {
			continue
		}
		if err := os.Remove(ev.SnapshotPath); err != nil && !os.IsNotExist(err) {
			log.Warnf("Failed to remove snapshot for event %v: %v", ev.ID, err)
		}
	}
	if err := l.db.Where("created_at < ?", cutoff).Delete(&ScareEvent{}).Error; err != nil {
		return fmt.Errorf("failed to delete expired events: %v", err)
	}
	log.Infof("Pruned %d expired events", len(old))
	return nil
}
