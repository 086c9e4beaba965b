package eventlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scarecam/scare"
)

func fireAt(t *testing.T, l *Log, id string, at time.Time, snapshot []byte) {
	t.Helper()
	l.ScareFired(scare.FireEvent{
		ID:        id,
		Time:      at,
		TotalArea: 1600,
		Clip:      "howl.wav",
		Snapshot:  snapshot,
	})
}

func TestRecordAndRecall(t *testing.T) {
	l, err := Open(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC)
	fireAt(t, l, "first", base, []byte("jpegbytes"))
	fireAt(t, l, "second", base.Add(time.Minute), nil)

	evs, err := l.Recent(10)
	require.NoError(t, err)
	require.Len(t, evs, 2)

	// Newest first.
	assert.Equal(t, "second", evs[0].ID)
	assert.Equal(t, "first", evs[1].ID)

	assert.Equal(t, "howl.wav", evs[1].Clip)
	assert.Equal(t, float64(1600), evs[1].TotalArea)
	assert.True(t, evs[1].HasSnapshot)
	assert.False(t, evs[0].HasSnapshot)
}

func TestRecentLimit(t *testing.T) {
	l, err := Open(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		fireAt(t, l, id, base.Add(time.Duration(i)*time.Minute), nil)
	}

	evs, err := l.Recent(2)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "c", evs[0].ID)
	assert.Equal(t, "b", evs[1].ID)
}

func TestSnapshotWritten(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	require.NoError(t, err)

	fireAt(t, l, "snap", time.Now(), []byte("jpegbytes"))

	p, err := l.SnapshotPath("snap")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "snapshots", "snap.jpg"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegbytes"), data)
}

func TestSnapshotMissing(t *testing.T) {
	l, err := Open(t.TempDir())
	require.NoError(t, err)

	fireAt(t, l, "bare", time.Now(), nil)

	_, err = l.SnapshotPath("bare")
	assert.Error(t, err)
	_, err = l.SnapshotPath("nonexistent")
	assert.Error(t, err)
}

func TestPruneExpired(t *testing.T) {
	l, err := Open(t.TempDir())
	require.NoError(t, err)

	fireAt(t, l, "old", time.Now().Add(-48*time.Hour), []byte("stale"))
	fireAt(t, l, "new", time.Now(), nil)

	oldSnap, err := l.SnapshotPath("old")
	require.NoError(t, err)

	require.NoError(t, l.Prune(24*time.Hour))

	evs, err := l.Recent(10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "new", evs[0].ID)

	_, err = os.Stat(oldSnap)
	assert.True(t, os.IsNotExist(err))
}

func TestPruneKeepsFresh(t *testing.T) {
	l, err := Open(t.TempDir())
	require.NoError(t, err)

	fireAt(t, l, "fresh", time.Now(), nil)
	require.NoError(t, l.Prune(24*time.Hour))

	evs, err := l.Recent(10)
	require.NoError(t, err)
	assert.Len(t, evs, 1)
}
