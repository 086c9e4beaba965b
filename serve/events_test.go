package serve

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scarecam/eventlog"
)

func TestEvents(t *testing.T) {
	base := time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC)
	srv := &EventServer{Events: &fakeEvents{evs: []eventlog.ScareEvent{
		eventAt("newer", base.Add(time.Minute), true),
		eventAt("older", base, false),
	}}}

	w := do(t, srv, "GET", "/events", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.ItemsCount)
	assert.Equal(t, "newer", resp.Items[0].ID)
	assert.True(t, resp.Items[0].HaveSnapshot)
	assert.Equal(t, "older", resp.Items[1].ID)
	assert.Equal(t, base.Unix(), resp.OldestTimestamp)
}

func TestEventsLimit(t *testing.T) {
	base := time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC)
	srv := &EventServer{Events: &fakeEvents{evs: []eventlog.ScareEvent{
		eventAt("a", base, false),
		eventAt("b", base, false),
	}}}

	w := do(t, srv, "GET", "/events?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.ItemsCount)
}

func TestEventsBadLimit(t *testing.T) {
	srv := &EventServer{Events: &fakeEvents{}}
	w := do(t, srv, "GET", "/events?limit=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSnapshotServed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ev1.jpg")
	require.NoError(t, os.WriteFile(p, []byte("jpegbytes"), 0644))

	srv := &SnapshotServer{Events: &fakeEvents{snaps: map[string]string{"ev1": p}}}

	w := do(t, srv, "GET", "/snapshot?id=ev1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "jpegbytes", w.Body.String())
}

func TestSnapshotMissing(t *testing.T) {
	srv := &SnapshotServer{Events: &fakeEvents{snaps: map[string]string{}}}
	w := do(t, srv, "GET", "/snapshot?id=nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
