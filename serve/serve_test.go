package serve

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scarecam/config"
	"scarecam/eventlog"
	"scarecam/scare"
)

type fakeSystem struct {
	report    scare.Report
	triggered int
}

func (f *fakeSystem) Report() scare.Report { return f.report }

func (f *fakeSystem) TestTrigger() string {
	f.triggered++
	return "howl.wav"
}

type fakeSounds struct {
	clips     []string
	reloads   int
	reloadErr error
}

func (f *fakeSounds) Clips() []string { return f.clips }

func (f *fakeSounds) Reload() error {
	f.reloads++
	return f.reloadErr
}

type fakeEvents struct {
	evs   []eventlog.ScareEvent
	snaps map[string]string
}

func (f *fakeEvents) Recent(limit int) ([]eventlog.ScareEvent, error) {
	if limit > len(f.evs) {
		limit = len(f.evs)
	}
	return f.evs[:limit], nil
}

func (f *fakeEvents) SnapshotPath(id string) (string, error) {
	p, ok := f.snaps[id]
	if !ok {
		return "", fmt.Errorf("no such event %v", id)
	}
	return p, nil
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	c := config.Default()
	return config.NewSettings(c)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func eventAt(id string, at time.Time, hasSnap bool) eventlog.ScareEvent {
	return eventlog.ScareEvent{
		ID:          id,
		CreatedAt:   at,
		Blobs:       1,
		TotalArea:   1600,
		Clip:        "howl.wav",
		HasSnapshot: hasSnap,
	}
}
