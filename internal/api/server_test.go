package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/kmsvout/internal/api/models"
	"github.com/smazurov/kmsvout/internal/events"
	"github.com/smazurov/kmsvout/internal/kms"
	"github.com/smazurov/kmsvout/internal/logging"
	"github.com/smazurov/kmsvout/internal/picture"
	"github.com/smazurov/kmsvout/internal/player"
)

type fakeDisplay struct {
	mu        sync.Mutex
	status    player.Status
	overrides kms.Overrides
}

func (d *fakeDisplay) Status() player.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *fakeDisplay) Overrides() kms.Overrides {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.overrides
}

func newTestServer(t *testing.T) (*Server, *fakeDisplay, *events.Bus) {
	t.Helper()
	bus := events.New()
	display := &fakeDisplay{
		status: player.Status{
			State:     player.StateRunning,
			Device:    "/dev/dri/card0",
			CRTCID:    40,
			PlaneID:   32,
			FourCC:    "NV12",
			Chroma:    "NV12",
			Width:     1920,
			Height:    1080,
			Placement: kms.Rect{Width: 1920, Height: 1080},
			Buffers:   3,
			Frames:    42,
		},
		overrides: kms.Overrides{Chroma: picture.ChromaNV12},
	}
	return NewServer(&Options{Display: display, EventBus: bus}), display, bus
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body models.HealthData
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("Status = %q", body.Status)
	}
}

func TestVersion(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/version", "")
	var body models.VersionData
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Name != "kmsvout" {
		t.Errorf("Name = %q", body.Name)
	}
}

func TestDisplayStatus(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/display", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body models.DisplayData
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.State != "running" || body.PlaneID != 32 || body.FourCC != "NV12" || body.Frames != 42 {
		t.Errorf("display = %+v", body)
	}
	if body.Placement.Width != 1920 || body.Placement.Height != 1080 {
		t.Errorf("Placement = %+v", body.Placement)
	}
}

func TestGetOverrides(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/display/overrides", "")
	var body models.OverridesData
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.VLCChroma != "NV12" || body.DRMChroma != "" {
		t.Errorf("overrides = %+v", body)
	}
}

func TestSetOverridesPublishesEvent(t *testing.T) {
	s, _, bus := newTestServer(t)
	got := make(chan events.OverridesChangedEvent, 1)
	defer events.SubscribeToChannel(bus, got)()

	w := do(t, s, http.MethodPut, "/api/display/overrides", `{"vlc_chroma":"RV32","drm_chroma":"XR24"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body models.OverridesData
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.VLCChroma != "RV32" || body.DRMChroma != "XR24" {
		t.Errorf("response = %+v", body)
	}

	select {
	case ev := <-got:
		if ev.VLCChroma != "RV32" || ev.DRMChroma != "XR24" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no overrides event published")
	}
}

func TestSetOverridesRejectsInvalid(t *testing.T) {
	s, _, bus := newTestServer(t)
	got := make(chan events.OverridesChangedEvent, 1)
	defer events.SubscribeToChannel(bus, got)()

	w := do(t, s, http.MethodPut, "/api/display/overrides", `{"vlc_chroma":"nope"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	select {
	case ev := <-got:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLogs(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info"})
	logging.GetLogger("kms").Info("Display session opened", "plane_id", 32)
	logging.GetLogger("player").Info("Reopening display")

	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/logs?module=kms&limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Entries []models.LogEntryData `json:"entries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(body.Entries))
	}
	if e := body.Entries[0]; e.Module != "kms" || e.Message != "Display session opened" {
		t.Errorf("entry = %+v", e)
	}
}

func TestMetricsRoute(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "kmsvout_display_sessions_opened_total") {
		t.Error("display metrics missing")
	}
}

func TestEventStream(t *testing.T) {
	s, _, bus := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = s.Serve(ln) }()
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	// The handler subscribes once the request arrives; publish until the
	// event comes through.
	go func() {
		for ctx.Err() == nil {
			bus.Publish(events.DisplayHotplugEvent{Action: "change", DevName: "dri/card0"})
			time.Sleep(20 * time.Millisecond)
		}
	}()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+ln.Addr().String()+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if scanner.Text() == "event: display-hotplug" {
			return
		}
	}
	t.Fatalf("event stream ended without a hotplug event: %v", scanner.Err())
}
