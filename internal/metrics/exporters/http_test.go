package exporters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smazurov/kmsvout/internal/logging"
	"github.com/smazurov/kmsvout/internal/metrics"
)

func serve(t *testing.T, h http.Handler) string {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	return w.Body.String()
}

func TestHTTPHandlerExposesDisplayMetrics(t *testing.T) {
	metrics.SessionOpened(31, "NV12", "NV12", 1024)
	defer metrics.SessionClosed()

	body := serve(t, HTTPHandler())
	if !strings.Contains(body, `kmsvout_display_format_info{chroma="NV12",fourcc="NV12",plane="31"} 1`) {
		t.Errorf("format info missing from metrics output")
	}
}

func TestLogsHandler(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info"})
	logging.GetLogger("player").Info("Frame source started", "fps", 25)
	logging.GetLogger("player").Debug("hidden")

	body := serve(t, LogsHandler())
	if !strings.Contains(body, "[player] Frame source started fps=25\n") {
		t.Errorf("log line missing from %q", body)
	}
	if strings.Contains(body, "hidden") {
		t.Error("debug entry below the configured level was recorded")
	}
}
