// Package exporters serves the display metrics and the in-memory log
// history as plain HTTP handlers.
package exporters

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/kmsvout/internal/logging"
)

// HTTPHandler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}

// LogsHandler writes the log history one formatted line per entry, oldest
// first.
func LogsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		history := logging.History()
		if history == nil {
			return
		}
		var sb strings.Builder
		for _, entry := range history.ReadAll() {
			sb.WriteString(logging.FormatLogLine(entry))
			sb.WriteByte('\n')
		}
		_, _ = w.Write([]byte(sb.String()))
	})
}
