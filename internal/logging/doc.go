// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// Loggers are plain *slog.Logger values tagged with a "module" attribute.
// Records are routed automatically:
//   - to systemd journal when journald is reachable
//   - to stdout when a terminal, pipe, or file is connected
//   - to an in-memory history ring served by the API at /api/logs and
//     /debug/logs
//
// # Usage
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"kms": "debug",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("player")
//	logger.Info("Session opened", "plane_id", 31)
//
// Loggers obtained before Initialize are updated in place, so package level
// loggers are safe.
//
// # Viewing Logs
//
//	journalctl -t kmsvout -f
//	journalctl -t kmsvout MODULE=kms
//	journalctl -t kmsvout PLANE_ID=31
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//	kms = "debug"
//	player = "warn"
package logging
