package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/kmsvout/internal/api/models"
	"github.com/smazurov/kmsvout/internal/events"
	"github.com/smazurov/kmsvout/internal/kms"
	"github.com/smazurov/kmsvout/internal/logging"
	"github.com/smazurov/kmsvout/internal/metrics/exporters"
	"github.com/smazurov/kmsvout/internal/player"
	"github.com/smazurov/kmsvout/internal/version"
)

// Display is the view of the player the API exposes.
type Display interface {
	Status() player.Status
	Overrides() kms.Overrides
}

// Options configures the API server.
type Options struct {
	Display  Display
	EventBus *events.Bus
}

// Server is the status and control API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	display    Display
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates the API server and registers its routes.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("kmsvout API", version.Version)
	config.Info.Description = "Status and control of the DRM/KMS video output"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	s := &Server{
		api: api,
		mux: mux,
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		display:  opts.Display,
		eventBus: opts.EventBus,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(HTTPLoggingMiddleware)

	mux.Handle("GET /metrics", exporters.HTTPHandler())
	mux.Handle("GET /debug/logs", exporters.LogsHandler())

	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves on addr until Stop is called.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting API server", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, closing open event streams.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Name:      info.Name,
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerDisplayRoutes()
	s.registerLogRoutes()
	s.registerSSERoutes()
}
