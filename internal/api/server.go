// Package api exposes the control plane over HTTP: status, logs,
// events, LED checks, and self-update, with OpenAPI docs at /docs. The
// MJPEG stream itself is served elsewhere; this API only observes it.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/api/models"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/camera"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/events"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/led"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/pipeline"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/updater"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/version"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/pkg/v4l2"
)

// Options carries the services the API reads from. The API never owns
// these; lifecycle belongs to main.
type Options struct {
	Camera   *camera.Camera
	Pipeline *pipeline.Pipeline
	Status   led.Controller
	EventBus *events.Bus

	// StreamAddr is the MJPEG listen address reported in /api/status.
	StreamAddr string
	// ViewerActive reports whether an MJPEG viewer is connected.
	ViewerActive func() bool
	// ViewerAddr reports the connected viewer's remote address.
	ViewerAddr func() string

	UpdateService     updater.Service
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// Server is the Huma v2 API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger
}

// NewServer creates a new API server with Huma v2 using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	// Configure CORS
	corsConfig := DefaultCORSConfig()

	// Add CORS preflight handler for all OPTIONS requests
	AddCORSHandler(mux, corsConfig)

	// Create Huma API with Go standard library adapter
	config := huma.DefaultConfig("Cam Streamer API", version.String())
	config.Info.Description = "Control and observability API for the V4L2 MJPEG camera streamer"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	server := &Server{
		api:     api,
		mux:     mux,
		options: opts,
		logger:  logging.GetLogger("api"),
	}

	// Apply CORS middleware first, then HTTP request logging
	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	// Register Prometheus metrics endpoint before other routes
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	// Register routes
	server.registerRoutes()

	return server
}

// GetMux returns the underlying HTTP ServeMux for additional setup.
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start starts the HTTP server on the specified address. Blocks until
// the server exits.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	return s.httpServer.ListenAndServe()
}

// Stop shuts down the server without waiting for open connections;
// SSE clients would otherwise hold shutdown forever.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	if s.httpServer != nil {
		return s.httpServer.Close()
	}

	return nil
}

// registerRoutes sets up all API endpoints.
func (s *Server) registerRoutes() {
	// Health check endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	// Version endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		versionInfo := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   versionInfo.Version,
				GitCommit: versionInfo.GitCommit,
				BuildDate: versionInfo.BuildDate,
				GoVersion: versionInfo.GoVersion,
				Compiler:  versionInfo.Compiler,
				Platform:  versionInfo.Platform,
			},
		}, nil
	})

	// Status endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Get capture, pipeline, and stream status",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.statusSnapshot()}, nil
	})

	// LED endpoints
	s.registerLEDRoutes()

	// Log endpoints
	s.registerLogRoutes()

	// SSE endpoints
	s.registerSSERoutes()

	// Update endpoints
	s.registerUpdateRoutes()
}

// statusSnapshot assembles the /api/status body from the wired services.
func (s *Server) statusSnapshot() models.StatusData {
	data := models.StatusData{
		Stream: models.StreamData{Addr: s.options.StreamAddr},
	}

	if s.options.Camera != nil {
		cfg := s.options.Camera.Config()
		format := s.options.Camera.Format()
		data.State = string(s.options.Camera.State())
		data.Device = cfg.DevicePath
		data.Format = models.FormatData{
			Width:  format.Width,
			Height: format.Height,
			FPS:    cfg.FPS,
		}
		// Format is zero until the device has been negotiated
		if format.PixelFormat != 0 {
			data.Format.PixelFormat = v4l2.FormatFourCC(format.PixelFormat)
		}
	}

	if s.options.Pipeline != nil {
		data.Pipeline = s.options.Pipeline.Stats()
	}

	if s.options.ViewerActive != nil {
		data.Stream.ViewerActive = s.options.ViewerActive()
	}
	if s.options.ViewerAddr != nil {
		data.Stream.ViewerAddr = s.options.ViewerAddr()
	}

	if s.options.Status != nil {
		data.LED = models.LEDStatusData{
			Backend:   s.options.Status.Describe(),
			Available: s.options.Status.Available(),
		}
	}

	return data
}
