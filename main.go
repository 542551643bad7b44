package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/cmd"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/api"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/camera"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/config"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/events"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/led"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/metrics"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/mjpeg"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/pipeline"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/updater"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"API port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Stream settings
	StreamAddr  string `help:"MJPEG stream listen address" default:":8080" toml:"stream.addr" env:"STREAM_ADDR"`
	JPEGQuality int    `help:"JPEG encoder quality (1-100)" default:"80" toml:"stream.jpeg_quality" env:"STREAM_JPEG_QUALITY"`

	// Camera settings
	CameraDevice  string `help:"V4L2 capture device" default:"/dev/video0" toml:"camera.device" env:"CAMERA_DEVICE"`
	CameraWidth   int    `help:"Capture width in pixels" default:"640" toml:"camera.width" env:"CAMERA_WIDTH"`
	CameraHeight  int    `help:"Capture height in pixels" default:"480" toml:"camera.height" env:"CAMERA_HEIGHT"`
	CameraFPS     int    `help:"Requested capture framerate" default:"30" toml:"camera.fps" env:"CAMERA_FPS"`
	CameraBuffers int    `help:"Number of mmap capture buffers" default:"4" toml:"camera.buffers" env:"CAMERA_BUFFERS"`

	// Update settings
	UpdateRepository string `help:"GitHub repository for self-updates" default:"HajjSalad/RaspberryPi-Cam-Streamer" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Allow prerelease updates" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingCamera   string `help:"Camera logging level" default:"info" toml:"logging.camera" env:"LOGGING_CAMERA"`
	LoggingPipeline string `help:"Pipeline logging level" default:"info" toml:"logging.pipeline" env:"LOGGING_PIPELINE"`
	LoggingMJPEG    string `help:"MJPEG server logging level" default:"info" toml:"logging.mjpeg" env:"LOGGING_MJPEG"`
	LoggingLED      string `help:"LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingConfig   string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP     string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingUpdater  string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
}

func main() {
	// Create Huma CLI
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"camera":   opts.LoggingCamera,
				"pipeline": opts.LoggingPipeline,
				"mjpeg":    opts.LoggingMJPEG,
				"led":      opts.LoggingLED,
				"config":   opts.LoggingConfig,
				"api":      opts.LoggingAPI,
				"http":     opts.LoggingHTTP,
				"updater":  opts.LoggingUpdater,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Mirror log records onto the bus so SSE clients can tail them
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		// Status LEDs start dark until streaming begins. On machines
		// without the hardware this is a no-op controller.
		ledController := led.New(logging.GetLogger("led"))
		if resetErr := ledController.Reset(); resetErr != nil {
			logger.Warn("Failed to reset status LEDs", "error", resetErr)
		}

		cam := camera.New(camera.Config{
			DevicePath:  opts.CameraDevice,
			Width:       uint32(opts.CameraWidth),
			Height:      uint32(opts.CameraHeight),
			FPS:         uint32(opts.CameraFPS),
			BufferCount: uint32(opts.CameraBuffers),
		}, ledController, eventBus)

		pipe := pipeline.New(pipeline.Config{
			Width:   opts.CameraWidth,
			Height:  opts.CameraHeight,
			Quality: opts.JPEGQuality,
		}, eventBus)
		pipe.SetEncodeObserver(metrics.ObserveEncodeDuration)

		streamServer := mjpeg.NewServer(opts.StreamAddr, pipe, eventBus)

		// Prometheus wiring: event-driven counters plus a collector
		// that reads pipeline stats at scrape time
		metricsBridge := metrics.NewBridge(eventBus)
		metrics.RegisterPipeline(pipe.Stats)

		updateService, updateErr := updater.NewService(&updater.Options{
			Repository: opts.UpdateRepository,
			Prerelease: opts.UpdatePrerelease,
		})
		if updateErr != nil {
			logger.Warn("Update service unavailable", "error", updateErr)
			updateService = nil
		}

		// Watch the config file for runtime-adjustable settings
		watcher := config.NewConfigWatcher(opts.Config, config.LoadRuntime, logging.GetLogger("config"))
		watcher.OnReload(func(rt config.Runtime) {
			if rt.JPEGQuality > 0 {
				pipe.SetQuality(rt.JPEGQuality)
			}
			logging.SetModuleLevels(rt.Logging.Modules)
			eventBus.Publish(events.ConfigReloadedEvent{
				Path:      opts.Config,
				Timestamp: time.Now().Format(time.RFC3339),
			})
			logger.Info("Runtime config applied", "quality", pipe.Quality())
		})

		server := api.NewServer(&api.Options{
			Camera:            cam,
			Pipeline:          pipe,
			Status:            ledController,
			EventBus:          eventBus,
			StreamAddr:        opts.StreamAddr,
			ViewerActive:      streamServer.ViewerActive,
			ViewerAddr:        streamServer.ViewerAddr,
			UpdateService:     updateService,
			PrometheusHandler: metrics.HTTPHandler(),
		})

		hooks.OnStart(func() {
			// Camera first so frames are flowing before the stream
			// listener accepts its viewer
			if startErr := cam.Start(context.Background(), pipe.HandleFrame); startErr != nil {
				logger.Error("Failed to start capture", "error", startErr)
				os.Exit(1)
			}

			// When the capture loop gives up after repeated faults,
			// tear down the device side. The HTTP surfaces stay up so
			// the failure can be inspected remotely.
			go func() {
				<-cam.Done()
				if faultErr := cam.Err(); faultErr != nil {
					logger.Error("Capture stopped after repeated faults", "error", faultErr)
					if stopErr := cam.Stop(); stopErr != nil {
						logger.Warn("Capture teardown failed", "error", stopErr)
					}
					pipe.Reset()
				}
			}()

			if startErr := streamServer.Start(); startErr != nil {
				logger.Error("Failed to start MJPEG server", "error", startErr)
				os.Exit(1)
			}

			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Config watcher failed to start, hot-reload disabled", "error", watchErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			// Disconnect the viewer before the camera stops producing
			if stopErr := streamServer.Stop(); stopErr != nil {
				logger.Error("Error stopping MJPEG server", "error", stopErr)
			}

			if stopErr := cam.Stop(); stopErr != nil {
				logger.Error("Error stopping capture", "error", stopErr)
			}
			pipe.Reset()

			metricsBridge.Stop()

			if resetErr := ledController.Reset(); resetErr != nil {
				logger.Warn("Failed to reset status LEDs", "error", resetErr)
			}
			if closeErr := ledController.Close(); closeErr != nil {
				logger.Warn("Error closing LED controller", "error", closeErr)
			}

			if updateService != nil && updateService.IsRestartPending() {
				logger.Info("Restarting to finish update")
			}
		})
	})

	// Add device probe command
	probeCmd := cmd.CreateProbeCmd()
	cli.Root().AddCommand(probeCmd)

	// Add LED exercise command
	ledCmd := cmd.CreateLEDCmd()
	cli.Root().AddCommand(ledCmd)

	// Add manual update command
	updateCmd := cmd.CreateUpdateCmd()
	cli.Root().AddCommand(updateCmd)

	// Run the CLI
	cli.Run()
}
