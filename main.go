package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/kmsvout/cmd"
	"github.com/smazurov/kmsvout/internal/api"
	"github.com/smazurov/kmsvout/internal/config"
	"github.com/smazurov/kmsvout/internal/devices"
	"github.com/smazurov/kmsvout/internal/events"
	"github.com/smazurov/kmsvout/internal/kms"
	"github.com/smazurov/kmsvout/internal/led"
	"github.com/smazurov/kmsvout/internal/logging"
	"github.com/smazurov/kmsvout/internal/metrics/collectors"
	"github.com/smazurov/kmsvout/internal/pattern"
	"github.com/smazurov/kmsvout/internal/picture"
	"github.com/smazurov/kmsvout/internal/player"
	"github.com/smazurov/kmsvout/internal/systemd"
	"github.com/smazurov/kmsvout/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Display settings
	DisplayDevice      string `help:"DRM card (path, cardN or N), empty for the first card" default:"" toml:"display.device" env:"DISPLAY_DEVICE"`
	DisplayCRTC        int    `help:"CRTC id, 0 for the first active CRTC" default:"0" toml:"display.crtc" env:"DISPLAY_CRTC"`
	DisplayBuffers     int    `help:"Scan-out buffers in the ring (at least 2)" default:"3" toml:"display.buffers" env:"DISPLAY_BUFFERS"`
	DisplayVLCChroma   string `help:"Force the source chroma, e.g. NV12" default:"" toml:"display.vlc_chroma" env:"DISPLAY_VLC_CHROMA"`
	DisplayDRMChroma   string `help:"Force the device format fourcc, e.g. XR24" default:"" toml:"display.drm_chroma" env:"DISPLAY_DRM_CHROMA"`
	DisplayRowAlign    int    `help:"Buffer row alignment in bytes" default:"512" toml:"display.row_align" env:"DISPLAY_ROW_ALIGN"`
	DisplayHeightAlign int    `help:"Buffer height alignment in lines" default:"16" toml:"display.height_align" env:"DISPLAY_HEIGHT_ALIGN"`

	// Source settings
	SourceWidth  int    `help:"Test card width" default:"1280" toml:"source.width" env:"SOURCE_WIDTH"`
	SourceHeight int    `help:"Test card height" default:"720" toml:"source.height" env:"SOURCE_HEIGHT"`
	SourceChroma string `help:"Test card chroma" default:"NV12" toml:"source.chroma" env:"SOURCE_CHROMA"`
	SourceFPS    int    `help:"Frames per second" default:"30" toml:"source.fps" env:"SOURCE_FPS"`

	// API settings
	APIAddr string `help:"Address of the status API and metrics, empty to disable" default:":8091" toml:"api.addr" env:"API_ADDR"`

	// Features settings
	FeaturesHotplug bool   `help:"Reopen the display on DRM hotplug events" default:"true" toml:"features.hotplug" env:"FEATURES_HOTPLUG"`
	FeaturesReload  bool   `help:"Apply [display] chroma overrides when the config file changes" default:"true" toml:"features.reload" env:"FEATURES_RELOAD"`
	FeaturesLED     bool   `help:"Show the display state on the board status LED" default:"false" toml:"features.led" env:"FEATURES_LED"`
	FeaturesLEDName string `help:"sysfs LED to drive, empty to detect from the board model" default:"" toml:"features.led_name" env:"FEATURES_LED_NAME"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingKMS     string `help:"Plane scan and session logging level" default:"info" toml:"logging.kms" env:"LOGGING_KMS"`
	LoggingPlayer  string `help:"Player logging level" default:"info" toml:"logging.player" env:"LOGGING_PLAYER"`
	LoggingDevices string `help:"Hotplug logging level" default:"info" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"kms":     opts.LoggingKMS,
				"drm":     opts.LoggingKMS,
				"player":  opts.LoggingPlayer,
				"devices": opts.LoggingDevices,
				"api":     opts.LoggingAPI,
				"http":    opts.LoggingAPI,
				"led":     opts.LoggingDevices,
			},
		})
		logger := logging.GetLogger("main")
		logger.Info("Starting", "version", version.String())

		eventBus := events.New()
		notifier := systemd.NewNotifier(logger)

		source, ok := picture.ParseChroma(opts.SourceChroma)
		if !ok {
			logger.Warn("Chroma invalid, using NV12", "chroma", opts.SourceChroma)
			source = picture.ChromaNV12
		}

		tiling, tilingErr := kms.NewTiling(opts.DisplayRowAlign, opts.DisplayHeightAlign)
		if tilingErr != nil {
			logger.Warn("Buffer alignment invalid, using defaults", "error", tilingErr)
			tiling = kms.DefaultTiling
		}

		if opts.DisplayCRTC < 0 {
			logger.Warn("CRTC id invalid, using the first active CRTC", "crtc", opts.DisplayCRTC)
			opts.DisplayCRTC = 0
		}

		p := player.New(
			openOutput(opts.DisplayDevice, uint32(opts.DisplayCRTC)),
			func(f picture.Format) (player.Source, error) {
				return pattern.New(f, version.String())
			},
			player.Config{
				Source: picture.Format{
					Chroma: source,
					Width:  opts.SourceWidth,
					Height: opts.SourceHeight,
				},
				FPS:       opts.SourceFPS,
				Overrides: kms.ParseOverrides(opts.DisplayVLCChroma, opts.DisplayDRMChroma, logger.Warn),
				Buffers:   opts.DisplayBuffers,
				Tiling:    tiling,
			},
			eventBus,
			notifier,
			logging.GetLogger("player"),
		)

		metricsCollector := collectors.NewEventCollector(eventBus)

		var server *api.Server
		if opts.APIAddr != "" {
			server = api.NewServer(&api.Options{Display: p, EventBus: eventBus})
		}

		var watcher *config.Watcher[config.DisplayOverrides]
		if opts.FeaturesReload && opts.Config != "" {
			watcher = config.NewConfigWatcher(opts.Config, config.LoadDisplayOverrides, logging.GetLogger("config"))
			watcher.OnReload(func(o config.DisplayOverrides) {
				eventBus.Publish(events.OverridesChangedEvent{
					VLCChroma: o.VLCChroma,
					DRMChroma: o.DRMChroma,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			})
		}

		var hotplugWatcher *devices.HotplugWatcher
		if opts.FeaturesHotplug {
			hotplugWatcher = devices.NewHotplugWatcher(eventBus, 500*time.Millisecond)
		}

		var ledManager *led.Manager
		if opts.FeaturesLED {
			ledLogger := logging.GetLogger("led")
			ledManager = led.NewManager(led.New(ledLogger, opts.FeaturesLEDName), eventBus, ledLogger)
		}

		ctx, cancel := context.WithCancel(context.Background())
		playerDone := make(chan struct{})

		hooks.OnStart(func() {
			metricsCollector.Start()
			if ledManager != nil {
				ledManager.Start()
			}

			if watcher != nil {
				if startErr := watcher.Start(); startErr != nil {
					logger.Warn("Failed to watch config file", "path", opts.Config, "error", startErr)
				}
			}
			if hotplugWatcher != nil {
				if startErr := hotplugWatcher.Start(ctx); startErr != nil {
					logger.Warn("Failed to start hotplug monitoring", "error", startErr)
				}
			}
			if server != nil {
				go func() {
					if startErr := server.Start(opts.APIAddr); startErr != nil {
						logger.Error("Failed to start API server", "error", startErr)
						os.Exit(1)
					}
				}()
			}

			go func() {
				defer close(playerDone)
				_ = p.Run(ctx)
			}()
			<-playerDone
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			<-playerDone

			if server != nil {
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping API server", "error", stopErr)
				}
			}
			if hotplugWatcher != nil {
				hotplugWatcher.Stop()
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}
			if ledManager != nil {
				ledManager.Stop()
			}
			metricsCollector.Stop()
		})
	})

	cli.Root().Use = "kmsvout"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreatePlanesCmd())
	cli.Root().AddCommand(cmd.CreateNegotiateCmd())

	// Run the CLI
	cli.Run()
}

// openOutput returns the opener used for every session. The CRTC is picked
// again on each open since a hotplug may move the active one.
func openOutput(ref string, crtcID uint32) player.Opener {
	return func() (player.Output, error) {
		d, err := devices.OpenDisplay(ref, crtcID)
		if err != nil {
			return player.Output{}, err
		}
		return player.Output{
			Device: d.Device,
			Name:   d.Device.Path(),
			CRTCID: d.CRTCID,
			Width:  d.Width,
			Height: d.Height,
			Close:  d.Device.Close,
		}, nil
	}
}
