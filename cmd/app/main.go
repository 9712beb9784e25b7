// Dual ROI Viewer - live capture with two independently oriented regions
// License: MIT
// Version: 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"dual-roi-viewer/internal/config"
	"dual-roi-viewer/internal/core"
	"dual-roi-viewer/internal/device"
	"dual-roi-viewer/internal/gui"
	"dual-roi-viewer/internal/io"
)

const (
	AppName    = "Dual ROI Viewer"
	AppVersion = "1.0.0"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	configPath := flag.String("config", "viewer.toml", "Path to TOML configuration file")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	deviceID := flag.String("device", "", "Capture device as <driver>:<index>, e.g. camera:0 or pattern:0")
	outDir := flag.String("out", "", "Directory for saved snapshots")
	backend := flag.String("backend", "", "Window backend: highgui or fyne")
	listDevices := flag.Bool("list", false, "List capture devices and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		initLogger(config.Default().Log).WithError(err).Error("Failed to load configuration")
		return 1
	}
	if err := applyFlags(cfg, *debugMode, *deviceID, *outDir, *backend); err != nil {
		initLogger(cfg.Log).WithError(err).Error("Invalid command line")
		return 1
	}

	// Initialize logger
	logger := initLogger(cfg.Log)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"config":     *configPath,
		"backend":    cfg.Display.Backend,
	}).Info("Starting " + AppName)

	registry := device.NewRegistry(
		device.NewCameraDriver(device.CameraOptions{
			ProbeLimit: cfg.Device.ProbeLimit,
			Width:      cfg.Device.Width,
			Height:     cfg.Device.Height,
		}, logger),
		device.NewScreenDriver(0, logger),
		device.NewPatternDriver(device.PatternOptions{
			Width:  cfg.Device.Width,
			Height: cfg.Device.Height,
		}, logger),
	)

	if *listDevices {
		return printDevices(registry, logger)
	}

	writer, err := io.NewSnapshotWriter(cfg.Output.Dir, cfg.Output.Format, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to prepare snapshot output")
		return 1
	}
	logger.WithFields(logrus.Fields{
		"dir":    writer.Dir(),
		"format": writer.Format(),
	}).Info("Snapshots enabled")

	dev, err := registry.Open(cfg.Device.ID)
	if err != nil {
		logger.WithError(err).Error("Failed to open capture device")
		return 1
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close capture device")
		}
	}()

	info := dev.Info()
	logger.WithFields(logrus.Fields{
		"device": info.ID(),
		"name":   info.Name,
		"width":  info.Width,
		"height": info.Height,
	}).Info("Capture device opened")

	params := cfg.CaptureParams()
	configureDevice(dev, cfg, params, logger)

	if err := dev.StartStream(); err != nil {
		logger.WithError(err).Error("Failed to start capture stream")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := gui.Options{
		DisplayScale:  cfg.Display.Scale,
		ROIWindowSize: cfg.Display.ROIWindowSize,
		ReadTimeout:   cfg.Device.ReadTimeout,
		ShowFocus:     cfg.Display.ShowFocus,
	}

	var viewer *gui.Application
	var runErr error
	if cfg.Display.Backend == config.BackendFyne {
		viewer, runErr = runFyne(ctx, dev, writer, params, logger, opts)
	} else {
		viewer = gui.NewApplication(dev, gui.NewHighGUI(logger), writer, params, logger, opts)
		runErr = viewer.Run(ctx)
	}

	logger.WithFields(logrus.Fields{
		"frames":  viewer.Frames(),
		"skipped": viewer.Skipped(),
	}).Info("Done")
	if runErr != nil {
		logger.WithError(runErr).Error("Viewer stopped on device error")
		return 1
	}
	return 0
}

// runFyne runs the viewer with fyne windows. fyne keeps the main goroutine
// and the frame loop moves to its own; the loop stays the only writer of
// the session.
func runFyne(ctx context.Context, dev device.Device, writer *io.SnapshotWriter, params core.CaptureParams, logger *logrus.Logger, opts gui.Options) (*gui.Application, error) {
	fyneApp := app.NewWithID("com.dualroi.viewer")
	viewer := gui.NewApplication(dev, gui.NewFyneDisplay(fyneApp, logger), writer, params, logger, opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- viewer.Run(ctx)
		fyneApp.Quit()
	}()

	fyneApp.Run()
	cancel()
	return viewer, <-done
}

// applyFlags lets command-line flags override the config file
func applyFlags(cfg *config.Config, debugMode bool, deviceID, outDir, backend string) error {
	if debugMode {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "text"
	}
	if deviceID != "" {
		cfg.Device.ID = deviceID
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if backend != "" {
		cfg.Display.Backend = backend
	}
	return cfg.Validate()
}

// configureDevice applies startup controls. Controls the device rejects are
// logged and skipped.
func configureDevice(dev device.Device, cfg *config.Config, params core.CaptureParams, logger logrus.FieldLogger) {
	controls := []struct {
		control device.Control
		value   int
	}{
		{device.Exposure, params.ExposureUS},
		{device.Gain, params.Gain},
		{device.WhiteBalanceRed, cfg.Device.WhiteBalanceRed},
		{device.WhiteBalanceBlue, cfg.Device.WhiteBalanceBlue},
		{device.Format, device.FormatColor},
	}

	for _, c := range controls {
		entry := logger.WithFields(logrus.Fields{"control": c.control.String(), "value": c.value})
		if err := dev.Configure(c.control, c.value); err != nil {
			entry.WithError(err).Warn("Device control not applied")
			continue
		}
		entry.Debug("Device control applied")
	}
}

func printDevices(registry *device.Registry, logger logrus.FieldLogger) int {
	infos, err := registry.List()
	if err != nil {
		logger.WithError(err).Warn("Some drivers failed to list devices")
	}
	if len(infos) == 0 {
		logger.WithError(device.ErrNoDevices).Error("Nothing to list")
		return 1
	}

	for _, info := range infos {
		fmt.Printf("%-12s %-24s %dx%d\n", info.ID(), info.Name, info.Width, info.Height)
	}
	return 0
}

// initLogger initializes the logger with the configured level and format
func initLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
