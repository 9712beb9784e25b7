// Runtime configuration loaded from a TOML file
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"dual-roi-viewer/internal/core"
)

// Config holds runtime configuration for the viewer.
// Fields may be loaded from a TOML file and overridden by command-line flags.
type Config struct {
	Device  DeviceConfig  `toml:"device"`
	Capture CaptureConfig `toml:"capture"`
	Display DisplayConfig `toml:"display"`
	Output  OutputConfig  `toml:"output"`
	Log     LogConfig     `toml:"log"`
}

// DeviceConfig selects and initializes the capture device
type DeviceConfig struct {
	// ID is "<driver>:<index>", for example "camera:0". Empty picks the first device found.
	ID          string        `toml:"id"`
	ReadTimeout time.Duration `toml:"read_timeout"`
	// ProbeLimit bounds how many camera indices are probed when listing devices
	ProbeLimit int `toml:"probe_limit"`
	// Requested resolution; zero keeps the device default
	Width  int `toml:"width"`
	Height int `toml:"height"`

	WhiteBalanceRed  int `toml:"white_balance_red"`
	WhiteBalanceBlue int `toml:"white_balance_blue"`
}

// CaptureConfig holds the startup exposure and gain
type CaptureConfig struct {
	ExposureUS int `toml:"exposure_us"`
	Gain       int `toml:"gain"`
}

// Window backends
const (
	BackendHighGUI = "highgui"
	BackendFyne    = "fyne"
)

// DisplayConfig controls window sizes and overlays
type DisplayConfig struct {
	// Backend is "highgui" (OpenCV windows) or "fyne"
	Backend string `toml:"backend"`
	// Scale is the main view size relative to the sensor
	Scale         float64 `toml:"scale"`
	ROIWindowSize int     `toml:"roi_window_size"`
	ShowFocus     bool    `toml:"show_focus"`
}

// OutputConfig controls where snapshots go
type OutputConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

// LogConfig controls the logger
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "text"
}

// Default returns a Config populated with standard defaults
func Default() *Config {
	params := core.DefaultCaptureParams()
	return &Config{
		Device: DeviceConfig{
			ReadTimeout:      500 * time.Millisecond,
			ProbeLimit:       4,
			WhiteBalanceRed:  52,
			WhiteBalanceBlue: 95,
		},
		Capture: CaptureConfig{
			ExposureUS: params.ExposureUS,
			Gain:       params.Gain,
		},
		Display: DisplayConfig{
			Backend:       BackendHighGUI,
			Scale:         0.5,
			ROIWindowSize: 400,
			ShowFocus:     true,
		},
		Output: OutputConfig{
			Dir:    ".",
			Format: "png",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate clamps/normalizes values to safe ranges
func (c *Config) Validate() error {
	if c.Device.ReadTimeout <= 0 {
		c.Device.ReadTimeout = 500 * time.Millisecond
	}
	if c.Device.ProbeLimit <= 0 {
		c.Device.ProbeLimit = 4
	}
	if c.Device.Width < 0 {
		c.Device.Width = 0
	}
	if c.Device.Height < 0 {
		c.Device.Height = 0
	}

	params := core.CaptureParams{ExposureUS: c.Capture.ExposureUS, Gain: c.Capture.Gain}.Normalize()
	c.Capture.ExposureUS, c.Capture.Gain = params.ExposureUS, params.Gain

	if c.Display.Scale <= 0 || c.Display.Scale > 1 {
		c.Display.Scale = 0.5
	}
	if c.Display.ROIWindowSize <= 0 {
		c.Display.ROIWindowSize = 400
	}
	switch c.Display.Backend {
	case "":
		c.Display.Backend = BackendHighGUI
	case BackendHighGUI, BackendFyne:
	default:
		return fmt.Errorf("invalid display backend %q (want %s or %s)", c.Display.Backend, BackendHighGUI, BackendFyne)
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	if c.Output.Format == "" {
		c.Output.Format = "png"
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q (want json or text)", c.Log.Format)
	}
	return nil
}

// CaptureParams returns the configured startup capture parameters
func (c *Config) CaptureParams() core.CaptureParams {
	return core.CaptureParams{ExposureUS: c.Capture.ExposureUS, Gain: c.Capture.Gain}
}

// Load reads configuration from the given TOML file path on top of Default().
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
