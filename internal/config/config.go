// Package config loads spectro's configuration from defaults, an optional
// YAML file and SPECTRO_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/teslashibe/go-spectro/pkg/camera"
	"github.com/teslashibe/go-spectro/pkg/loop"
	"github.com/teslashibe/go-spectro/pkg/web"
)

// EnvPrefix prefixes every environment override, e.g. SPECTRO_CAMERA_DRIVER.
const EnvPrefix = "SPECTRO"

// Button drivers.
const (
	ButtonGPIO  = "gpio"
	ButtonStdin = "stdin"
	ButtonWeb   = "web"
)

// Model drivers.
const (
	ModelONNX   = "onnx"
	ModelLinear = "linear"
	ModelRemote = "remote"

	// ModelSimulated builds deterministic Gaussian-band weights sized to the
	// ROI set. It needs no model files.
	ModelSimulated = "simulated"
)

// Display drivers.
const (
	DisplayWindow  = "window"
	DisplayPNG     = "png"
	DisplayWeb     = "web"
	DisplayConsole = "console"
)

// Config is the complete device configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	ROI       ROIConfig       `mapstructure:"roi"`
	Button    ButtonConfig    `mapstructure:"button"`
	Camera    camera.Config   `mapstructure:"camera"`
	Model     ModelConfig     `mapstructure:"model"`
	Display   DisplayConfig   `mapstructure:"display"`
	Loop      loop.Config     `mapstructure:"loop"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Web       web.Config      `mapstructure:"web"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ROIConfig locates the region definitions.
type ROIConfig struct {
	File string `mapstructure:"file"`

	// Background is the optional "x,y,w,h,value" reference file. Empty
	// disables normalization.
	Background string `mapstructure:"background"`
}

// ButtonConfig selects the press source.
type ButtonConfig struct {
	Driver       string        `mapstructure:"driver"`
	Pin          string        `mapstructure:"pin"`
	Debounce     time.Duration `mapstructure:"debounce"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ModelConfig selects and locates the spectrum model.
type ModelConfig struct {
	Driver  string        `mapstructure:"driver"`
	Dir     string        `mapstructure:"dir"`
	File    string        `mapstructure:"file"`
	Backend string        `mapstructure:"backend"`
	Target  string        `mapstructure:"target"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`

	// Bands is the output length of the simulated model.
	Bands int `mapstructure:"bands"`
}

// DisplayConfig selects the output surfaces.
type DisplayConfig struct {
	Drivers   []string `mapstructure:"drivers"`
	Width     int      `mapstructure:"width"`
	Height    int      `mapstructure:"height"`
	Window    string   `mapstructure:"window"`
	ResultDir string   `mapstructure:"result_dir"`
}

// TelemetryConfig configures the record log.
type TelemetryConfig struct {
	History int    `mapstructure:"history"`
	CSV     string `mapstructure:"csv"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		ROI: ROIConfig{File: "rois.txt"},
		Button: ButtonConfig{
			Driver:       ButtonStdin,
			Pin:          "GPIO17",
			Debounce:     50 * time.Millisecond,
			PollInterval: 20 * time.Millisecond,
		},
		Camera: camera.DefaultConfig(),
		Model: ModelConfig{
			Driver:  ModelONNX,
			Dir:     "models",
			Backend: "default",
			Target:  "cpu",
			Timeout: 5 * time.Second,
			Bands:   121,
		},
		Display: DisplayConfig{
			Drivers:   []string{DisplayPNG, DisplayConsole},
			Width:     800,
			Height:    480,
			Window:    "spectro",
			ResultDir: "result",
		},
		Loop:      loop.DefaultConfig(),
		Telemetry: TelemetryConfig{History: 1000},
		Web:       web.DefaultConfig(),
	}
}

// Load reads path (optional) and the environment over the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	// MODE=buttons|cli selects the press source when nothing else does.
	if mode := os.Getenv("MODE"); mode != "" && !v.InConfig("button.driver") && os.Getenv(EnvPrefix+"_BUTTON_DRIVER") == "" {
		switch strings.ToLower(mode) {
		case "buttons":
			v.Set("button.driver", ButtonGPIO)
		case "cli":
			v.Set("button.driver", ButtonStdin)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("roi.file", d.ROI.File)
	v.SetDefault("roi.background", d.ROI.Background)

	v.SetDefault("button.driver", d.Button.Driver)
	v.SetDefault("button.pin", d.Button.Pin)
	v.SetDefault("button.debounce", d.Button.Debounce)
	v.SetDefault("button.poll_interval", d.Button.PollInterval)

	v.SetDefault("camera.driver", d.Camera.Driver)
	v.SetDefault("camera.device", d.Camera.Device)
	v.SetDefault("camera.backend", d.Camera.Backend)
	v.SetDefault("camera.width", d.Camera.Width)
	v.SetDefault("camera.height", d.Camera.Height)
	v.SetDefault("camera.warmup_timeout", d.Camera.WarmupTimeout)
	v.SetDefault("camera.warmup_interval", d.Camera.WarmupInterval)
	v.SetDefault("camera.path", d.Camera.Path)
	v.SetDefault("camera.archive_dir", d.Camera.ArchiveDir)

	v.SetDefault("model.driver", d.Model.Driver)
	v.SetDefault("model.dir", d.Model.Dir)
	v.SetDefault("model.file", d.Model.File)
	v.SetDefault("model.backend", d.Model.Backend)
	v.SetDefault("model.target", d.Model.Target)
	v.SetDefault("model.url", d.Model.URL)
	v.SetDefault("model.timeout", d.Model.Timeout)
	v.SetDefault("model.bands", d.Model.Bands)

	v.SetDefault("display.drivers", d.Display.Drivers)
	v.SetDefault("display.width", d.Display.Width)
	v.SetDefault("display.height", d.Display.Height)
	v.SetDefault("display.window", d.Display.Window)
	v.SetDefault("display.result_dir", d.Display.ResultDir)

	v.SetDefault("loop.poll_interval", d.Loop.PollInterval)
	v.SetDefault("loop.stage_timeout", d.Loop.StageTimeout)
	v.SetDefault("loop.capture_attempts", d.Loop.CaptureAttempts)
	v.SetDefault("loop.capture_backoff", d.Loop.CaptureBackoff)
	v.SetDefault("loop.predict_attempts", d.Loop.PredictAttempts)
	v.SetDefault("loop.predict_backoff", d.Loop.PredictBackoff)
	v.SetDefault("loop.backoff_shape", string(d.Loop.BackoffShape))
	v.SetDefault("loop.press_policy", string(d.Loop.PressPolicy))

	v.SetDefault("telemetry.history", d.Telemetry.History)
	v.SetDefault("telemetry.csv", d.Telemetry.CSV)

	v.SetDefault("web.enabled", d.Web.Enabled)
	v.SetDefault("web.addr", d.Web.Addr)
	v.SetDefault("web.static_dir", d.Web.StaticDir)
}

// Validate returns every problem found; an empty slice means valid.
func (c *Config) Validate() []string {
	var errs []string

	if c.ROI.File == "" {
		errs = append(errs, "roi.file is required")
	}

	switch c.Button.Driver {
	case ButtonGPIO:
		if c.Button.Pin == "" {
			errs = append(errs, "button.pin is required for the gpio driver")
		}
	case ButtonStdin:
	case ButtonWeb:
		if !c.Web.Enabled {
			errs = append(errs, "button.driver web requires web.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("button.driver %q unknown", c.Button.Driver))
	}
	if c.Button.Debounce < 0 {
		errs = append(errs, "button.debounce must not be negative")
	}

	for _, e := range c.Camera.Validate() {
		errs = append(errs, "camera: "+e)
	}

	switch c.Model.Driver {
	case ModelONNX, ModelLinear:
		if c.Model.Dir == "" && c.Model.File == "" {
			errs = append(errs, "model.dir or model.file is required")
		}
	case ModelSimulated:
		if c.Model.Bands < 2 {
			errs = append(errs, "model.bands must be at least 2")
		}
	case ModelRemote:
		if c.Model.URL == "" {
			errs = append(errs, "model.url is required for the remote driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("model.driver %q unknown", c.Model.Driver))
	}

	if len(c.Display.Drivers) == 0 {
		errs = append(errs, "display.drivers must name at least one driver")
	}
	for _, d := range c.Display.Drivers {
		switch d {
		case DisplayWindow, DisplayPNG, DisplayConsole:
		case DisplayWeb:
			if !c.Web.Enabled {
				errs = append(errs, "display driver web requires web.enabled")
			}
		default:
			errs = append(errs, fmt.Sprintf("display driver %q unknown", d))
		}
	}

	for _, e := range c.Loop.Validate() {
		errs = append(errs, "loop: "+e)
	}

	if c.Telemetry.History < 1 {
		errs = append(errs, "telemetry.history must be positive")
	}
	if c.Web.Enabled && c.Web.Addr == "" {
		errs = append(errs, "web.addr is required when web.enabled")
	}
	return errs
}

// Err folds Validate into a single error, or nil.
func (c *Config) Err() error {
	problems := c.Validate()
	if len(problems) == 0 {
		return nil
	}
	return errors.New("config: " + strings.Join(problems, "; "))
}
