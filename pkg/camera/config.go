// Package camera defines the frame source used by the capture step together
// with its configuration and the simulated variants.
package camera

import (
	"fmt"
	"time"
)

// Drivers.
const (
	DriverGoCV      = "gocv"
	DriverFile      = "file"
	DriverSynthetic = "synthetic"
)

// Capture backends understood by the gocv driver.
var Backends = []string{"any", "v4l2", "gstreamer", "ffmpeg", "dshow", "avfoundation"}

// Limits for the supported USB sensors.
const (
	MaxWidth  = 4608
	MaxHeight = 2592
)

// Config holds all camera configuration parameters.
type Config struct {
	Driver string `json:"driver" mapstructure:"driver"`

	// === Device ===
	Device  int    `json:"device" mapstructure:"device"`   // VideoCapture index
	Backend string `json:"backend" mapstructure:"backend"` // see Backends; "" or "any" lets OpenCV choose

	// === Resolution ===
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`

	// === Warm-up ===
	// Freshly opened devices often return empty frames; reads are retried
	// every WarmupInterval until WarmupTimeout elapses.
	WarmupTimeout  time.Duration `json:"warmup_timeout" mapstructure:"warmup_timeout"`
	WarmupInterval time.Duration `json:"warmup_interval" mapstructure:"warmup_interval"`

	// Path is the image file or directory read by the file driver. A
	// directory yields its most recently modified image.
	Path string `json:"path" mapstructure:"path"`

	// ArchiveDir, if set, receives a PNG of every captured frame.
	ArchiveDir string `json:"archive_dir" mapstructure:"archive_dir"`
}

// DefaultConfig returns the reference device settings: 1280x720 with a 5s
// warm-up polled every 50ms.
func DefaultConfig() Config {
	return Config{
		Driver:         DriverGoCV,
		Device:         0,
		Backend:        "any",
		Width:          1280,
		Height:         720,
		WarmupTimeout:  5 * time.Second,
		WarmupInterval: 50 * time.Millisecond,
		ArchiveDir:     "capture",
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	switch c.Driver {
	case DriverGoCV, DriverSynthetic:
	case DriverFile:
		if c.Path == "" {
			errors = append(errors, "path is required for the file driver")
		}
	default:
		errors = append(errors, fmt.Sprintf("driver must be %s, %s or %s", DriverGoCV, DriverFile, DriverSynthetic))
	}

	if c.Device < 0 {
		errors = append(errors, "device must be >= 0")
	}
	if c.Backend != "" && !validBackend(c.Backend) {
		errors = append(errors, fmt.Sprintf("backend must be one of %v", Backends))
	}

	// Resolution
	if c.Width < 16 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 16 and %d", MaxWidth))
	}
	if c.Height < 16 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 16 and %d", MaxHeight))
	}

	// Warm-up
	if c.WarmupTimeout <= 0 {
		errors = append(errors, "warmup_timeout must be positive")
	}
	if c.WarmupInterval <= 0 || c.WarmupInterval > c.WarmupTimeout {
		errors = append(errors, "warmup_interval must be positive and not exceed warmup_timeout")
	}

	return errors
}

func validBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}
