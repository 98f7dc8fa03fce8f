package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-spectro/pkg/loop"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if problems := cfg.Validate(); len(problems) != 0 {
		t.Errorf("default config invalid: %v", problems)
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Camera.Width != 1280 || cfg.Loop.PollInterval != 20*time.Millisecond {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Loop.PressPolicy != loop.PressCoalesce {
		t.Errorf("PressPolicy: got %q, want coalesce", cfg.Loop.PressPolicy)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "spectro.yaml", `
roi:
  file: /etc/spectro/rois.yaml
  background: /etc/spectro/bgrois.txt
camera:
  driver: file
  path: /var/lib/spectro/capture
loop:
  stage_timeout: 3s
  press_policy: drop
display:
  drivers: [console]
`)
	t.Setenv("SPECTRO_CAMERA_WIDTH", "640")
	t.Setenv("SPECTRO_LOOP_CAPTURE_ATTEMPTS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ROI.File != "/etc/spectro/rois.yaml" || cfg.ROI.Background != "/etc/spectro/bgrois.txt" {
		t.Errorf("roi: got %+v", cfg.ROI)
	}
	if cfg.Camera.Driver != "file" || cfg.Camera.Width != 640 || cfg.Camera.Height != 720 {
		t.Errorf("camera: got %+v", cfg.Camera)
	}
	if cfg.Loop.StageTimeout != 3*time.Second || cfg.Loop.CaptureAttempts != 5 || cfg.Loop.PressPolicy != loop.PressDrop {
		t.Errorf("loop: got %+v", cfg.Loop)
	}
	if len(cfg.Display.Drivers) != 1 || cfg.Display.Drivers[0] != DisplayConsole {
		t.Errorf("display drivers: got %v", cfg.Display.Drivers)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestLoad_ModeSelectsButton(t *testing.T) {
	t.Setenv("MODE", "buttons")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Button.Driver != ButtonGPIO {
		t.Errorf("MODE=buttons: got %q, want gpio", cfg.Button.Driver)
	}

	t.Setenv("SPECTRO_BUTTON_DRIVER", "stdin")
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Button.Driver != ButtonStdin {
		t.Errorf("explicit driver overridden by MODE: got %q", cfg.Button.Driver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown button", func(c *Config) { c.Button.Driver = "knob" }, `button.driver "knob" unknown`},
		{"web button without web", func(c *Config) { c.Button.Driver = ButtonWeb }, "requires web.enabled"},
		{"remote without url", func(c *Config) { c.Model.Driver = ModelRemote }, "model.url is required"},
		{"no displays", func(c *Config) { c.Display.Drivers = nil }, "at least one driver"},
		{"bad display", func(c *Config) { c.Display.Drivers = []string{"hologram"} }, `"hologram" unknown`},
		{"camera", func(c *Config) { c.Camera.Width = 0 }, "camera: "},
		{"loop", func(c *Config) { c.Loop.PollInterval = time.Second }, "loop: "},
		{"history", func(c *Config) { c.Telemetry.History = 0 }, "telemetry.history"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Err()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}
