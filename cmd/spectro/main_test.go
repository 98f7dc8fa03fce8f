package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// simDir lays out a hardware-free installation and returns its config path.
func simDir(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	write("rois.txt", "0,0,8,8\n8,0,8,8\n16,0,8,8\n24,0,8,8\n")
	cfgPath = write("spectro.yaml", `
roi:
  file: `+filepath.Join(dir, "rois.txt")+`
camera:
  driver: synthetic
  width: 64
  height: 48
  archive_dir: `+filepath.Join(dir, "capture")+`
model:
  driver: simulated
  bands: 32
display:
  drivers: [console]
  result_dir: `+filepath.Join(dir, "result")+`
`)
	return dir, cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&app{out: &out})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || !strings.Contains(out, "spectro dev") {
		t.Errorf("version: got (%q, %v)", out, err)
	}
}

func TestCaptureReconstructReset(t *testing.T) {
	dir, cfg := simDir(t)

	out, err := execute(t, "--config", cfg, "capture")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	frames, _ := filepath.Glob(filepath.Join(dir, "capture", "*.png"))
	if len(frames) != 1 || !strings.Contains(out, frames[0]) {
		t.Fatalf("capture: output %q, frames %v", out, frames)
	}

	out, err = execute(t, "--config", cfg, "reconstruct")
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if !strings.Contains(out, "32 bands") {
		t.Errorf("reconstruct: got %q", out)
	}

	out, err = execute(t, "--config", cfg, "reset")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !strings.Contains(out, "removed 1 files") {
		t.Errorf("reset: got %q", out)
	}
	frames, _ = filepath.Glob(filepath.Join(dir, "capture", "*.png"))
	if len(frames) != 0 {
		t.Errorf("frames left after reset: %v", frames)
	}
}

func TestReconstruct_MissingImage(t *testing.T) {
	dir, cfg := simDir(t)
	if _, err := execute(t, "--config", cfg, "reconstruct", filepath.Join(dir, "absent.png")); err == nil {
		t.Error("missing image accepted")
	}
}

func TestCheck(t *testing.T) {
	_, cfg := simDir(t)

	out, err := execute(t, "--config", cfg, "check", "camera")
	if err != nil {
		t.Fatalf("check camera: %v", err)
	}
	if strings.Count(out, "✅") != 3 {
		t.Errorf("check camera: got %q", out)
	}

	out, err = execute(t, "--config", cfg, "check", "model", "--json")
	if err != nil {
		t.Fatalf("check model: %v", err)
	}
	if !strings.Contains(out, `"loaded": true`) || !strings.Contains(out, `"rois": 4`) {
		t.Errorf("check model: got %q", out)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	_, cfg := simDir(t)
	if _, err := execute(t, "--config", cfg, "run", "--button", "knob"); err == nil {
		t.Error("unknown button driver accepted")
	}
}
