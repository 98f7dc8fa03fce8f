package device

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-spectro/internal/config"
	"github.com/teslashibe/go-spectro/pkg/button"
	"github.com/teslashibe/go-spectro/pkg/display"
	"github.com/teslashibe/go-spectro/pkg/model"
	"github.com/teslashibe/go-spectro/pkg/roi"
	"gopkg.in/yaml.v3"
)

func writeParams(path string, p model.LinearParams) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// simConfig needs no hardware: synthetic camera, simulated model and a
// console display.
func simConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	rois := filepath.Join(dir, "rois.txt")
	if err := os.WriteFile(rois, []byte("0,0,10,10\n10,0,10,10\n20,0,10,10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.ROI.File = rois
	cfg.Camera.Driver = "synthetic"
	cfg.Camera.Width, cfg.Camera.Height = 64, 48
	cfg.Camera.ArchiveDir = filepath.Join(dir, "capture")
	cfg.Model.Driver = config.ModelSimulated
	cfg.Model.Bands = 16
	cfg.Display.Drivers = []string{config.DisplayConsole}
	return cfg
}

func TestOpen_Simulated(t *testing.T) {
	cfg := simConfig(t)
	d, err := Open(context.Background(), cfg, WithStdin(strings.NewReader("\n")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if d.ROIs.Len() != 3 {
		t.Errorf("ROIs: got %d, want 3", d.ROIs.Len())
	}
	if d.Archiver == nil {
		t.Error("archiver not built")
	}
	img, err := d.Camera.CaptureFrame(context.Background())
	if err != nil || img.Width != 64 {
		t.Fatalf("CaptureFrame: %v (%v)", err, img)
	}
	vec, _, err := d.Extractor.Extract(img, d.ROIs)
	if err != nil {
		t.Fatal(err)
	}
	p, err := d.Model.Predict(context.Background(), vec)
	if err != nil || p.Len() != 16 {
		t.Fatalf("Predict: %v", err)
	}
	pressed, err := d.Button.WaitForPress(context.Background(), time.Second)
	if !pressed || err != nil {
		t.Errorf("stdin press: got (%v, %v)", pressed, err)
	}
}

func TestClose_Once(t *testing.T) {
	cfg := simConfig(t)
	d, err := Open(context.Background(), cfg, WithStdin(strings.NewReader("")))
	if err != nil {
		t.Fatal(err)
	}
	rec := display.NewRecorder()
	d.track("recorder", rec)

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	d.Close()
	if got := rec.CallCount("Close"); got != 1 {
		t.Errorf("Close calls: got %d, want 1", got)
	}
}

func TestOpen_DimensionMismatch(t *testing.T) {
	cfg := simConfig(t)
	dir := t.TempDir()
	params := model.SimulatedParams(5, 8)
	path := filepath.Join(dir, model.ParamFile)
	if err := writeParams(path, params); err != nil {
		t.Fatal(err)
	}
	cfg.Model.Driver = config.ModelLinear
	cfg.Model.Dir = dir

	_, err := Open(context.Background(), cfg)
	var le *model.LoadError
	if !errors.As(err, &le) || !errors.Is(err, model.ErrDimension) {
		t.Errorf("got %v, want LoadError wrapping ErrDimension", err)
	}
}

func TestOpen_MissingModel(t *testing.T) {
	cfg := simConfig(t)
	cfg.Model.Driver = config.ModelLinear
	cfg.Model.Dir = t.TempDir()

	_, err := Open(context.Background(), cfg)
	var le *model.LoadError
	if !errors.As(err, &le) {
		t.Errorf("got %v, want *model.LoadError", err)
	}
}

func TestOpen_BadROIs(t *testing.T) {
	cfg := simConfig(t)
	cfg.ROI.File = filepath.Join(t.TempDir(), "absent.txt")

	_, err := Open(context.Background(), cfg)
	var ce *roi.ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("got %v, want *roi.ConfigError", err)
	}
}

func TestOpen_Background(t *testing.T) {
	cfg := simConfig(t)
	bg := filepath.Join(t.TempDir(), "bgrois.txt")
	os.WriteFile(bg, []byte("0,40,10,8,2\n"), 0o644)
	cfg.ROI.Background = bg

	set, ext, err := LoadROIs(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 3 || ext == nil {
		t.Errorf("LoadROIs: got %d ROIs, extractor %v", set.Len(), ext)
	}
}

func TestOpen_WebDriversNeedDashboard(t *testing.T) {
	cfg := simConfig(t)
	cfg.Web.Enabled = true
	cfg.Button.Driver = config.ButtonWeb
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Error("web button accepted without a trigger")
	}

	trig := button.NewTrigger()
	web := display.NewRecorder()
	cfg.Display.Drivers = []string{config.DisplayConsole, config.DisplayWeb}
	d, err := Open(context.Background(), cfg, WithWeb(trig, web))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if d.Button != button.Button(trig) {
		t.Error("web trigger not used as the button")
	}
	if _, ok := d.Display.(display.Multi); !ok {
		t.Errorf("two displays not fanned out: %T", d.Display)
	}
}
