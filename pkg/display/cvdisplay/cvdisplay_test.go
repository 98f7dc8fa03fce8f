package cvdisplay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-spectro/pkg/display"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

func TestFileBase(t *testing.T) {
	tests := map[string]string{
		"":                "spectrum",
		"20240131_094501": "20240131_094501",
		"a b/c":           "a_b_c",
	}
	for in, want := range tests {
		if got := fileBase(in); got != want {
			t.Errorf("fileBase(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestDisplay_SavesPlot(t *testing.T) {
	dir := t.TempDir()
	d, err := New(Config{Width: 400, Height: 300, ResultDir: dir}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	var _ display.Display = d
	p := &spectrum.Prediction{
		Wavelengths: spectrum.Linspace(400, 1000, 50),
		Intensities: make([]float64, 50),
	}
	p.Intensities[25] = 1
	if err := d.PlotSpectrum(p, "20240131_094501"); err != nil {
		t.Fatalf("PlotSpectrum: %v", err)
	}
	if err := d.ShowStatus(display.StatusOK); err != nil {
		t.Fatalf("ShowStatus: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "20240131_094501_spectrum.png")); err != nil {
		t.Errorf("plot file: %v", err)
	}
}

func TestNew_TooSmall(t *testing.T) {
	if _, err := New(Config{Width: 10, Height: 10}, nil); err == nil {
		t.Error("expected error for tiny canvas")
	}
}
