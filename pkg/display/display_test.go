package display

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

func testPrediction() *spectrum.Prediction {
	return &spectrum.Prediction{
		Wavelengths: []float64{400, 700, 1000},
		Intensities: []float64{0.1, 0.9, 0.3},
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := c.PlotSpectrum(testPrediction(), "capture 1"); err != nil {
		t.Fatal(err)
	}
	c.ShowStatus(StatusOK)

	out := buf.String()
	for _, want := range []string{"peak_nm=700", `title="capture 1"`, "message=ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestMulti_CallsAllAndJoinsErrors(t *testing.T) {
	failing := NewRecorder()
	failing.PlotFunc = func(*spectrum.Prediction, string) error { return errors.New("no window") }
	ok := NewRecorder()

	err := Multi{failing, ok}.PlotSpectrum(testPrediction(), "t")
	if err == nil || !strings.Contains(err.Error(), "no window") {
		t.Errorf("got %v, want joined error", err)
	}
	if ok.CallCount("PlotSpectrum") != 1 {
		t.Error("second display not called after first failed")
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	p := testPrediction()
	r.Clear()
	r.PlotSpectrum(p, "t")
	r.ShowStatus(StatusOK)

	p.Intensities[0] = 99
	if got := r.Plots()[0].Intensities[0]; got != 0.1 {
		t.Errorf("recorded plot aliased caller data: got %v", got)
	}
	if got := r.Methods(); strings.Join(got, ",") != "Clear,PlotSpectrum,ShowStatus" {
		t.Errorf("Methods: got %v", got)
	}
	if got := r.Statuses(); len(got) != 1 || got[0] != StatusOK {
		t.Errorf("Statuses: got %v", got)
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("closed")
	err := Wrap("plot", base)
	var de *Error
	if !errors.As(err, &de) || de.Op != "plot" || !errors.Is(err, base) {
		t.Errorf("Wrap: got %v", err)
	}
	if Wrap("status", err) != err {
		t.Error("Wrap re-wrapped an *Error")
	}
}
