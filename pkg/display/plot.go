package display

import (
	"image"
	"math"

	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Project maps the samples of p into area, wavelength along x and intensity
// along y with the maximum at the top. A flat spectrum is drawn mid-height.
func Project(p *spectrum.Prediction, area image.Rectangle) []image.Point {
	n := p.Len()
	if n == 0 || area.Empty() {
		return nil
	}
	x0, x1 := p.Wavelengths[0], p.Wavelengths[n-1]
	lo, hi := p.Range()

	pts := make([]image.Point, n)
	for i := 0; i < n; i++ {
		fx := 0.5
		if x1 > x0 {
			fx = (p.Wavelengths[i] - x0) / (x1 - x0)
		}
		fy := 0.5
		if hi > lo {
			fy = (p.Intensities[i] - lo) / (hi - lo)
		}
		pts[i] = image.Pt(
			area.Min.X+int(math.Round(fx*float64(area.Dx()-1))),
			area.Max.Y-1-int(math.Round(fy*float64(area.Dy()-1))),
		)
	}
	return pts
}

// Ticks returns count evenly spaced axis labels between lo and hi.
func Ticks(lo, hi float64, count int) []float64 {
	return spectrum.Linspace(lo, hi, count)
}
