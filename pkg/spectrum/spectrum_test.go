package spectrum

import (
	"errors"
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       *Prediction
		wantErr bool
	}{
		{name: "valid", p: &Prediction{Wavelengths: []float64{400, 500, 600}, Intensities: []float64{0.1, 0.2, 0.3}}},
		{name: "single sample", p: &Prediction{Wavelengths: []float64{400}, Intensities: []float64{1}}},
		{name: "nil", p: nil, wantErr: true},
		{name: "empty", p: &Prediction{}, wantErr: true},
		{name: "length mismatch", p: &Prediction{Wavelengths: []float64{400, 500}, Intensities: []float64{1}}, wantErr: true},
		{name: "decreasing", p: &Prediction{Wavelengths: []float64{500, 400}, Intensities: []float64{1, 2}}, wantErr: true},
		{name: "repeated", p: &Prediction{Wavelengths: []float64{400, 400}, Intensities: []float64{1, 2}}, wantErr: true},
		{name: "nan intensity", p: &Prediction{Wavelengths: []float64{400, 500}, Intensities: []float64{1, math.NaN()}}, wantErr: true},
		{name: "inf wavelength", p: &Prediction{Wavelengths: []float64{400, math.Inf(1)}, Intensities: []float64{1, 2}}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.p)
			if !tc.wantErr {
				if err != nil {
					t.Errorf("Validate: unexpected error %v", err)
				}
				return
			}
			var outErr *OutputError
			if !errors.As(err, &outErr) {
				t.Errorf("Validate: got %v, want *OutputError", err)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := &Prediction{Wavelengths: []float64{400, 500}, Intensities: []float64{0.1, 0.2}}
	b := a.Clone()
	c := &Prediction{Wavelengths: []float64{400, 500}, Intensities: []float64{0.1, 0.25}}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical predictions have different fingerprints")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("different predictions share a fingerprint")
	}
	if len(Fingerprint(a)) != 16 {
		t.Errorf("fingerprint length: got %d, want 16", len(Fingerprint(a)))
	}
	if Fingerprint(nil) != "" {
		t.Error("nil prediction should have empty fingerprint")
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(400, 1000, 4)
	want := []float64{400, 600, 800, 1000}
	if len(got) != len(want) {
		t.Fatalf("len: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
	if Linspace(0, 1, 0) != nil {
		t.Error("n=0 should return nil")
	}
	if one := Linspace(5, 9, 1); len(one) != 1 || one[0] != 5 {
		t.Errorf("n=1: got %v", one)
	}
}

func TestPeakAndRange(t *testing.T) {
	p := &Prediction{Wavelengths: []float64{400, 500, 600}, Intensities: []float64{0.2, 0.9, -0.1}}
	w, v := p.Peak()
	if w != 500 || v != 0.9 {
		t.Errorf("Peak: got (%v, %v), want (500, 0.9)", w, v)
	}
	lo, hi := p.Range()
	if lo != -0.1 || hi != 0.9 {
		t.Errorf("Range: got (%v, %v), want (-0.1, 0.9)", lo, hi)
	}
}
