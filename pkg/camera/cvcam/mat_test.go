package cvcam

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-spectro/pkg/frame"
)

func TestMatRoundTrip(t *testing.T) {
	im := frame.New(3, 2, 3)
	im.Set(2, 1, 7, 8, 9)

	m, err := ToMat(im)
	if err != nil {
		t.Fatalf("ToMat: %v", err)
	}
	defer m.Close()

	if m.Cols() != 3 || m.Rows() != 2 || m.Channels() != 3 {
		t.Fatalf("mat shape: got %dx%dx%d", m.Cols(), m.Rows(), m.Channels())
	}

	back, err := FromMat(m)
	if err != nil {
		t.Fatalf("FromMat: %v", err)
	}
	if string(back.Pix) != string(im.Pix) {
		t.Errorf("round trip: got %v, want %v", back.Pix, im.Pix)
	}
}

func TestFromMat_RejectsFloat(t *testing.T) {
	m := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV32F)
	defer m.Close()
	if _, err := FromMat(m); err == nil {
		t.Error("expected error for float mat")
	}
}

func TestAPIPreference(t *testing.T) {
	if _, err := apiPreference("v4l2"); err != nil {
		t.Errorf("v4l2: %v", err)
	}
	if _, err := apiPreference("quicktime"); err == nil {
		t.Error("unknown backend accepted")
	}
}
