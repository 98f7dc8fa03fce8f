package frame

import (
	"errors"
	"testing"
)

func TestImage_Check(t *testing.T) {
	tests := []struct {
		name    string
		img     *Image
		wantErr bool
	}{
		{name: "gray", img: New(3, 3, 1)},
		{name: "bgr", img: New(4, 2, 3)},
		{name: "bgra", img: New(2, 2, 4)},
		{name: "nil", img: nil, wantErr: true},
		{name: "zero width", img: &Image{Width: 0, Height: 2, Channels: 1}, wantErr: true},
		{name: "two channels", img: New(2, 2, 2), wantErr: true},
		{name: "short buffer", img: &Image{Width: 2, Height: 2, Channels: 1, Pix: make([]byte, 3)}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.img.Check()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("Check: got %v, want ErrInvalid", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Check: unexpected error %v", err)
			}
		})
	}
}

func TestImage_SetAndClone(t *testing.T) {
	img := New(2, 2, 3)
	img.Set(1, 1, 10, 20, 30)

	off := img.Offset(1, 1)
	if off != 9 {
		t.Fatalf("Offset: got %d, want 9", off)
	}
	if img.Pix[off] != 10 || img.Pix[off+1] != 20 || img.Pix[off+2] != 30 {
		t.Errorf("Set: got %v", img.Pix[off:off+3])
	}

	clone := img.Clone()
	clone.Pix[off] = 99
	if img.Pix[off] != 10 {
		t.Error("Clone shares the pixel buffer")
	}
}

func TestFromImage_RoundTrip(t *testing.T) {
	src := New(2, 1, 3)
	src.Set(0, 0, 10, 20, 30)
	src.Set(1, 0, 200, 100, 50)

	got := FromImage(src.ToImage())
	if got.Channels != 3 || got.Width != 2 || got.Height != 1 {
		t.Fatalf("shape: got %s, want 2x1x3", got)
	}
	for i, v := range src.Pix {
		if got.Pix[i] != v {
			t.Errorf("Pix[%d]: got %d, want %d", i, got.Pix[i], v)
		}
	}
}

func TestFromImage_Gray(t *testing.T) {
	src := New(3, 2, 1)
	src.Fill(42)

	got := FromImage(src.ToImage())
	if got.Channels != 1 {
		t.Fatalf("Channels: got %d, want 1", got.Channels)
	}
	if got.Pix[5] != 42 {
		t.Errorf("Pix[5]: got %d, want 42", got.Pix[5])
	}
}
