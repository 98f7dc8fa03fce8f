// Package frame holds the raw pixel buffer handed from the camera to the
// feature extractor for the duration of one capture step.
package frame

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned for images whose buffer does not match their shape.
var ErrInvalid = errors.New("frame: invalid image")

// Image is an 8-bit interleaved, row-major pixel buffer.
//
// Channel layouts:
//   - 1: gray
//   - 3: B, G, R (OpenCV order)
//   - 4: B, G, R, A
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// New allocates a zeroed image.
func New(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// Stride returns the number of bytes per row.
func (im *Image) Stride() int {
	return im.Width * im.Channels
}

// Offset returns the index of the first channel of pixel (x, y).
func (im *Image) Offset(x, y int) int {
	return y*im.Stride() + x*im.Channels
}

// Set writes all channels of pixel (x, y).
func (im *Image) Set(x, y int, values ...byte) {
	off := im.Offset(x, y)
	copy(im.Pix[off:off+im.Channels], values)
}

// Fill sets every pixel to the given channel values.
func (im *Image) Fill(values ...byte) {
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			im.Set(x, y, values...)
		}
	}
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	pix := make([]byte, len(im.Pix))
	copy(pix, im.Pix)
	return &Image{Width: im.Width, Height: im.Height, Channels: im.Channels, Pix: pix}
}

// Check verifies that the buffer is consistent with the declared shape.
func (im *Image) Check() error {
	if im == nil {
		return fmt.Errorf("%w: nil image", ErrInvalid)
	}
	if im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, im.Width, im.Height)
	}
	switch im.Channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalid, im.Channels)
	}
	if want := im.Width * im.Height * im.Channels; len(im.Pix) != want {
		return fmt.Errorf("%w: buffer has %d bytes, want %d", ErrInvalid, len(im.Pix), want)
	}
	return nil
}

// String implements fmt.Stringer.
func (im *Image) String() string {
	return fmt.Sprintf("%dx%dx%d", im.Width, im.Height, im.Channels)
}
