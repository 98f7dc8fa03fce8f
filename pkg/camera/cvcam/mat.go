package cvcam

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-spectro/pkg/frame"
)

// FromMat copies an 8-bit gray, BGR or BGRA Mat into a frame.
func FromMat(m gocv.Mat) (*frame.Image, error) {
	switch m.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		return nil, fmt.Errorf("unsupported mat type %v", m.Type())
	}
	pix := m.ToBytes()
	im := &frame.Image{Width: m.Cols(), Height: m.Rows(), Channels: m.Channels(), Pix: pix}
	if err := im.Check(); err != nil {
		return nil, err
	}
	return im, nil
}

// ToMat copies a frame into a new Mat. The caller must Close it.
func ToMat(im *frame.Image) (gocv.Mat, error) {
	if err := im.Check(); err != nil {
		return gocv.Mat{}, err
	}
	mt := gocv.MatTypeCV8UC3
	switch im.Channels {
	case 1:
		mt = gocv.MatTypeCV8UC1
	case 4:
		mt = gocv.MatTypeCV8UC4
	}
	return gocv.NewMatFromBytes(im.Height, im.Width, mt, im.Pix)
}
