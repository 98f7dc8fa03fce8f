package frame

import (
	"image"
	"image/color"
)

// FromImage converts a decoded image. Gray images keep one channel, every
// other model becomes 3-channel BGR.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := src.(*image.Gray); ok {
		im := New(w, h, 1)
		for y := 0; y < h; y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+w]
			copy(im.Pix[y*w:(y+1)*w], row)
		}
		return im
	}

	im := New(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			im.Set(x, y, c.B, c.G, c.R)
		}
	}
	return im
}

// ToImage returns the buffer as a standard library image for encoding.
func (im *Image) ToImage() image.Image {
	if im.Channels == 1 {
		g := image.NewGray(image.Rect(0, 0, im.Width, im.Height))
		copy(g.Pix, im.Pix)
		return g
	}
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			off := im.Offset(x, y)
			a := byte(255)
			if im.Channels == 4 {
				a = im.Pix[off+3]
			}
			out.SetNRGBA(x, y, color.NRGBA{R: im.Pix[off+2], G: im.Pix[off+1], B: im.Pix[off], A: a})
		}
	}
	return out
}
