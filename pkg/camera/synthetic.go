package camera

import (
	"context"
	"sync"

	"github.com/teslashibe/go-spectro/pkg/frame"
)

// Synthetic generates a deterministic BGR test pattern: blue ramps along x,
// green along y, red is constant. Every capture returns the same frame.
type Synthetic struct {
	width, height int

	mu     sync.Mutex
	opened bool
}

// NewSynthetic creates a generator for frames of the configured size.
func NewSynthetic(cfg Config) *Synthetic {
	return &Synthetic{width: cfg.Width, height: cfg.Height}
}

// Initialize implements Camera.
func (s *Synthetic) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = true
	return nil
}

// CaptureFrame implements Camera.
func (s *Synthetic) CaptureFrame(ctx context.Context) (*frame.Image, error) {
	s.mu.Lock()
	opened := s.opened
	s.mu.Unlock()
	if !opened {
		return nil, &Error{Op: "capture", Err: ErrNotInitialized}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "capture", Err: err}
	}
	return Pattern(s.width, s.height), nil
}

// Close implements Camera.
func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = false
	return nil
}

// Pattern renders the synthetic test pattern.
func Pattern(width, height int) *frame.Image {
	im := frame.New(width, height, 3)
	for y := 0; y < height; y++ {
		g := ramp(y, height)
		for x := 0; x < width; x++ {
			im.Set(x, y, ramp(x, width), g, 128)
		}
	}
	return im
}

func ramp(i, n int) byte {
	if n <= 1 {
		return 0
	}
	return byte(i * 255 / (n - 1))
}
