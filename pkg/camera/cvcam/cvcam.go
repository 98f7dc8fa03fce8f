// Package cvcam captures frames from a V4L2/USB camera through OpenCV.
package cvcam

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-spectro/pkg/camera"
	"github.com/teslashibe/go-spectro/pkg/frame"
)

// source is the part of gocv.VideoCapture the camera reads through.
type source interface {
	Read(m *gocv.Mat) bool
	Get(prop gocv.VideoCaptureProperties) float64
	Close() error
}

// Camera is a camera.Camera backed by gocv.VideoCapture. The device is
// opened by Initialize and kept open between captures. A failed read
// releases the device; the next capture reopens it.
type Camera struct {
	cfg    camera.Config
	logger *slog.Logger
	open   func(camera.Config) (source, error)

	mu          sync.Mutex
	vc          source
	buf         gocv.Mat
	initialized bool
}

// New creates an unopened camera.
func New(cfg camera.Config, logger *slog.Logger) *Camera {
	if logger == nil {
		logger = slog.Default()
	}
	return &Camera{
		cfg:    cfg,
		logger: logger.With("component", "camera", "device", cfg.Device),
		open:   openDevice,
	}
}

// Initialize opens the device, applies the resolution and waits until the
// sensor delivers a first frame.
func (c *Camera) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc != nil {
		return nil
	}
	if err := c.connect(ctx); err != nil {
		return &camera.Error{Op: "open", Err: err}
	}
	c.initialized = true
	return nil
}

// connect opens the device and waits for a first frame. It leaves the
// camera released on failure.
func (c *Camera) connect(ctx context.Context) error {
	vc, err := c.open(c.cfg)
	if err != nil {
		return err
	}
	c.vc = vc
	c.buf = gocv.NewMat()

	attempts, err := c.warmup(ctx)
	if err != nil {
		c.release()
		return err
	}
	c.logger.Info("camera ready",
		"width", c.vc.Get(gocv.VideoCaptureFrameWidth),
		"height", c.vc.Get(gocv.VideoCaptureFrameHeight),
		"warmup_reads", attempts)
	return nil
}

// CaptureFrame implements camera.Camera. An empty read is reported as
// camera.ErrNoFrame so the caller's retry policy can decide.
func (c *Camera) CaptureFrame(ctx context.Context) (*frame.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, &camera.Error{Op: "capture", Err: camera.ErrNotInitialized}
	}
	if err := ctx.Err(); err != nil {
		return nil, &camera.Error{Op: "capture", Err: err}
	}
	if c.vc == nil {
		c.logger.Info("reopening camera")
		if err := c.connect(ctx); err != nil {
			return nil, &camera.Error{Op: "reopen", Err: err}
		}
	}
	if ok := c.vc.Read(&c.buf); !ok || c.buf.Empty() {
		c.logger.Warn("empty read, releasing camera")
		if err := c.release(); err != nil {
			c.logger.Warn("release failed", "error", err)
		}
		return nil, &camera.Error{Op: "capture", Err: camera.ErrNoFrame}
	}
	im, err := FromMat(c.buf)
	if err != nil {
		return nil, &camera.Error{Op: "capture", Err: err}
	}
	return im, nil
}

// Close releases the device. A closed camera must be initialized again.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = false
	return c.release()
}

func (c *Camera) release() error {
	if c.vc == nil {
		return nil
	}
	c.buf.Close()
	err := c.vc.Close()
	c.vc = nil
	return err
}

// warmup reads until a non-empty frame arrives or the warm-up timeout
// elapses. It returns the number of reads performed.
func (c *Camera) warmup(ctx context.Context) (int, error) {
	deadline := time.Now().Add(c.cfg.WarmupTimeout)
	attempts := 0
	for time.Now().Before(deadline) {
		attempts++
		if c.vc.Read(&c.buf) && !c.buf.Empty() {
			return attempts, nil
		}
		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-time.After(c.cfg.WarmupInterval):
		}
	}
	return attempts, fmt.Errorf("%w within %s after %d attempts", camera.ErrNoFrame, c.cfg.WarmupTimeout, attempts)
}

func openDevice(cfg camera.Config) (source, error) {
	api, err := apiPreference(cfg.Backend)
	if err != nil {
		return nil, err
	}
	vc, err := gocv.OpenVideoCaptureWithAPI(cfg.Device, api)
	if err != nil {
		return nil, fmt.Errorf("open device %d: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("device %d not opened", cfg.Device)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	return vc, nil
}

func apiPreference(name string) (gocv.VideoCaptureAPI, error) {
	switch name {
	case "", "any":
		return gocv.VideoCaptureAny, nil
	case "v4l2":
		return gocv.VideoCaptureV4L2, nil
	case "gstreamer":
		return gocv.VideoCaptureGstreamer, nil
	case "ffmpeg":
		return gocv.VideoCaptureFFmpeg, nil
	case "dshow":
		return gocv.VideoCaptureDshow, nil
	case "avfoundation":
		return gocv.VideoCaptureAVFoundation, nil
	}
	return gocv.VideoCaptureAny, fmt.Errorf("unknown capture backend %q", name)
}
