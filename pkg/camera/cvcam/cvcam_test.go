package cvcam

import (
	"context"
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-spectro/pkg/camera"
)

// fakeSource plays back reads from a script; true yields a 4x3 gray frame.
type fakeSource struct {
	reads  []bool
	closed bool
}

func (f *fakeSource) Read(m *gocv.Mat) bool {
	if len(f.reads) == 0 {
		return false
	}
	ok := f.reads[0]
	f.reads = f.reads[1:]
	if ok {
		src := gocv.NewMatWithSize(3, 4, gocv.MatTypeCV8UC1)
		defer src.Close()
		src.CopyTo(m)
	}
	return ok
}

func (f *fakeSource) Get(gocv.VideoCaptureProperties) float64 { return 0 }

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func newFakeCamera(sources ...*fakeSource) (*Camera, *int) {
	cfg := camera.DefaultConfig()
	cfg.WarmupTimeout = 50 * time.Millisecond
	cfg.WarmupInterval = time.Millisecond
	opens := 0
	c := New(cfg, nil)
	c.open = func(camera.Config) (source, error) {
		if opens >= len(sources) {
			return nil, errors.New("no device")
		}
		s := sources[opens]
		opens++
		return s, nil
	}
	return c, &opens
}

func TestCaptureFrame_ReopensAfterEmptyRead(t *testing.T) {
	first := &fakeSource{reads: []bool{true, false}}
	second := &fakeSource{reads: []bool{true, true}}
	c, opens := newFakeCamera(first, second)
	defer c.Close()
	ctx := context.Background()

	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	_, err := c.CaptureFrame(ctx)
	if !errors.Is(err, camera.ErrNoFrame) {
		t.Fatalf("first capture: got %v, want ErrNoFrame", err)
	}
	if !first.closed {
		t.Error("dead device not released")
	}

	im, err := c.CaptureFrame(ctx)
	if err != nil {
		t.Fatalf("capture after reopen: %v", err)
	}
	if im.Width != 4 || im.Height != 3 {
		t.Errorf("frame: got %dx%d, want 4x3", im.Width, im.Height)
	}
	if *opens != 2 {
		t.Errorf("opens: got %d, want 2", *opens)
	}
}

func TestCaptureFrame_ReopenFailure(t *testing.T) {
	c, _ := newFakeCamera(&fakeSource{reads: []bool{true, false}})
	defer c.Close()
	ctx := context.Background()

	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	c.CaptureFrame(ctx)

	_, err := c.CaptureFrame(ctx)
	var camErr *camera.Error
	if !errors.As(err, &camErr) || camErr.Op != "reopen" {
		t.Fatalf("got %v, want reopen camera.Error", err)
	}
}

func TestCaptureFrame_NotInitialized(t *testing.T) {
	c, opens := newFakeCamera(&fakeSource{reads: []bool{true}})
	_, err := c.CaptureFrame(context.Background())
	if !errors.Is(err, camera.ErrNotInitialized) {
		t.Fatalf("got %v, want ErrNotInitialized", err)
	}
	if *opens != 0 {
		t.Errorf("opens: got %d, want 0", *opens)
	}
}
