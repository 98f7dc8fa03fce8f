package cvcam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-spectro/pkg/camera"
)

// CheckResult reports each stage of a connectivity check.
type CheckResult struct {
	Opened   bool   `json:"opened"`
	Captured bool   `json:"captured"`
	Saved    bool   `json:"saved"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Check opens the device, reads one frame within the warm-up timeout and
// saves it as outDir/camera_check_<ts>.png.
func Check(ctx context.Context, cfg camera.Config, outDir string) CheckResult {
	var res CheckResult

	vc, err := openDevice(cfg)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Opened = true

	c := &Camera{cfg: cfg, vc: vc, buf: gocv.NewMat()}
	defer c.release()

	if _, err := c.warmup(ctx); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Captured = true

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		res.Error = err.Error()
		return res
	}
	path := filepath.Join(outDir, fmt.Sprintf("camera_check_%s.png", time.Now().Format(camera.TimestampLayout)))
	if !gocv.IMWrite(path, c.buf) {
		res.Error = "failed to save screenshot to " + path
		return res
	}
	res.Saved = true
	res.Path = path
	return res
}
