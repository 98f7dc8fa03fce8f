package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/teslashibe/go-spectro/pkg/frame"
)

// imageExts are the extensions considered when Path is a directory.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// File replays images from disk. When Path is a directory each capture
// reads the newest image in it, which makes a capture folder written by
// another process usable as a camera.
type File struct {
	path string
}

// NewFile creates a file camera for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Initialize implements Camera by checking that the path exists.
func (f *File) Initialize(ctx context.Context) error {
	if _, err := os.Stat(f.path); err != nil {
		return &Error{Op: "open", Err: err}
	}
	return nil
}

// CaptureFrame implements Camera.
func (f *File) CaptureFrame(ctx context.Context) (*frame.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "capture", Err: err}
	}
	path, err := f.resolve()
	if err != nil {
		return nil, &Error{Op: "capture", Err: err}
	}
	im, err := ReadImage(path)
	if err != nil {
		return nil, &Error{Op: "capture", Err: err}
	}
	return im, nil
}

// Close implements Camera.
func (f *File) Close() error { return nil }

func (f *File) resolve() (string, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return f.path, nil
	}
	return Latest(f.path)
}

// ReadImage decodes an image file into a frame.
func ReadImage(path string) (*frame.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return frame.FromImage(img), nil
}

// Latest returns the most recently modified image file in dir.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var (
		best    string
		bestMod int64
	)
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); best == "" || mod > bestMod || (mod == bestMod && e.Name() > filepath.Base(best)) {
			best, bestMod = filepath.Join(dir, e.Name()), mod
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: no images in %s", ErrNoFrame, dir)
	}
	return best, nil
}
