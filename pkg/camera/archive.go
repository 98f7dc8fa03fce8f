package camera

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/teslashibe/go-spectro/pkg/frame"
)

// TimestampLayout names archived captures: capture/20240131_094501.png.
const TimestampLayout = "20060102_150405"

// Archiver stores captured frames.
type Archiver interface {
	Archive(img *frame.Image, at time.Time) (string, error)
}

// DirArchiver writes each frame as a PNG named by its capture time. Frames
// captured within the same second get a numeric suffix.
type DirArchiver struct {
	dir string
	mu  sync.Mutex
}

// NewDirArchiver creates an archiver writing into dir.
func NewDirArchiver(dir string) *DirArchiver {
	return &DirArchiver{dir: dir}
}

// Dir returns the archive directory.
func (a *DirArchiver) Dir() string { return a.dir }

// Archive implements Archiver.
func (a *DirArchiver) Archive(img *frame.Image, at time.Time) (string, error) {
	if err := img.Check(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}
	base := at.Format(TimestampLayout)
	path := filepath.Join(a.dir, base+".png")
	for n := 1; ; n++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		path = filepath.Join(a.dir, fmt.Sprintf("%s_%d.png", base, n))
	}

	fh, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}
	if err := png.Encode(fh, img.ToImage()); err != nil {
		fh.Close()
		os.Remove(path)
		return "", fmt.Errorf("archive: encode: %w", err)
	}
	return path, fh.Close()
}

// Purge removes the regular files directly inside dir and returns how many
// were removed. A missing dir is not an error.
func Purge(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
