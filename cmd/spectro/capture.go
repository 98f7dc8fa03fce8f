package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-spectro/internal/config"
	"github.com/teslashibe/go-spectro/internal/device"
	"github.com/teslashibe/go-spectro/pkg/camera"
	"github.com/teslashibe/go-spectro/pkg/roi"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

func newCaptureCmd(a *app) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture one frame into the archive directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = a.cfg.Camera.ArchiveDir
			}
			if outDir == "" {
				return errors.New("no output directory: set camera.archive_dir or --out")
			}
			path, err := captureOnce(cmd.Context(), a.cfg, outDir, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📷 %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default camera.archive_dir)")
	return cmd
}

func captureOnce(ctx context.Context, cfg *config.Config, outDir string, logger *slog.Logger) (string, error) {
	cam, err := device.OpenCamera(ctx, cfg, logger)
	if err != nil {
		return "", err
	}
	defer cam.Close()

	sctx, cancel := context.WithTimeout(ctx, cfg.Loop.StageTimeout)
	defer cancel()
	img, err := cam.CaptureFrame(sctx)
	if err != nil {
		return "", camera.Wrap("capture", err)
	}
	return camera.NewDirArchiver(outDir).Archive(img, time.Now())
}

func newReconstructCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconstruct [image]",
		Short: "Predict and plot the spectrum of a saved frame",
		Long: `reconstruct runs feature extraction and prediction on an image file. Without
an argument it uses the newest frame in the archive directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				latest, err := camera.Latest(a.cfg.Camera.ArchiveDir)
				if err != nil {
					return err
				}
				path = latest
			}
			p, err := reconstruct(cmd.Context(), a.cfg, path, a.logger)
			if err != nil {
				return err
			}
			wl, in := p.Peak()
			fmt.Fprintf(cmd.OutOrStdout(), "🌈 %s: %d bands, peak %.1f nm (%.4f)\n", filepath.Base(path), p.Len(), wl, in)
			return nil
		},
	}
}

// reconstruct mirrors one loop step without the button, retries or archive.
func reconstruct(ctx context.Context, cfg *config.Config, path string, logger *slog.Logger) (*spectrum.Prediction, error) {
	img, err := camera.ReadImage(path)
	if err != nil {
		return nil, camera.Wrap("read", err)
	}
	set, ext, err := device.LoadROIs(cfg)
	if err != nil {
		return nil, err
	}
	if err := roi.Validate(set, img.Width, img.Height); err != nil {
		return nil, err
	}
	vec, _, err := ext.Extract(img, set)
	if err != nil {
		return nil, err
	}

	m, err := device.OpenModel(ctx, cfg, set.Len(), logger)
	if err != nil {
		return nil, err
	}
	if c, ok := m.(interface{ Close() error }); ok {
		defer c.Close()
	}
	p, err := m.Predict(ctx, vec)
	if err != nil {
		return nil, err
	}
	if err := spectrum.Validate(p); err != nil {
		return nil, err
	}

	d, err := device.OpenDisplay(cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := d.PlotSpectrum(p, title); err != nil {
		return nil, err
	}
	return p, nil
}
