package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-spectro/internal/config"
	"github.com/teslashibe/go-spectro/internal/device"
	"github.com/teslashibe/go-spectro/pkg/camera"
	"github.com/teslashibe/go-spectro/pkg/camera/cvcam"
	"github.com/teslashibe/go-spectro/pkg/model"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Diagnose the camera or the model",
	}
	cmd.AddCommand(newCheckCameraCmd(a), newCheckModelCmd(a))
	return cmd
}

func newCheckCameraCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "camera",
		Short: "Open the camera, read one frame and save a screenshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := checkCamera(cmd.Context(), a.cfg)
			if asJSON {
				writeJSON(cmd.OutOrStdout(), res)
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s opened\n", mark(res.Opened))
				fmt.Fprintf(out, "%s captured\n", mark(res.Captured))
				fmt.Fprintf(out, "%s saved %s\n", mark(res.Saved), res.Path)
			}
			if res.Error != "" {
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// checkCamera uses the native probe for gocv and a plain capture otherwise.
func checkCamera(ctx context.Context, cfg *config.Config) cvcam.CheckResult {
	outDir := cfg.Camera.ArchiveDir
	if cfg.Camera.Driver == camera.DriverGoCV {
		return cvcam.Check(ctx, cfg.Camera, outDir)
	}

	var res cvcam.CheckResult
	cam, err := device.OpenCamera(ctx, cfg, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer cam.Close()
	res.Opened = true

	img, err := cam.CaptureFrame(ctx)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Captured = true

	path, err := camera.NewDirArchiver(outDir).Archive(img, time.Now())
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Saved, res.Path = true, path
	return res
}

// ModelCheck reports each stage of the model diagnosis.
type ModelCheck struct {
	Driver        string `json:"driver"`
	MeanDim       int    `json:"mean_dim"`
	StdDim        int    `json:"std_dim"`
	ModelFile     string `json:"model_file,omitempty"`
	ModelFileSeen bool   `json:"model_file_present"`
	ROIs          int    `json:"rois"`
	Loaded        bool   `json:"loaded"`
	Error         string `json:"error,omitempty"`
}

func newCheckModelCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Verify standardization shapes, the model file and that it loads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := checkModel(cmd.Context(), a.cfg)
			if asJSON {
				writeJSON(cmd.OutOrStdout(), res)
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "driver %s, %d ROIs\n", res.Driver, res.ROIs)
				if res.MeanDim > 0 {
					fmt.Fprintf(out, "%s mean/std shapes (%d, %d)\n", mark(res.MeanDim == res.StdDim), res.MeanDim, res.StdDim)
				}
				if res.ModelFile != "" {
					fmt.Fprintf(out, "%s %s\n", mark(res.ModelFileSeen), res.ModelFile)
				}
				fmt.Fprintf(out, "%s loaded\n", mark(res.Loaded))
			}
			if res.Error != "" {
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func checkModel(ctx context.Context, cfg *config.Config) ModelCheck {
	mc := cfg.Model
	res := ModelCheck{Driver: mc.Driver}

	set, _, err := device.LoadROIs(cfg)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.ROIs = set.Len()

	switch mc.Driver {
	case config.ModelONNX:
		res.ModelFile = mc.File
		if res.ModelFile == "" {
			res.ModelFile = filepath.Join(mc.Dir, model.ONNXFile)
		}
	case config.ModelLinear:
		res.ModelFile = mc.File
		if res.ModelFile == "" {
			res.ModelFile = filepath.Join(mc.Dir, model.ParamFile)
		}
	}
	if res.ModelFile != "" {
		_, err := os.Stat(res.ModelFile)
		res.ModelFileSeen = err == nil
	}

	if mc.Driver == config.ModelONNX {
		std, err := model.LoadStandardization(mc.Dir)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.MeanDim, res.StdDim = len(std.Mean), len(std.Std)
	}

	m, err := device.OpenModel(ctx, cfg, res.ROIs, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if c, ok := m.(interface{ Close() error }); ok {
		c.Close()
	}
	res.Loaded = true
	return res
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
