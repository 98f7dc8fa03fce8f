// spectro drives the ROI spectrometer: a button press captures a frame,
// the ROI gray levels are fed to a spectrum model and the prediction is
// rendered.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-spectro/internal/config"
	"github.com/teslashibe/go-spectro/internal/log"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

// app carries what every subcommand shares.
type app struct {
	cfgPath   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "spectro",
		Short: "ROI spectrometer: capture, reconstruct and display spectra",
		Long: `spectro turns a camera frame into a spectrum. Each press of the capture
button grabs one frame, averages the gray level of every configured region
of interest, feeds the vector to the spectrum model and plots the result.

Configuration comes from defaults, an optional YAML file (--config) and
SPECTRO_* environment variables, e.g. SPECTRO_CAMERA_DRIVER=synthetic.

Examples:
  spectro run --config /etc/spectro/spectro.yaml
  spectro run --button web --web
  spectro capture
  spectro reconstruct capture/20240131_094501.png
  spectro check camera
  spectro reset`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = a.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format = a.logFormat
			}
			a.cfg = cfg
			a.logger = log.Init(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
			return nil
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "text or json (default: json when GO_ENV=production)")

	root.AddCommand(
		newRunCmd(a),
		newCaptureCmd(a),
		newReconstructCmd(a),
		newCheckCmd(a),
		newResetCmd(a),
		newVersionCmd(a),
	)
	return root
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spectro %s\n", version)
		},
	}
}

func main() {
	a := &app{out: os.Stdout}
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
