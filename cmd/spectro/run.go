package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-spectro/internal/config"
	"github.com/teslashibe/go-spectro/internal/device"
	"github.com/teslashibe/go-spectro/pkg/button"
	"github.com/teslashibe/go-spectro/pkg/loop"
	"github.com/teslashibe/go-spectro/pkg/telemetry"
	"github.com/teslashibe/go-spectro/pkg/web"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		buttonFlag string
		webFlag    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the press, capture, predict, render loop until interrupted",
		Long: `run opens every configured device and loops until SIGINT or SIGTERM.
SIGHUP reloads the ROI file; a bad file keeps the current regions.
A model that fails to load aborts before the loop starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if buttonFlag != "" {
				a.cfg.Button.Driver = buttonFlag
			}
			if cmd.Flags().Changed("web") {
				a.cfg.Web.Enabled = webFlag
			}
			if err := a.cfg.Err(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runLoop(ctx, a.cfg, a.logger)
		},
	}
	cmd.Flags().StringVarP(&buttonFlag, "button", "b", "", "button driver: gpio, stdin or web")
	cmd.Flags().BoolVar(&webFlag, "web", false, "serve the dashboard")
	return cmd
}

func runLoop(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	rec, err := newRecorder(cfg, logger)
	if err != nil {
		return err
	}
	defer rec.Close()

	var (
		srv     *web.Server
		devOpts = []device.Option{device.WithLogger(logger)}
	)
	if cfg.Web.Enabled {
		var trig *button.Trigger
		if cfg.Button.Driver == config.ButtonWeb {
			trig = button.NewTrigger()
		}
		srv = web.NewServer(cfg.Web, rec, trig, logger)
		devOpts = append(devOpts, device.WithWeb(trig, srv.Display()))
	}

	dev, err := device.Open(ctx, cfg, devOpts...)
	if err != nil {
		return err
	}
	defer dev.Close()

	opts := []loop.Option{
		loop.WithLogger(logger),
		loop.WithRecorder(rec),
		loop.WithExtractor(dev.Extractor),
	}
	if dev.Archiver != nil {
		opts = append(opts, loop.WithArchiver(dev.Archiver))
	}
	if srv != nil {
		opts = append(opts,
			loop.OnState(func(s loop.State) { srv.SetState(s.String()) }),
			loop.OnRecord(srv.PublishRecord),
		)
	}
	l, err := loop.New(cfg.Loop, dev.ROIs, dev.Button, dev.Camera, dev.Model, dev.Display, opts...)
	if err != nil {
		return err
	}

	if srv != nil {
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("dashboard stopped", "error", err)
			}
		}()
	}
	go reloadOnHangup(ctx, l, cfg.ROI.File, logger)

	return l.Run(ctx)
}

// newRecorder attaches the log sink and, if configured, the CSV file.
func newRecorder(cfg *config.Config, logger *slog.Logger) (*telemetry.Recorder, error) {
	opts := []telemetry.RecorderOption{
		telemetry.WithHistory(cfg.Telemetry.History),
		telemetry.WithLogger(logger),
		telemetry.WithSink(telemetry.NewLogSink(logger)),
	}
	if cfg.Telemetry.CSV != "" {
		sink, err := telemetry.NewCSVSink(cfg.Telemetry.CSV)
		if err != nil {
			return nil, err
		}
		opts = append(opts, telemetry.WithSink(sink))
	}
	return telemetry.NewRecorder(opts...), nil
}

func reloadOnHangup(ctx context.Context, l *loop.Loop, path string, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := l.ReloadROIs(path); err != nil {
				logger.Error("roi reload failed, keeping current set", "path", path, "error", err)
			}
		}
	}
}
