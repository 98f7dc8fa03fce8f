// Package loop runs the acquisition-to-render cycle: wait for the button,
// capture a frame, reduce it to ROI features, predict a spectrum and render
// it. Every failure is contained in the step that caused it and reported as
// a telemetry record; the loop itself only stops on shutdown.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-spectro/pkg/button"
	"github.com/teslashibe/go-spectro/pkg/camera"
	"github.com/teslashibe/go-spectro/pkg/display"
	"github.com/teslashibe/go-spectro/pkg/features"
	"github.com/teslashibe/go-spectro/pkg/frame"
	"github.com/teslashibe/go-spectro/pkg/model"
	"github.com/teslashibe/go-spectro/pkg/retry"
	"github.com/teslashibe/go-spectro/pkg/roi"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
	"github.com/teslashibe/go-spectro/pkg/telemetry"
)

// ErrShutdown is returned by Step when the context was cancelled before or
// during a step.
var ErrShutdown = errors.New("loop: shutdown")

// Loop owns the collaborators for the lifetime of the process. It is driven
// from a single goroutine; State, ROIs and SetROIs may be called from others.
type Loop struct {
	cfg Config

	button  button.Button
	camera  camera.Camera
	model   model.Model
	display display.Display

	recorder  *telemetry.Recorder
	extractor *features.Extractor
	archiver  camera.Archiver
	logger    *slog.Logger
	now       func() time.Time

	onState  func(State)
	onRecord func(telemetry.Record)

	rois  atomic.Pointer[roi.Set]
	state atomic.Int32
	steps atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) { lp.logger = l }
}

// WithRecorder sets the telemetry recorder records are appended to.
func WithRecorder(r *telemetry.Recorder) Option {
	return func(lp *Loop) { lp.recorder = r }
}

// WithExtractor replaces the default feature extractor.
func WithExtractor(e *features.Extractor) Option {
	return func(lp *Loop) { lp.extractor = e }
}

// WithArchiver stores every captured frame.
func WithArchiver(a camera.Archiver) Option {
	return func(lp *Loop) { lp.archiver = a }
}

// OnState registers a callback invoked on every state transition. It runs
// on the loop goroutine and must not block.
func OnState(fn func(State)) Option {
	return func(lp *Loop) { lp.onState = fn }
}

// OnRecord registers a callback invoked with every emitted record. It runs
// on the loop goroutine and must not block.
func OnRecord(fn func(telemetry.Record)) Option {
	return func(lp *Loop) { lp.onRecord = fn }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(lp *Loop) { lp.now = now }
}

// New creates a loop. The collaborators must already be initialized; the
// loop never opens or closes them.
func New(cfg Config, set roi.Set, b button.Button, c camera.Camera, m model.Model, d display.Display, opts ...Option) (*Loop, error) {
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("loop config: %s", strings.Join(problems, "; "))
	}
	if b == nil || c == nil || m == nil || d == nil {
		return nil, errors.New("loop: button, camera, model and display are required")
	}
	if set.Len() == 0 {
		return nil, errors.New("loop: empty ROI set")
	}

	l := &Loop{
		cfg:     cfg,
		button:  b,
		camera:  c,
		model:   m,
		display: d,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.recorder == nil {
		l.recorder = telemetry.NewRecorder(telemetry.WithLogger(l.logger))
	}
	if l.extractor == nil {
		l.extractor = features.NewExtractor()
	}
	l.logger = l.logger.With("component", "loop")
	l.rois.Store(&set)
	return l, nil
}

// State returns the current state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// ROIs returns the ROI set used by the next step.
func (l *Loop) ROIs() roi.Set {
	return *l.rois.Load()
}

// SetROIs replaces the ROI set wholesale. A step already running keeps the
// set it started with.
func (l *Loop) SetROIs(set roi.Set) error {
	if set.Len() == 0 {
		return errors.New("loop: empty ROI set")
	}
	l.rois.Store(&set)
	l.logger.Info("roi set replaced", "source", set.Source(), "count", set.Len())
	return nil
}

// ReloadROIs loads path and swaps it in. On failure the current set stays.
func (l *Loop) ReloadROIs(path string) error {
	set, err := roi.Load(path)
	if err != nil {
		return err
	}
	return l.SetROIs(set)
}

// Recorder returns the telemetry recorder.
func (l *Loop) Recorder() *telemetry.Recorder {
	return l.recorder
}

// Steps returns how many records have been emitted.
func (l *Loop) Steps() uint64 {
	return l.steps.Load()
}

// Run calls Step until ctx is cancelled or the button closes. A failed step
// never stops it.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("loop started",
		"rois", l.ROIs().Len(),
		"press_policy", l.cfg.PressPolicy,
		"capture_attempts", l.cfg.CaptureAttempts,
		"predict_attempts", l.cfg.PredictAttempts,
	)
	if err := l.display.ShowStatus(display.StatusReady); err != nil {
		l.logger.Warn("display unavailable", "error", err)
	}

	for {
		_, err := l.Step(ctx)
		if errors.Is(err, ErrShutdown) {
			l.setState(Stopped)
			l.logger.Info("loop stopped", "steps", l.Steps(), "reason", err)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Step runs one full cycle and returns its record. It blocks until the
// button is pressed. Shutdown is observed while waiting and between stages:
// before a press Step returns ErrShutdown with a zero record; after a press
// it returns the aborted step's Failed record together with ErrShutdown.
func (l *Loop) Step(ctx context.Context) (telemetry.Record, error) {
	rec := telemetry.NewBuilder(l.now())

	// 1. Button.
	l.setState(WaitingForButton)
	start := time.Now()
	if err := l.waitForPress(ctx); err != nil {
		return telemetry.Record{}, err
	}
	rec.Stage(telemetry.StageWait, time.Since(start))
	set := l.ROIs()
	if l.stopping(ctx) {
		return l.abort(rec, telemetry.StageCapture)
	}

	// 2. Capture.
	l.setState(Capturing)
	start = time.Now()
	captured := l.capture(ctx)
	rec.Stage(telemetry.StageCapture, time.Since(start))
	rec.Attempts(captured.Attempts, 0)
	if !captured.Ok() {
		return l.fail(rec, telemetry.StageCapture, captured.Err)
	}
	img := captured.Value
	title := l.archive(img, rec)
	if l.stopping(ctx) {
		return l.abort(rec, telemetry.StageFeatures)
	}

	// 3-4. Features.
	l.setState(ExtractingFeatures)
	start = time.Now()
	vec, err := l.extract(img, set)
	rec.Stage(telemetry.StageFeatures, time.Since(start))
	if err != nil {
		return l.fail(rec, telemetry.StageFeatures, err)
	}
	rec.Features(set.Names(), vec)
	if l.stopping(ctx) {
		return l.abort(rec, telemetry.StagePredict)
	}

	// 5-6. Prediction.
	l.setState(Predicting)
	start = time.Now()
	predicted := l.predict(ctx, vec)
	rec.Attempts(0, predicted.Attempts)
	if !predicted.Ok() {
		rec.Stage(telemetry.StagePredict, time.Since(start))
		return l.fail(rec, telemetry.StagePredict, predicted.Err)
	}
	pred := predicted.Value
	err = spectrum.Validate(pred)
	rec.Stage(telemetry.StagePredict, time.Since(start))
	if err != nil {
		return l.fail(rec, telemetry.StagePredict, err)
	}
	rec.Fingerprint(spectrum.Fingerprint(pred))
	if l.stopping(ctx) {
		return l.abort(rec, telemetry.StageRender)
	}

	// 7. Render.
	l.setState(Rendering)
	start = time.Now()
	if err := l.render(pred, title); err != nil {
		l.setState(Degraded)
		rec.Degrade(telemetry.StageRender, err)
		l.logger.Warn("render failed", "error", err)
		if serr := l.display.ShowStatus(display.StatusDisplayError); serr != nil {
			l.logger.Error("status fallback failed", "error", serr)
		}
	}
	rec.Stage(telemetry.StageRender, time.Since(start))

	// 8. Record.
	return l.finish(rec), nil
}

// waitForPress polls the button in PollInterval slices so cancellation is
// observed promptly.
func (l *Loop) waitForPress(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrShutdown, err)
		}
		pressed, err := l.button.WaitForPress(ctx, l.cfg.PollInterval)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return fmt.Errorf("%w: %w", ErrShutdown, err)
		case errors.Is(err, button.ErrClosed):
			return fmt.Errorf("%w: %w", ErrShutdown, err)
		case err != nil:
			l.logger.Warn("button error", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(l.cfg.PollInterval):
			}
		case pressed:
			return nil
		}
	}
}

// stageContext detaches a stage from shutdown and bounds it in time.
func (l *Loop) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), l.cfg.StageTimeout)
}

func (l *Loop) capture(ctx context.Context) retry.Outcome[*frame.Image] {
	sctx, cancel := l.stageContext(ctx)
	defer cancel()

	policy := retry.Policy{
		Name:        "capture",
		MaxAttempts: l.cfg.CaptureAttempts,
		Backoff:     l.cfg.backoff(l.cfg.CaptureBackoff),
		Logger:      l.logger,
	}
	return retry.Run(sctx, policy, func(ctx context.Context) (*frame.Image, error) {
		img, err := l.camera.CaptureFrame(ctx)
		if err != nil {
			return nil, camera.Wrap("capture", err)
		}
		if err := img.Check(); err != nil {
			return nil, &camera.Error{Op: "capture", Err: err}
		}
		return img, nil
	})
}

// archive stores the frame if an archiver is configured and returns the
// plot title: the archived file stem, else the record timestamp.
func (l *Loop) archive(img *frame.Image, rec *telemetry.Builder) string {
	at := rec.Timestamp()
	title := at.Format(camera.TimestampLayout)
	if l.archiver == nil {
		return title
	}
	path, err := l.archiver.Archive(img, at)
	if err != nil {
		l.logger.Warn("archive failed", "error", err)
		return title
	}
	l.logger.Debug("frame archived", "path", path)
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (l *Loop) extract(img *frame.Image, set roi.Set) (features.Vector, error) {
	// Bounds are checked against every frame: the resolution may change.
	if err := roi.Validate(set, img.Width, img.Height); err != nil {
		return nil, err
	}
	vec, raw, err := l.extractor.Extract(img, set)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("features", "raw", []float64(raw), "vector", []float64(vec))
	return vec, nil
}

func (l *Loop) predict(ctx context.Context, vec features.Vector) retry.Outcome[*spectrum.Prediction] {
	sctx, cancel := l.stageContext(ctx)
	defer cancel()

	policy := retry.Policy{
		Name:        "predict",
		MaxAttempts: l.cfg.PredictAttempts,
		Backoff:     l.cfg.backoff(l.cfg.PredictBackoff),
		Logger:      l.logger,
	}
	return retry.Run(sctx, policy, func(ctx context.Context) (*spectrum.Prediction, error) {
		p, err := l.model.Predict(ctx, vec)
		if errors.Is(err, model.ErrNotLoaded) || errors.Is(err, model.ErrDimension) {
			return nil, retry.Permanent(err)
		}
		return p, err
	})
}

// render stops at the first failing display call.
func (l *Loop) render(p *spectrum.Prediction, title string) error {
	if err := l.display.Clear(); err != nil {
		return display.Wrap("clear", err)
	}
	if err := l.display.PlotSpectrum(p, title); err != nil {
		return display.Wrap("plot", err)
	}
	if err := l.display.ShowStatus(display.StatusOK); err != nil {
		return display.Wrap("status", err)
	}
	return nil
}

// fail reports a stage failure to the operator once and emits the record.
func (l *Loop) fail(rec *telemetry.Builder, stage telemetry.Stage, err error) (telemetry.Record, error) {
	l.setState(Degraded)
	rec.Fail(stage, err)
	l.logger.Warn("step failed", "stage", stage, "error", err)
	if serr := l.display.ShowStatus(StatusFor(err)); serr != nil {
		l.logger.Error("status display failed", "error", serr)
	}
	return l.finish(rec), nil
}

// abort ends a step interrupted by shutdown at the boundary before next.
func (l *Loop) abort(rec *telemetry.Builder, next telemetry.Stage) (telemetry.Record, error) {
	rec.Fail(next, ErrShutdown)
	r := l.finish(rec)
	l.setState(Stopped)
	return r, ErrShutdown
}

func (l *Loop) finish(rec *telemetry.Builder) telemetry.Record {
	r := rec.Build()
	if err := l.recorder.Append(r); err != nil {
		l.logger.Error("telemetry sink failed", "error", err)
	}
	l.steps.Add(1)
	if l.onRecord != nil {
		l.onRecord(r)
	}
	if l.cfg.PressPolicy == PressDrop {
		l.button.Reset()
	}
	l.logger.Debug("step recorded",
		"id", r.ID(),
		"outcome", r.Outcome(),
		"steps", l.steps.Load(),
	)
	l.setState(WaitingForButton)
	return r
}

func (l *Loop) stopping(ctx context.Context) bool {
	return ctx.Err() != nil
}

func (l *Loop) setState(s State) {
	if State(l.state.Swap(int32(s))) == s {
		return
	}
	if l.onState != nil {
		l.onState(s)
	}
}

// StatusFor returns the operator-facing status line for a step failure.
func StatusFor(err error) string {
	var (
		camErr  *camera.Error
		cfgErr  *roi.ConfigError
		featErr *features.FeatureError
		outErr  *spectrum.OutputError
	)
	switch {
	case errors.Is(err, model.ErrNotLoaded):
		return "model not loaded"
	case errors.As(err, &camErr):
		return "camera error"
	case errors.As(err, &featErr):
		return "feature error"
	case errors.As(err, &cfgErr):
		return "roi config error"
	case errors.As(err, &outErr):
		return "model output error"
	case err != nil:
		return "model error"
	}
	return display.StatusOK
}
