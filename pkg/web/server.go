// Package web serves the operator dashboard: a status API, live websocket
// updates, a press endpoint and a Display that mirrors the device screen.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-spectro/pkg/button"
	"github.com/teslashibe/go-spectro/pkg/hub"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
	"github.com/teslashibe/go-spectro/pkg/telemetry"
)

// Config configures the dashboard.
type Config struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Addr      string `json:"addr" mapstructure:"addr"`
	StaticDir string `json:"static_dir" mapstructure:"static_dir"`
}

// DefaultConfig returns the dashboard defaults. It is disabled unless asked for.
func DefaultConfig() Config {
	return Config{Addr: ":8080"}
}

// Status is the device snapshot served at /api/status and pushed on connect.
type Status struct {
	State        string            `json:"state"`
	Message      string            `json:"message"`
	Steps        int               `json:"steps"`
	LastRecord   *telemetry.Record `json:"last_record,omitempty"`
	Subscribers  int               `json:"subscribers"`
	Dropped      int               `json:"dropped_subscribers"`
	PressEnabled bool              `json:"press_enabled"`
	StartedAt    time.Time         `json:"started_at"`
}

// Server is the dashboard server.
type Server struct {
	app      *fiber.App
	cfg      Config
	logger   *slog.Logger
	hub      *hub.Hub
	recorder *telemetry.Recorder
	trigger  *button.Trigger
	started  time.Time

	mu       sync.RWMutex
	state    string
	message  string
	spectrum *spectrum.Prediction
	title    string
}

// NewServer builds the dashboard. trigger may be nil, in which case
// POST /api/press answers 503.
func NewServer(cfg Config, rec *telemetry.Recorder, trigger *button.Trigger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = telemetry.NewRecorder()
	}
	logger = logger.With("component", "web")
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		hub:      hub.New("status", logger),
		recorder: rec,
		trigger:  trigger,
		started:  time.Now().UTC(),
		state:    "waiting_for_button",
	}

	app := fiber.New(fiber.Config{
		AppName:               "spectro dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/telemetry", s.handleTelemetry)
	api.Get("/spectrum", s.handleSpectrum)
	api.Post("/press", s.handlePress)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the websocket hub.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listen(s.cfg.Addr) }()
	s.logger.Info("dashboard listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(5 * time.Second)
	case err := <-errc:
		return err
	}
}

// SetState records the loop state and pushes it to subscribers.
func (s *Server) SetState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.publish(hub.TopicState, fiber.Map{"state": state})
}

// PublishRecord pushes a finished step's record to subscribers.
func (s *Server) PublishRecord(r telemetry.Record) {
	s.publish(hub.TopicRecord, r)
}

// Snapshot returns the current status.
func (s *Server) Snapshot() Status {
	st := Status{
		Steps:        s.recorder.Len(),
		Subscribers:  s.hub.ClientCount(),
		Dropped:      s.hub.Dropped(),
		PressEnabled: s.trigger != nil,
		StartedAt:    s.started,
	}
	if last, ok := s.recorder.Last(); ok {
		st.LastRecord = &last
	}
	s.mu.RLock()
	st.State = s.state
	st.Message = s.message
	s.mu.RUnlock()
	return st
}

func (s *Server) publish(topic string, v any) {
	if err := s.hub.Publish(topic, v); err != nil {
		s.logger.Warn("publish failed", "topic", topic, "error", err)
	}
}
