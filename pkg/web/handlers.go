package web

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-spectro/pkg/hub"
	"github.com/teslashibe/go-spectro/pkg/telemetry"
)

const (
	defaultTelemetryLimit = 50
	maxTelemetryLimit     = telemetry.DefaultHistory
)

// TelemetryResponse is the /api/telemetry body.
type TelemetryResponse struct {
	Stats   telemetry.Stats    `json:"stats"`
	Records []telemetry.Record `json:"records"`
}

// SpectrumView is the /api/spectrum body and the spectrum event payload.
type SpectrumView struct {
	Title          string    `json:"title"`
	Wavelengths    []float64 `json:"wavelengths"`
	Intensities    []float64 `json:"intensities"`
	PeakWavelength float64   `json:"peak_wavelength"`
	PeakIntensity  float64   `json:"peak_intensity"`
}

// PressResponse is the /api/press body.
type PressResponse struct {
	Accepted  bool   `json:"accepted"`
	Presses   uint64 `json:"presses"`
	Coalesced uint64 `json:"coalesced"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Snapshot())
}

// handleTelemetry returns the newest records, oldest first.
func (s *Server) handleTelemetry(c *fiber.Ctx) error {
	limit := defaultTelemetryLimit
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > maxTelemetryLimit {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be between 1 and " + strconv.Itoa(maxTelemetryLimit),
			})
		}
		limit = n
	}

	records := s.recorder.Records()
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	return c.JSON(TelemetryResponse{Stats: s.recorder.Stats(), Records: records})
}

func (s *Server) handleSpectrum(c *fiber.Ctx) error {
	view, ok := s.spectrumView()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no spectrum rendered yet"})
	}
	return c.JSON(view)
}

// handlePress feeds the web button. A press arriving while one is pending
// coalesces into it.
func (s *Server) handlePress(c *fiber.Ctx) error {
	if s.trigger == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "web button not enabled",
		})
	}
	accepted := s.trigger.Press()
	presses, coalesced := s.trigger.Stats()
	s.logger.Info("web press", "accepted", accepted, "presses", presses)
	return c.Status(fiber.StatusAccepted).JSON(PressResponse{
		Accepted:  accepted,
		Presses:   presses,
		Coalesced: coalesced,
	})
}

func (s *Server) handleStatusWS(conn *websocket.Conn) {
	var initial []hub.Message
	if msg, err := hub.Encode(hub.TopicStatus, s.Snapshot()); err == nil {
		initial = append(initial, msg)
	}
	if view, ok := s.spectrumView(); ok {
		if msg, err := hub.Encode(hub.TopicSpectrum, view); err == nil {
			initial = append(initial, msg)
		}
	}
	hub.NewClient(s.hub, conn).Run(initial...)
}

func (s *Server) spectrumView() (SpectrumView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.spectrum == nil {
		return SpectrumView{}, false
	}
	return newSpectrumView(s.spectrum, s.title), true
}
