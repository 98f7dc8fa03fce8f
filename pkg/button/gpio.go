package button

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOConfig configures a momentary push button wired to ground.
type GPIOConfig struct {
	Pin          string        // periph pin name, e.g. "GPIO17"
	Debounce     time.Duration // ignore edges closer than this
	PollInterval time.Duration // edge wait slice; bounds cancellation latency
}

// DefaultGPIOConfig matches the reference wiring: BCM 17, 50ms debounce.
func DefaultGPIOConfig() GPIOConfig {
	return GPIOConfig{
		Pin:          "GPIO17",
		Debounce:     50 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
	}
}

// GPIO is a hardware button read with periph.io edge detection. The pin is
// pulled up and a press is a falling edge.
type GPIO struct {
	pin    gpio.PinIO
	cfg    GPIOConfig
	last   time.Time
	logger *slog.Logger
}

// OpenGPIO initializes the host drivers and configures the pin.
func OpenGPIO(cfg GPIOConfig, logger *slog.Logger) (*GPIO, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultGPIOConfig().PollInterval
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("button: init host: %w", err)
	}
	pin := gpioreg.ByName(cfg.Pin)
	if pin == nil {
		return nil, fmt.Errorf("button: unknown pin %q", cfg.Pin)
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("button: configure %s: %w", cfg.Pin, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "button", "pin", cfg.Pin)
	logger.Info("gpio button ready", "debounce", cfg.Debounce)
	return &GPIO{pin: pin, cfg: cfg, logger: logger}, nil
}

// IsPressed implements Button: the line is low while held.
func (b *GPIO) IsPressed() bool {
	return b.pin.Read() == gpio.Low
}

// WaitForPress implements Button. The edge wait is sliced into PollInterval
// chunks so cancellation is observed promptly.
func (b *GPIO) WaitForPress(ctx context.Context, timeout time.Duration) (bool, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		slice := b.cfg.PollInterval
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return false, nil
			}
			if remaining < slice {
				slice = remaining
			}
		}
		if !b.pin.WaitForEdge(slice) {
			continue
		}
		now := time.Now()
		if now.Sub(b.last) < b.cfg.Debounce {
			b.logger.Debug("edge ignored (bounce)")
			continue
		}
		b.last = now
		return true, nil
	}
}

// Reset implements Button by draining latched edges.
func (b *GPIO) Reset() {
	for i := 0; i < 16 && b.pin.WaitForEdge(time.Millisecond); i++ {
	}
}

// Close releases the pin.
func (b *GPIO) Close() error {
	return b.pin.Halt()
}
