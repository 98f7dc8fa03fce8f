package loop

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-spectro/pkg/retry"
)

// PressPolicy decides what happens to a press that arrives while a step is
// being processed.
type PressPolicy string

const (
	// PressCoalesce keeps at most one such press; it triggers the next step.
	PressCoalesce PressPolicy = "coalesce"
	// PressDrop discards presses made during processing.
	PressDrop PressPolicy = "drop"
)

// BackoffShape names how the wait between retry attempts grows.
type BackoffShape string

const (
	BackoffConstant    BackoffShape = "constant"
	BackoffLinear      BackoffShape = "linear"
	BackoffExponential BackoffShape = "exponential"
)

// MaxPollInterval bounds how long a shutdown can go unnoticed while waiting
// for the button.
const MaxPollInterval = 50 * time.Millisecond

// Config holds the loop's timing and retry parameters.
type Config struct {
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
	StageTimeout time.Duration `mapstructure:"stage_timeout" json:"stage_timeout"`

	CaptureAttempts int           `mapstructure:"capture_attempts" json:"capture_attempts"`
	CaptureBackoff  time.Duration `mapstructure:"capture_backoff" json:"capture_backoff"`
	PredictAttempts int           `mapstructure:"predict_attempts" json:"predict_attempts"`
	PredictBackoff  time.Duration `mapstructure:"predict_backoff" json:"predict_backoff"`

	// BackoffShape applies to both stages. Exponential waits are capped at
	// StageTimeout.
	BackoffShape BackoffShape `mapstructure:"backoff_shape" json:"backoff_shape"`

	PressPolicy PressPolicy `mapstructure:"press_policy" json:"press_policy"`
}

// DefaultConfig returns the production defaults: three captures 200ms apart,
// two predictions, 20ms button polling and coalesced presses.
func DefaultConfig() Config {
	return Config{
		PollInterval:    20 * time.Millisecond,
		StageTimeout:    10 * time.Second,
		CaptureAttempts: 3,
		CaptureBackoff:  200 * time.Millisecond,
		PredictAttempts: 2,
		PredictBackoff:  50 * time.Millisecond,
		BackoffShape:    BackoffConstant,
		PressPolicy:     PressCoalesce,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string
	if c.PollInterval <= 0 || c.PollInterval >= MaxPollInterval {
		errors = append(errors, fmt.Sprintf("poll_interval must be between 0 and %s (exclusive)", MaxPollInterval))
	}
	if c.StageTimeout <= 0 {
		errors = append(errors, "stage_timeout must be positive")
	}
	if c.CaptureAttempts < 1 {
		errors = append(errors, "capture_attempts must be >= 1")
	}
	if c.PredictAttempts < 1 {
		errors = append(errors, "predict_attempts must be >= 1")
	}
	if c.CaptureBackoff < 0 || c.PredictBackoff < 0 {
		errors = append(errors, "backoff must not be negative")
	}
	switch c.BackoffShape {
	case BackoffConstant, BackoffLinear, BackoffExponential, "":
	default:
		errors = append(errors, "backoff_shape must be constant, linear or exponential")
	}
	switch c.PressPolicy {
	case PressCoalesce, PressDrop:
	default:
		errors = append(errors, "press_policy must be coalesce or drop")
	}
	return errors
}

func (c *Config) backoff(base time.Duration) retry.Backoff {
	switch c.BackoffShape {
	case BackoffLinear:
		return retry.Linear(base)
	case BackoffExponential:
		return retry.Exponential(base, c.StageTimeout)
	default:
		return retry.Constant(base)
	}
}
