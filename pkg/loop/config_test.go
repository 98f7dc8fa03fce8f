package loop

import (
	"testing"
	"time"
)

func TestConfig_Backoff(t *testing.T) {
	tests := []struct {
		shape BackoffShape
		want  []time.Duration
	}{
		{shape: "", want: []time.Duration{10, 10, 10}},
		{shape: BackoffConstant, want: []time.Duration{10, 10, 10}},
		{shape: BackoffLinear, want: []time.Duration{10, 20, 30}},
		{shape: BackoffExponential, want: []time.Duration{10, 20, 25}},
	}

	for _, tc := range tests {
		t.Run(string(tc.shape), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.BackoffShape = tc.shape
			cfg.StageTimeout = 25 * time.Millisecond
			fn := cfg.backoff(10 * time.Millisecond)
			for i, w := range tc.want {
				if got := fn(i + 1); got != w*time.Millisecond {
					t.Errorf("attempt %d: got %v, want %v", i+1, got, w*time.Millisecond)
				}
			}
		})
	}
}

func TestConfig_ValidateBackoffShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackoffShape = "fibonacci"
	if errs := cfg.Validate(); len(errs) != 1 {
		t.Errorf("Validate: got %v, want one error", errs)
	}
}
