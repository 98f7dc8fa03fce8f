package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestRun_SucceedsAfterFailures(t *testing.T) {
	for k := 0; k < 4; k++ {
		calls := 0
		out := Run(context.Background(), Policy{MaxAttempts: 5}, func(ctx context.Context) (int, error) {
			calls++
			if calls <= k {
				return 0, errBoom
			}
			return 42, nil
		})

		if !out.Ok() {
			t.Fatalf("k=%d: unexpected failure %v", k, out.Err)
		}
		if out.Value != 42 {
			t.Errorf("k=%d: Value got %d, want 42", k, out.Value)
		}
		if calls != k+1 || out.Attempts != k+1 {
			t.Errorf("k=%d: calls=%d attempts=%d, want %d", k, calls, out.Attempts, k+1)
		}
	}
}

func TestRun_AlwaysFailing(t *testing.T) {
	for _, max := range []int{1, 2, 3, 7} {
		calls := 0
		out := Run(context.Background(), Policy{MaxAttempts: max, Name: "capture"}, func(ctx context.Context) (string, error) {
			calls++
			return "", errBoom
		})

		if out.Ok() {
			t.Fatalf("max=%d: expected failure", max)
		}
		if calls != max {
			t.Errorf("max=%d: op called %d times", max, calls)
		}
		var exhausted *ExhaustedError
		if !errors.As(out.Err, &exhausted) {
			t.Fatalf("max=%d: got %T, want *ExhaustedError", max, out.Err)
		}
		if exhausted.Attempts != max || out.Attempts != max {
			t.Errorf("max=%d: Attempts got %d/%d", max, exhausted.Attempts, out.Attempts)
		}
		if !errors.Is(out.Err, errBoom) {
			t.Errorf("max=%d: last error not wrapped: %v", max, out.Err)
		}
		if out.Value != "" {
			t.Errorf("max=%d: Value should be zero, got %q", max, out.Value)
		}
	}
}

func TestRun_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	out := Run(context.Background(), Policy{}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errBoom
	})
	if calls != 1 || out.Attempts != 1 {
		t.Errorf("calls=%d attempts=%d, want 1", calls, out.Attempts)
	}
}

func TestRun_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	out := Run(context.Background(), Policy{MaxAttempts: 3, Backoff: Constant(time.Hour)}, func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(errBoom)
	})

	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(out.Err, &exhausted) {
		t.Fatalf("got %T, want *ExhaustedError", out.Err)
	}
	if !exhausted.Permanent {
		t.Error("Permanent flag not set")
	}
	if !errors.Is(out.Err, errBoom) {
		t.Errorf("expected errBoom, got %v", out.Err)
	}
}

func TestRun_BackoffBetweenAttempts(t *testing.T) {
	var waits []time.Time
	start := time.Now()
	Run(context.Background(), Policy{MaxAttempts: 3, Backoff: Constant(20 * time.Millisecond)}, func(ctx context.Context) (int, error) {
		waits = append(waits, time.Now())
		return 0, errBoom
	})

	if len(waits) != 3 {
		t.Fatalf("attempts: got %d, want 3", len(waits))
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected at least two 20ms waits, elapsed %v", elapsed)
	}
}

func TestRun_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	out := Run(ctx, Policy{MaxAttempts: 5, Backoff: Constant(time.Hour)}, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errBoom
	})

	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	if !errors.Is(out.Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", out.Err)
	}
}

func TestBackoffPolicies(t *testing.T) {
	tests := []struct {
		name string
		fn   Backoff
		want []time.Duration
	}{
		{name: "constant", fn: Constant(5 * time.Millisecond), want: []time.Duration{5, 5, 5}},
		{name: "linear", fn: Linear(5 * time.Millisecond), want: []time.Duration{5, 10, 15}},
		{name: "exponential", fn: Exponential(5*time.Millisecond, 0), want: []time.Duration{5, 10, 20}},
		{name: "exponential capped", fn: Exponential(5*time.Millisecond, 12*time.Millisecond), want: []time.Duration{5, 10, 12}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for i, w := range tc.want {
				got := tc.fn(i + 1)
				if got != w*time.Millisecond {
					t.Errorf("attempt %d: got %v, want %v", i+1, got, w*time.Millisecond)
				}
			}
		})
	}
}
