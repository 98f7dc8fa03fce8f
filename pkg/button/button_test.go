package button

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTrigger_CoalescesPresses(t *testing.T) {
	tr := NewTrigger()
	if !tr.Press() {
		t.Fatal("first press should latch")
	}
	if tr.Press() {
		t.Error("second press should coalesce")
	}
	if !tr.IsPressed() {
		t.Error("IsPressed should be true while latched")
	}

	ok, err := tr.WaitForPress(context.Background(), time.Second)
	if !ok || err != nil {
		t.Fatalf("WaitForPress: got (%v, %v)", ok, err)
	}
	ok, err = tr.WaitForPress(context.Background(), 10*time.Millisecond)
	if ok || err != nil {
		t.Errorf("coalesced press delivered twice: (%v, %v)", ok, err)
	}

	presses, coalesced := tr.Stats()
	if presses != 2 || coalesced != 1 {
		t.Errorf("Stats: got (%d, %d), want (2, 1)", presses, coalesced)
	}
}

func TestTrigger_Reset(t *testing.T) {
	tr := NewTrigger()
	tr.Press()
	tr.Reset()
	if tr.IsPressed() {
		t.Error("Reset did not discard pending press")
	}
}

func TestTrigger_Cancel(t *testing.T) {
	tr := NewTrigger()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	ok, err := tr.WaitForPress(ctx, 0)
	if ok || !errors.Is(err, context.Canceled) {
		t.Errorf("WaitForPress: got (%v, %v), want (false, context.Canceled)", ok, err)
	}
}

func TestTrigger_ClosedAfterPending(t *testing.T) {
	tr := NewTrigger()
	tr.Press()
	tr.Close()

	ok, err := tr.WaitForPress(context.Background(), time.Second)
	if !ok || err != nil {
		t.Fatalf("pending press lost on close: (%v, %v)", ok, err)
	}
	_, err = tr.WaitForPress(context.Background(), time.Second)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}

func TestLines(t *testing.T) {
	l := NewLines(strings.NewReader("\n"))
	ok, err := l.WaitForPress(context.Background(), time.Second)
	if !ok || err != nil {
		t.Fatalf("WaitForPress: got (%v, %v)", ok, err)
	}
	_, err = l.WaitForPress(context.Background(), time.Second)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("after EOF: got %v, want ErrClosed", err)
	}
}

func TestScript(t *testing.T) {
	s := NewScript(false, true)
	ctx := context.Background()

	if ok, _ := s.WaitForPress(ctx, 0); ok {
		t.Error("first entry should time out")
	}
	if ok, _ := s.WaitForPress(ctx, 0); !ok {
		t.Error("second entry should press")
	}
	if _, err := s.WaitForPress(ctx, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("exhausted: got %v, want ErrClosed", err)
	}
	if s.Waits() != 3 {
		t.Errorf("Waits: got %d, want 3", s.Waits())
	}

	always := Always()
	for i := 0; i < 5; i++ {
		if ok, err := always.WaitForPress(ctx, 0); !ok || err != nil {
			t.Fatalf("Always: got (%v, %v)", ok, err)
		}
	}
}
