package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func runHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func receive(t *testing.T, s *Subscriber) (Message, bool) {
	t.Helper()
	select {
	case m, ok := <-s.Messages():
		return m, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}, false
	}
}

func TestHub_BroadcastReachesEverySubscriber(t *testing.T) {
	h, _ := runHub(t)
	a, b := h.Subscribe(), h.Subscribe()
	if got := h.ClientCount(); got != 2 {
		t.Fatalf("ClientCount: got %d, want 2", got)
	}

	if err := h.Publish(TopicStatus, map[string]string{"message": "ok"}); err != nil {
		t.Fatal(err)
	}
	for _, s := range []*Subscriber{a, b} {
		m, ok := receive(t, s)
		if !ok {
			t.Fatal("subscriber closed")
		}
		var ev struct {
			Topic string            `json:"topic"`
			Data  map[string]string `json:"data"`
		}
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Topic != TopicStatus || ev.Data["message"] != "ok" {
			t.Errorf("event: got %+v", ev)
		}
	}
}

func TestHub_SubscribeIsCountedOnReturn(t *testing.T) {
	h, _ := runHub(t)
	for want := 1; want <= 20; want++ {
		h.Subscribe()
		if got := h.ClientCount(); got != want {
			t.Fatalf("ClientCount after %d subscribes: got %d", want, got)
		}
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h, _ := runHub(t)
	s := h.Subscribe()
	h.Unsubscribe(s)
	if _, ok := receive(t, s); ok {
		t.Error("queue still open after Unsubscribe")
	}
	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount: got %d, want 0", got)
	}
	// A second unsubscribe must not close the channel twice.
	h.Unsubscribe(s)
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h, _ := runHub(t)
	slow := h.Subscribe()
	for i := 0; i < sendBuffer+1; i++ {
		h.Broadcast(Message{Topic: TopicRecord, Data: []byte("{}")})
	}

	deadline := time.Now().Add(time.Second)
	for h.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if h.Dropped() != 1 {
		t.Fatalf("Dropped: got %d, want 1", h.Dropped())
	}
	n := 0
	for range slow.Messages() {
		n++
	}
	if n != sendBuffer {
		t.Errorf("queued before drop: got %d, want %d", n, sendBuffer)
	}
}

func TestHub_StopClosesSubscribers(t *testing.T) {
	h, cancel := runHub(t)
	s := h.Subscribe()
	cancel()
	if _, ok := receive(t, s); ok {
		t.Error("queue still open after stop")
	}
	<-h.done
	if h.Subscribe() != nil {
		t.Error("Subscribe succeeded on a stopped hub")
	}
}
