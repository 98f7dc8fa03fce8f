package hub

import (
	"context"
	"log/slog"
	"sync"
)

// sendBuffer is the per-client queue length. A client that falls this far
// behind is dropped.
const sendBuffer = 64

// Subscriber is the hub side of one connection.
type Subscriber struct {
	send chan Message
}

// Messages returns the subscriber's queue. It is closed when the hub drops
// the subscriber or stops.
func (s *Subscriber) Messages() <-chan Message {
	return s.send
}

type registration struct {
	sub *Subscriber
	ack chan struct{}
}

// Hub maintains the set of subscribers and broadcasts messages to them.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Subscriber]bool
	broadcast  chan Message
	register   chan registration
	unregister chan *Subscriber
	done       chan struct{}

	mu      sync.RWMutex
	dropped int
}

// New creates a hub.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Subscriber]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan registration),
		unregister: make(chan *Subscriber),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is cancelled, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for s := range h.clients {
				delete(h.clients, s)
				close(s.send)
			}
			h.mu.Unlock()
			return

		case r := <-h.register:
			h.mu.Lock()
			h.clients[r.sub] = true
			count := len(h.clients)
			h.mu.Unlock()
			close(r.ack)
			h.logger.Debug("subscriber connected", "total", count)

		case s := <-h.unregister:
			h.mu.Lock()
			if h.clients[s] {
				delete(h.clients, s)
				close(s.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("subscriber disconnected", "remaining", count)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for s := range h.clients {
				select {
				case s.send <- msg:
				default:
					close(s.send)
					delete(h.clients, s)
					h.dropped++
					h.logger.Warn("dropped slow subscriber")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Subscribe registers a new subscriber and returns once it is counted and
// receives broadcasts. It returns nil once the hub stopped.
func (h *Hub) Subscribe() *Subscriber {
	r := registration{
		sub: &Subscriber{send: make(chan Message, sendBuffer)},
		ack: make(chan struct{}),
	}
	select {
	case h.register <- r:
	case <-h.done:
		return nil
	}
	<-r.ack
	return r.sub
}

// Unsubscribe removes s. It is safe to call after the hub dropped s.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Broadcast queues msg for every subscriber. It never blocks.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping message", "topic", msg.Topic)
	}
}

// Publish encodes v under topic and broadcasts it.
func (h *Hub) Publish(topic string, v any) error {
	msg, err := Encode(topic, v)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many slow subscribers were disconnected.
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
