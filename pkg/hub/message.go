// Package hub fans dashboard events out to websocket subscribers.
package hub

import (
	"encoding/json"
	"time"
)

// Topics.
const (
	TopicStatus   = "status"
	TopicState    = "state"
	TopicRecord   = "record"
	TopicSpectrum = "spectrum"
)

// Message is one pre-encoded event frame.
type Message struct {
	Topic string
	Data  []byte
}

// Event is the JSON envelope every websocket frame carries.
type Event struct {
	Topic string    `json:"topic"`
	Time  time.Time `json:"time"`
	Data  any       `json:"data"`
}

// Encode wraps v in an Event and encodes it.
func Encode(topic string, v any) (Message, error) {
	data, err := json.Marshal(Event{Topic: topic, Time: time.Now().UTC(), Data: v})
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: topic, Data: data}, nil
}
