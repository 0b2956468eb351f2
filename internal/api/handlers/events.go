package handlers

import (
	"sync"
	"time"
)

// Event is one server-push notification delivered to websocket subscribers.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	Time    time.Time   `json:"time"`
}

// EventHub fans events out to websocket subscribers. Publishing never
// blocks: a subscriber that cannot keep up drops events instead of stalling
// the publisher.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		subscribers: make(map[chan Event]struct{}),
	}
}

func (h *EventHub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *EventHub) Publish(eventType string, payload interface{}) {
	event := Event{
		Type:    eventType,
		Payload: payload,
		Time:    time.Now().UTC(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
