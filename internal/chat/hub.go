package chat

import (
	"context"
	"sync"
)

// Hub fans events out to per-visitor subscribers. A subscriber that falls
// behind loses events; the next one carries a full snapshot anyway.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[string]map[chan Event]struct{}), buffer: buffer}
}

// Subscribe returns a channel of the visitor's events and a cancel func that
// must be called to release it.
func (h *Hub) Subscribe(visitorID string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.subs[visitorID] == nil {
		h.subs[visitorID] = make(map[chan Event]struct{})
	}
	h.subs[visitorID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[visitorID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, visitorID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (h *Hub) Publish(ctx context.Context, ev Event) {
	_ = ctx
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.VisitorID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *Hub) Subscribers(visitorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[visitorID])
}
