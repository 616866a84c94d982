package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/suPer8Hu/portfolio-chat/internal/chat"
)

type jsonPublisher interface {
	PublishJSON(ctx context.Context, body []byte) error
}

// EventSink forwards chat events to the queue from a single goroutine, so a
// slow broker never stalls a session. Events are dropped when the buffer is
// full.
type EventSink struct {
	pub    jsonPublisher
	events chan chat.Event
	log    *slog.Logger
}

func NewEventSink(pub jsonPublisher, buffer int, logger *slog.Logger) *EventSink {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventSink{pub: pub, events: make(chan chat.Event, buffer), log: logger}
}

func (s *EventSink) Publish(_ context.Context, ev chat.Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Warn("rabbit event buffer full, dropping event", "visitor_id", ev.VisitorID, "kind", ev.Kind)
	}
}

// Run publishes buffered events until ctx is done.
func (s *EventSink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			body, err := json.Marshal(ev)
			if err != nil {
				s.log.Error("marshal chat event", "error", err, "visitor_id", ev.VisitorID)
				continue
			}
			if err := s.pub.PublishJSON(ctx, body); err != nil {
				s.log.Warn("publish chat event failed", "error", err, "visitor_id", ev.VisitorID, "kind", ev.Kind)
			}
		}
	}
}
