package chat

import (
	"context"
	"time"
)

type EventKind string

const (
	EventMessageAppended EventKind = "message.appended"
	EventStateChanged    EventKind = "state.changed"
	EventProactiveShown  EventKind = "proactive.shown"
	EventProactiveHidden EventKind = "proactive.hidden"
	EventHistoryCleared  EventKind = "history.cleared"
)

type Event struct {
	Kind      EventKind `json:"kind"`
	VisitorID string    `json:"visitor_id"`
	Message   *Message  `json:"message,omitempty"`
	Snapshot  Snapshot  `json:"snapshot"`
	At        time.Time `json:"at"`
}

// EventSink receives session events. Publish must not block for long: it is
// called from request handlers and timer callbacks.
type EventSink interface {
	Publish(ctx context.Context, ev Event)
}

type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ctx, ev)
		}
	}
}

type nopSink struct{}

func (nopSink) Publish(context.Context, Event) {}
