// Package transcript appends chat events consumed from the queue to one
// NDJSON file per visitor.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/suPer8Hu/portfolio-chat/internal/chat"
	"github.com/suPer8Hu/portfolio-chat/internal/common"
)

// ErrBadEvent marks a message that can never be handled; the worker
// dead-letters it instead of retrying.
var ErrBadEvent = errors.New("transcript: bad event")

type Line struct {
	Kind      chat.EventKind `json:"kind"`
	MessageID int            `json:"message_id,omitempty"`
	Sender    chat.Sender    `json:"sender,omitempty"`
	Text      string         `json:"text,omitempty"`
	At        time.Time      `json:"at"`
}

type Writer struct {
	mu  sync.Mutex
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Path(visitorID string) string {
	return filepath.Join(w.dir, visitorID+".ndjson")
}

// Handle decodes one queued event and appends it when it belongs in a
// transcript. Window state and proactive events are skipped.
func (w *Writer) Handle(body []byte) error {
	var ev chat.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	// visitor ids become file names
	if !common.IsULID(ev.VisitorID) {
		return fmt.Errorf("%w: visitor id %q", ErrBadEvent, ev.VisitorID)
	}

	var line Line
	switch ev.Kind {
	case chat.EventMessageAppended:
		if ev.Message == nil {
			return fmt.Errorf("%w: message event without message", ErrBadEvent)
		}
		line = Line{
			Kind:      ev.Kind,
			MessageID: ev.Message.ID,
			Sender:    ev.Message.Sender,
			Text:      ev.Message.Text,
			At:        ev.Message.Timestamp,
		}
	case chat.EventHistoryCleared:
		line = Line{Kind: ev.Kind, At: ev.At}
	default:
		return nil
	}
	return w.appendLine(ev.VisitorID, line)
}

func (w *Writer) appendLine(visitorID string, line Line) error {
	b, err := json.Marshal(line)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := os.OpenFile(w.Path(visitorID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	return f.Close()
}
