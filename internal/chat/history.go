package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/suPer8Hu/portfolio-chat/internal/clock"
	"github.com/suPer8Hu/portfolio-chat/internal/store"
)

// HistoryVersion is written into every saved envelope.
const HistoryVersion = 1

const historyKeyPrefix = "chatHistory:"

// HistoryKey is the storage key of a visitor's chat log.
func HistoryKey(visitorID string) string {
	return historyKeyPrefix + visitorID
}

// HistoryStore persists one ordered chat log.
type HistoryStore interface {
	// Load never fails: missing or unreadable data yields the seed log.
	Load(ctx context.Context) []Message
	Save(ctx context.Context, messages []Message) error
	Clear(ctx context.Context) error
}

type historyEnvelope struct {
	Version  int       `json:"version"`
	Messages []Message `json:"messages"`
}

// legacyMessage is the layout the browser widget wrote before versioning.
type legacyMessage struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	IsAI      bool   `json:"isAi"`
	Timestamp string `json:"timestamp"`
}

// KVHistory is a HistoryStore over a single key of a store.KV.
type KVHistory struct {
	kv    store.KV
	key   string
	clock clock.Clock
	log   *slog.Logger
}

func NewKVHistory(kv store.KV, key string, clk clock.Clock, logger *slog.Logger) *KVHistory {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KVHistory{kv: kv, key: key, clock: clk, log: logger}
}

func (h *KVHistory) Load(ctx context.Context) []Message {
	raw, err := h.kv.Get(ctx, h.key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Warn("chat history read failed, starting fresh", "key", h.key, "error", err)
		}
		return seedLog(h.clock.Now())
	}

	msgs, err := decodeHistory([]byte(raw), h.clock.Now())
	if err != nil {
		h.log.Warn("chat history unreadable, starting fresh", "key", h.key, "error", err)
		return seedLog(h.clock.Now())
	}
	if len(msgs) == 0 {
		return seedLog(h.clock.Now())
	}
	return msgs
}

func (h *KVHistory) Save(ctx context.Context, messages []Message) error {
	b, err := json.Marshal(historyEnvelope{Version: HistoryVersion, Messages: messages})
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}
	if err := h.kv.Set(ctx, h.key, string(b)); err != nil {
		return fmt.Errorf("write chat history: %w", err)
	}
	return nil
}

func (h *KVHistory) Clear(ctx context.Context) error {
	if err := h.kv.Delete(ctx, h.key); err != nil {
		return fmt.Errorf("delete chat history: %w", err)
	}
	return nil
}

// decodeHistory accepts the versioned envelope and the legacy bare array.
func decodeHistory(b []byte, now time.Time) ([]Message, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, errors.New("empty payload")
	}

	var msgs []Message
	switch b[0] {
	case '{':
		var env historyEnvelope
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, err
		}
		if env.Version > HistoryVersion {
			return nil, fmt.Errorf("unsupported history version %d", env.Version)
		}
		msgs = env.Messages
	case '[':
		var legacy []legacyMessage
		if err := json.Unmarshal(b, &legacy); err != nil {
			return nil, err
		}
		msgs = make([]Message, 0, len(legacy))
		for _, m := range legacy {
			msgs = append(msgs, fromLegacy(m, now))
		}
	default:
		return nil, errors.New("unrecognized payload")
	}

	return normalizeLog(msgs, now)
}

func fromLegacy(m legacyMessage, now time.Time) Message {
	sender := SenderUser
	if m.IsAI {
		sender = SenderAssistant
	}
	// Legacy timestamps were locale time strings with no date.
	ts, err := time.Parse(time.RFC3339, m.Timestamp)
	if err != nil {
		ts = now
	}
	return Message{ID: m.ID, Sender: sender, Text: m.Text, Timestamp: ts}
}

// normalizeLog rejects unknown senders and renumbers ids when they are not
// strictly increasing.
func normalizeLog(msgs []Message, now time.Time) ([]Message, error) {
	renumber := false
	prev := 0
	for i := range msgs {
		switch msgs[i].Sender {
		case SenderUser, SenderAssistant:
		default:
			return nil, fmt.Errorf("message %d: unknown sender %q", i, msgs[i].Sender)
		}
		if msgs[i].Timestamp.IsZero() {
			msgs[i].Timestamp = now
		}
		if msgs[i].ID <= prev {
			renumber = true
		}
		prev = msgs[i].ID
	}
	if renumber {
		for i := range msgs {
			msgs[i].ID = i + 1
		}
	}
	return msgs, nil
}
