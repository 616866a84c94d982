package chat

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/suPer8Hu/portfolio-chat/internal/clock"
	"github.com/suPer8Hu/portfolio-chat/internal/store/memstore"
)

func newTestHistory(t *testing.T) (*KVHistory, *memstore.Store) {
	t.Helper()
	kv := memstore.New()
	return NewKVHistory(kv, HistoryKey("v"), clock.NewFake(testStart), quietLogger()), kv
}

func TestHistory_LoadEmptyYieldsSeed(t *testing.T) {
	h, _ := newTestHistory(t)

	msgs := h.Load(context.Background())
	if len(msgs) != 1 {
		t.Fatalf("expected seed log, got %d messages", len(msgs))
	}
	if msgs[0].Sender != SenderAssistant || msgs[0].Text != SeedGreeting || msgs[0].ID != 1 {
		t.Fatalf("unexpected seed: %+v", msgs[0])
	}
}

func TestHistory_SaveLoadRoundTrip(t *testing.T) {
	h, _ := newTestHistory(t)
	ctx := context.Background()

	in := []Message{
		{ID: 1, Sender: SenderAssistant, Text: SeedGreeting, Timestamp: testStart},
		{ID: 2, Sender: SenderUser, Text: "what&#39;s new?", Timestamp: testStart.Add(3e9)},
		{ID: 3, Sender: SenderAssistant, Text: `<ul><li>Communication</li></ul>`, Timestamp: testStart.Add(4e9)},
	}
	if err := h.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	assertSameLog(t, in, h.Load(ctx))
}

func TestHistory_WritesVersionedEnvelope(t *testing.T) {
	h, kv := newTestHistory(t)
	ctx := context.Background()

	if err := h.Save(ctx, seedLog(testStart)); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := kv.Get(ctx, HistoryKey("v"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var env struct {
		Version  int               `json:"version"`
		Messages []json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Version != HistoryVersion || len(env.Messages) != 1 {
		t.Fatalf("unexpected envelope: %s", raw)
	}
	if !strings.Contains(string(env.Messages[0]), `"sender":"assistant"`) {
		t.Fatalf("unexpected message layout: %s", env.Messages[0])
	}
}

func TestHistory_ClearThenLoadYieldsSeed(t *testing.T) {
	h, _ := newTestHistory(t)
	ctx := context.Background()

	_ = h.Save(ctx, []Message{
		{ID: 1, Sender: SenderAssistant, Text: SeedGreeting, Timestamp: testStart},
		{ID: 2, Sender: SenderUser, Text: "hi", Timestamp: testStart},
	})
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	msgs := h.Load(ctx)
	if len(msgs) != 1 || msgs[0].Text != SeedGreeting {
		t.Fatalf("expected seed after clear, got %+v", msgs)
	}
}

func TestHistory_CorruptDataYieldsSeed(t *testing.T) {
	cases := map[string]string{
		"garbage":        "not json at all",
		"truncated":      `{"version":1,"messages":[{"id":1,`,
		"future version": `{"version":99,"messages":[{"id":1,"sender":"assistant","text":"x","timestamp":"2024-03-01T12:00:00Z"}]}`,
		"bad sender":     `{"version":1,"messages":[{"id":1,"sender":"robot","text":"x","timestamp":"2024-03-01T12:00:00Z"}]}`,
		"empty log":      `{"version":1,"messages":[]}`,
		"blank":          "   ",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			h, kv := newTestHistory(t)
			ctx := context.Background()
			_ = kv.Set(ctx, HistoryKey("v"), raw)

			msgs := h.Load(ctx)
			if len(msgs) != 1 || msgs[0].Text != SeedGreeting {
				t.Fatalf("expected seed, got %+v", msgs)
			}
		})
	}
}

func TestHistory_LoadsLegacyBrowserLayout(t *testing.T) {
	h, kv := newTestHistory(t)
	ctx := context.Background()

	legacy := `[
		{"id":1,"text":"Hi! I'm Viola's virtual assistant.","isAi":true,"timestamp":"10:15:02 AM"},
		{"id":2,"text":"skills?","isAi":false,"timestamp":"10:15:09 AM"}
	]`
	_ = kv.Set(ctx, HistoryKey("v"), legacy)

	msgs := h.Load(ctx)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sender != SenderAssistant || msgs[1].Sender != SenderUser {
		t.Fatalf("unexpected senders: %q %q", msgs[0].Sender, msgs[1].Sender)
	}
	if !msgs[1].Timestamp.Equal(testStart) {
		t.Fatalf("expected unparseable legacy timestamp to become load time, got %v", msgs[1].Timestamp)
	}
}

func TestHistory_RenumbersNonIncreasingIDs(t *testing.T) {
	h, kv := newTestHistory(t)
	ctx := context.Background()

	// The legacy widget derived ids from the log length, so duplicates occur.
	_ = kv.Set(ctx, HistoryKey("v"), `[
		{"id":1,"text":"a","isAi":true,"timestamp":""},
		{"id":2,"text":"b","isAi":false,"timestamp":""},
		{"id":2,"text":"c","isAi":true,"timestamp":""}
	]`)

	msgs := h.Load(ctx)
	for i, m := range msgs {
		if m.ID != i+1 {
			t.Fatalf("message %d has id %d", i, m.ID)
		}
	}
}

func TestHistory_ReadFailureYieldsSeed(t *testing.T) {
	kv := newFlakyKV()
	kv.failReads = true
	h := NewKVHistory(kv, HistoryKey("v"), clock.NewFake(testStart), quietLogger())

	msgs := h.Load(context.Background())
	if len(msgs) != 1 || msgs[0].Text != SeedGreeting {
		t.Fatalf("expected seed, got %+v", msgs)
	}
}
