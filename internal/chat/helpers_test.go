package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/suPer8Hu/portfolio-chat/internal/clock"
	"github.com/suPer8Hu/portfolio-chat/internal/responder"
	"github.com/suPer8Hu/portfolio-chat/internal/store/memstore"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingResponder struct {
	mu      sync.Mutex
	queries []string
	inner   responder.Responder
}

func newRecordingResponder() *recordingResponder {
	return &recordingResponder{inner: responder.NewMatcher(responder.DefaultRules(), responder.Fallback)}
}

func (r *recordingResponder) Respond(q string) string {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.mu.Unlock()
	return r.inner.Respond(q)
}

func (r *recordingResponder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

// flakyKV wraps memstore and fails writes while failWrites is set.
type flakyKV struct {
	*memstore.Store
	mu         sync.Mutex
	failReads  bool
	failWrites bool
	writes     int
}

func newFlakyKV() *flakyKV {
	return &flakyKV{Store: memstore.New()}
}

var errStorageDown = errors.New("quota exceeded")

func (f *flakyKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failReads
	f.mu.Unlock()
	if fail {
		return "", errStorageDown
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.writes++
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return errStorageDown
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyKV) setFailWrites(v bool) {
	f.mu.Lock()
	f.failWrites = v
	f.mu.Unlock()
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingSink) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	clk     *clock.Fake
	kv      *flakyKV
	resp    *recordingResponder
	sink    *recordingSink
	history *KVHistory
	sess    *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clk:  clock.NewFake(testStart),
		kv:   newFlakyKV(),
		resp: newRecordingResponder(),
		sink: &recordingSink{},
	}
	f.history = NewKVHistory(f.kv, HistoryKey("visitor-1"), f.clk, quietLogger())
	f.mount(t)
	t.Cleanup(func() { f.sess.Dispose() })
	return f
}

func (f *fixture) mount(t *testing.T) {
	t.Helper()
	f.sess = NewSession(context.Background(), f.history, f.resp, SessionOptions{
		VisitorID:  "visitor-1",
		ReplyDelay: DefaultReplyDelay,
		Clock:      f.clk,
		Logger:     quietLogger(),
		Sink:       f.sink,
	})
}

// stored reads the persisted log straight from the backend.
func (f *fixture) stored(t *testing.T) []Message {
	t.Helper()
	raw, err := f.kv.Store.Get(context.Background(), HistoryKey("visitor-1"))
	if err != nil {
		t.Fatalf("read stored history: %v", err)
	}
	msgs, err := decodeHistory([]byte(raw), testStart)
	if err != nil {
		t.Fatalf("decode stored history: %v", err)
	}
	return msgs
}

func assertSameLog(t *testing.T, want, got []Message) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("log length: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.ID != g.ID || w.Sender != g.Sender || w.Text != g.Text || !w.Timestamp.Equal(g.Timestamp) {
			t.Fatalf("message %d differs:\nwant %+v\ngot  %+v", i, w, g)
		}
	}
}
