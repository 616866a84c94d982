package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/suPer8Hu/portfolio-chat/internal/clock"
	"github.com/suPer8Hu/portfolio-chat/internal/responder"
	"github.com/suPer8Hu/portfolio-chat/internal/store/memstore"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := NewRepo(db).AutoMigrate(); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, clk *clock.Fake) *Service {
	t.Helper()
	repo := NewRepo(openTestDB(t))
	svc := NewService(repo, responder.NewMatcher(responder.DefaultRules(), responder.Fallback), ServiceConfig{
		ReplyDelay: DefaultReplyDelay,
		IdleTTL:    10 * time.Minute,
	}, nil, clk, quietLogger())
	t.Cleanup(svc.Shutdown)
	return svc
}

func TestService_StartSubmitPersistsToSQL(t *testing.T) {
	clk := clock.NewFake(testStart)
	svc := newTestService(t, clk)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(sess.ID()) != 26 {
		t.Fatalf("expected ULID visitor id, got %q", sess.ID())
	}

	if err := sess.Submit("Tell me about her skills"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	clk.Advance(DefaultReplyDelay)

	msgs, err := svc.Transcript(ctx, sess.ID())
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 stored messages, got %d", len(msgs))
	}
	if msgs[1].Sender != SenderUser || msgs[1].Text != "Tell me about her skills" {
		t.Fatalf("unexpected user msg: sender=%q text=%q", msgs[1].Sender, msgs[1].Text)
	}
	if msgs[2].Sender != SenderAssistant || !strings.Contains(msgs[2].Text, "Communication") {
		t.Fatalf("unexpected assistant msg: sender=%q text=%q", msgs[2].Sender, msgs[2].Text)
	}
}

func TestService_ResumeReturnsLiveSession(t *testing.T) {
	clk := clock.NewFake(testStart)
	svc := newTestService(t, clk)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	again, err := svc.Resume(ctx, sess.ID())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if again != sess {
		t.Fatalf("expected the live session to be returned")
	}
}

func TestService_ResumeAfterSweepReloadsHistory(t *testing.T) {
	clk := clock.NewFake(testStart)
	svc := newTestService(t, clk)
	ctx := context.Background()

	sess, _ := svc.Start(ctx)
	_ = sess.Submit("contact")
	clk.Advance(DefaultReplyDelay)
	id := sess.ID()

	clk.Advance(11 * time.Minute)
	if n := svc.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
	if _, err := svc.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected swept session to be gone, got %v", err)
	}
	if err := sess.Open(); !errors.Is(err, ErrSessionDisposed) {
		t.Fatalf("expected swept session to be disposed, got %v", err)
	}

	resumed, err := svc.Resume(ctx, id)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := len(resumed.Snapshot().Messages); got != 3 {
		t.Fatalf("expected 3 messages after reload, got %d", got)
	}
}

func TestService_SweepKeepsActiveSessions(t *testing.T) {
	clk := clock.NewFake(testStart)
	svc := newTestService(t, clk)
	ctx := context.Background()

	active, _ := svc.Start(ctx)
	idle, _ := svc.Start(ctx)

	clk.Advance(8 * time.Minute)
	active.Touch()
	clk.Advance(3 * time.Minute)

	if n := svc.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
	if _, err := svc.Get(active.ID()); err != nil {
		t.Fatalf("active session swept: %v", err)
	}
	if _, err := svc.Get(idle.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("idle session kept: %v", err)
	}
}

func TestService_ResumeRejectsMalformedID(t *testing.T) {
	svc := newTestService(t, clock.NewFake(testStart))
	if _, err := svc.Resume(context.Background(), "../../etc/passwd"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if svc.Len() != 0 {
		t.Fatalf("expected no session to be mounted")
	}
}

func TestService_TranscriptMissing(t *testing.T) {
	svc := newTestService(t, clock.NewFake(testStart))
	if _, err := svc.Transcript(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestService_Visitors(t *testing.T) {
	clk := clock.NewFake(testStart)
	svc := newTestService(t, clk)
	ctx := context.Background()

	a, _ := svc.Start(ctx)
	b, _ := svc.Start(ctx)
	_, _ = svc.Start(ctx) // never mutated, so never stored
	_ = a.Submit("hi")
	_ = b.Submit("hi")

	ids, err := svc.Visitors(ctx, 10)
	if err != nil {
		t.Fatalf("visitors: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 visitors, got %v", ids)
	}
}

func TestService_VisitorsUnsupported(t *testing.T) {
	svc := NewService(kvOnly{memstore.New()}, responder.NewMatcher(nil, "x"), ServiceConfig{}, nil, clock.NewFake(testStart), quietLogger())
	if _, err := svc.Visitors(context.Background(), 10); !errors.Is(err, ErrListUnsupported) {
		t.Fatalf("expected ErrListUnsupported, got %v", err)
	}
}

// kvOnly hides memstore's ListKeys.
type kvOnly struct{ s *memstore.Store }

func (k kvOnly) Get(ctx context.Context, key string) (string, error) { return k.s.Get(ctx, key) }
func (k kvOnly) Set(ctx context.Context, key, v string) error        { return k.s.Set(ctx, key, v) }
func (k kvOnly) Delete(ctx context.Context, key string) error        { return k.s.Delete(ctx, key) }

func TestService_ShutdownDisposesAll(t *testing.T) {
	clk := clock.NewFake(testStart)
	svc := newTestService(t, clk)
	ctx := context.Background()

	a, _ := svc.Start(ctx)
	_ = a.Submit("skills")
	svc.Shutdown()

	if clk.Pending() != 0 {
		t.Fatalf("expected no pending timers after shutdown, got %d", clk.Pending())
	}
	if svc.Len() != 0 {
		t.Fatalf("expected no live sessions")
	}
}
