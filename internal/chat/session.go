package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/suPer8Hu/portfolio-chat/internal/clock"
	"github.com/suPer8Hu/portfolio-chat/internal/markup"
	"github.com/suPer8Hu/portfolio-chat/internal/responder"
)

const DefaultReplyDelay = time.Second

// persistTimeout bounds one history write so a slow backend cannot hold the
// session lock indefinitely.
const persistTimeout = 2 * time.Second

var (
	ErrReplyPending    = errors.New("chat: assistant reply still pending")
	ErrSessionDisposed = errors.New("chat: session disposed")
)

type SessionOptions struct {
	VisitorID  string
	ReplyDelay time.Duration
	Proactive  ProactiveConfig
	Clock      clock.Clock
	Logger     *slog.Logger
	Sink       EventSink
}

// Session is one visitor's chat widget: the message log, window state,
// unread counter and proactive prompt. All state is guarded by mu; timer
// callbacks take the same lock, so they observe the same ordering as API
// calls.
type Session struct {
	mu sync.Mutex

	id         string
	clock      clock.Clock
	log        *slog.Logger
	sink       EventSink
	history    HistoryStore
	responder  responder.Responder
	replyDelay time.Duration

	messages    []Message
	isOpen      bool
	isMinimized bool
	unread      int
	status      Status
	suggestions []string
	lastActive  time.Time

	trigger    *ProactiveTrigger
	replyTimer clock.Timer
	replyGen   uint64
	disposed   bool
}

// NewSession mounts a session: the log is loaded from history (or seeded)
// and the proactive trigger is armed.
func NewSession(ctx context.Context, history HistoryStore, resp responder.Responder, opts SessionOptions) *Session {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.ReplyDelay < 0 {
		opts.ReplyDelay = 0
	}

	s := &Session{
		id:          opts.VisitorID,
		clock:       opts.Clock,
		log:         opts.Logger.With("visitor_id", opts.VisitorID),
		sink:        opts.Sink,
		history:     history,
		responder:   resp,
		replyDelay:  opts.ReplyDelay,
		status:      StatusOnline,
		suggestions: clone(defaultSuggestions),
		lastActive:  opts.Clock.Now(),
	}
	s.messages = history.Load(ctx)
	s.trigger = NewProactiveTrigger(&s.mu, s.clock, opts.Proactive, s.canShowProactive, s.onProactiveChange)

	s.mu.Lock()
	s.trigger.Arm()
	s.mu.Unlock()
	return s
}

func (s *Session) ID() string { return s.id }

// Open shows the chat window, clears the unread badge and suppresses any
// proactive prompt before returning.
func (s *Session) Open() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrSessionDisposed
	}
	s.touchLocked()
	s.trigger.Suppress()
	s.isOpen = true
	s.isMinimized = false
	s.unread = 0
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(EventStateChanged, nil, snap)
	return nil
}

// Minimize hides an open window without closing it. Replies that arrive
// while minimized count as unread.
func (s *Session) Minimize() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrSessionDisposed
	}
	s.touchLocked()
	if !s.isOpen || s.isMinimized {
		s.mu.Unlock()
		return nil
	}
	s.isMinimized = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(EventStateChanged, nil, snap)
	return nil
}

// Close closes the window and re-arms the proactive countdown.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrSessionDisposed
	}
	s.touchLocked()
	if !s.isOpen {
		s.mu.Unlock()
		return nil
	}
	s.isOpen = false
	s.isMinimized = false
	s.trigger.Arm()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(EventStateChanged, nil, snap)
	return nil
}

// Submit handles a visitor question. Invalid input appends the validation
// message as an assistant reply and returns nil. Valid input appends the user
// message immediately; the assistant reply follows after the reply delay.
func (s *Session) Submit(raw string) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrSessionDisposed
	}
	s.touchLocked()
	s.trigger.Touch()
	if s.status == StatusLoading {
		s.mu.Unlock()
		return ErrReplyPending
	}

	if text, ok := responder.Validate(raw); !ok {
		msg := s.appendAssistantLocked(text)
		s.persistLocked()
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.publish(EventMessageAppended, &msg, snap)
		return nil
	}

	user := s.appendLocked(SenderUser, markup.Clean(raw))
	s.persistLocked()
	s.status = StatusLoading
	s.suggestions = SuggestionsFor(raw)

	s.replyGen++
	gen := s.replyGen
	query := user.Text
	if s.replyDelay > 0 {
		s.replyTimer = s.clock.AfterFunc(s.replyDelay, func() { s.deliverReply(gen, query) })
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(EventMessageAppended, &user, snap)
	if s.replyDelay == 0 {
		s.deliverReply(gen, query)
	}
	return nil
}

func (s *Session) deliverReply(gen uint64, query string) {
	s.mu.Lock()
	if s.disposed || gen != s.replyGen || s.status != StatusLoading {
		s.mu.Unlock()
		return
	}
	s.replyTimer = nil
	msg := s.appendAssistantLocked(s.responder.Respond(query))
	s.status = StatusOnline
	s.persistLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(EventMessageAppended, &msg, snap)
}

// Clear resets the log to the seed greeting and removes the stored history.
// A reply still pending is dropped.
func (s *Session) Clear() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrSessionDisposed
	}
	s.touchLocked()
	s.cancelReplyLocked()
	s.messages = seedLog(s.clock.Now())
	s.unread = 0
	s.suggestions = clone(defaultSuggestions)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	if err := s.history.Clear(ctx); err != nil {
		s.log.Warn("clear chat history failed", "error", err)
	}
	cancel()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(EventHistoryCleared, nil, snap)
	return nil
}

// SetSection records the page section the visitor is looking at; it picks
// the next proactive prompt.
func (s *Session) SetSection(section string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrSessionDisposed
	}
	s.touchLocked()
	s.trigger.SetSection(section)
	return nil
}

// Touch marks the session as in use without changing chat state.
func (s *Session) Touch() {
	s.mu.Lock()
	s.touchLocked()
	s.mu.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Dispose cancels every pending timer. The session rejects calls afterwards.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.cancelReplyLocked()
	s.trigger.Stop()
	s.disposed = true
}

func (s *Session) canShowProactive() bool {
	return !s.disposed && !s.isOpen && !s.isMinimized
}

func (s *Session) onProactiveChange(st ProactiveState) {
	kind := EventProactiveHidden
	if st.Shown {
		kind = EventProactiveShown
	}
	s.publish(kind, nil, s.Snapshot())
}

func (s *Session) touchLocked() {
	s.lastActive = s.clock.Now()
}

func (s *Session) cancelReplyLocked() {
	s.replyGen++
	if s.replyTimer != nil {
		s.replyTimer.Stop()
		s.replyTimer = nil
	}
	s.status = StatusOnline
}

func (s *Session) appendLocked(sender Sender, text string) Message {
	next := 1
	if n := len(s.messages); n > 0 {
		next = s.messages[n-1].ID + 1
	}
	msg := Message{ID: next, Sender: sender, Text: text, Timestamp: s.clock.Now().UTC()}
	s.messages = append(s.messages, msg)
	return msg
}

func (s *Session) appendAssistantLocked(text string) Message {
	msg := s.appendLocked(SenderAssistant, text)
	if !s.isOpen || s.isMinimized {
		s.unread++
	}
	return msg
}

// persistLocked writes the whole log. Failures are logged; the in-memory log
// stays authoritative and the next mutation writes it again.
func (s *Session) persistLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.history.Save(ctx, s.messages); err != nil {
		s.log.Warn("persist chat history failed", "error", err, "messages", len(s.messages))
	}
}

func (s *Session) snapshotLocked() Snapshot {
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{
		VisitorID:   s.id,
		Messages:    msgs,
		IsOpen:      s.isOpen,
		IsMinimized: s.isMinimized,
		UnreadCount: s.unread,
		Status:      s.status,
		Suggestions: clone(s.suggestions),
		Proactive:   s.trigger.State(),
	}
}

func (s *Session) publish(kind EventKind, msg *Message, snap Snapshot) {
	s.sink.Publish(context.Background(), Event{
		Kind:      kind,
		VisitorID: s.id,
		Message:   msg,
		Snapshot:  snap,
		At:        s.clock.Now().UTC(),
	})
}
