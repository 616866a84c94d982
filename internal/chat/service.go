package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/suPer8Hu/portfolio-chat/internal/clock"
	"github.com/suPer8Hu/portfolio-chat/internal/common"
	"github.com/suPer8Hu/portfolio-chat/internal/responder"
	"github.com/suPer8Hu/portfolio-chat/internal/store"
)

var (
	ErrSessionNotFound = errors.New("chat: session not found")
	ErrListUnsupported = errors.New("chat: storage backend cannot list histories")
)

const DefaultSessionIdleTTL = 30 * time.Minute

type ServiceConfig struct {
	ReplyDelay time.Duration
	Proactive  ProactiveConfig
	// IdleTTL is how long a live session survives without API calls before
	// the sweeper disposes it. Its history stays in storage.
	IdleTTL time.Duration
}

// Service keeps one live Session per visitor.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*Session

	kv        store.KV
	responder responder.Responder
	cfg       ServiceConfig
	sink      EventSink
	clock     clock.Clock
	log       *slog.Logger
}

func NewService(kv store.KV, resp responder.Responder, cfg ServiceConfig, sink EventSink, clk clock.Clock, logger *slog.Logger) *Service {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultSessionIdleTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions:  make(map[string]*Session),
		kv:        kv,
		responder: resp,
		cfg:       cfg,
		sink:      sink,
		clock:     clk,
		log:       logger,
	}
}

// Start mounts a session for a new visitor.
func (s *Service) Start(ctx context.Context) (*Session, error) {
	id, err := common.NewULID()
	if err != nil {
		return nil, fmt.Errorf("new visitor id: %w", err)
	}
	return s.mount(ctx, id), nil
}

// Resume returns the visitor's live session, or mounts it again from stored
// history the way a page reload does.
func (s *Service) Resume(ctx context.Context, visitorID string) (*Session, error) {
	if !common.IsULID(visitorID) {
		return nil, ErrSessionNotFound
	}
	if sess, err := s.Get(visitorID); err == nil {
		sess.Touch()
		return sess, nil
	}
	return s.mount(ctx, visitorID), nil
}

func (s *Service) Get(visitorID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[visitorID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) mount(ctx context.Context, visitorID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[visitorID]; ok {
		return sess
	}
	hist := NewKVHistory(s.kv, HistoryKey(visitorID), s.clock, s.log)
	sess := NewSession(ctx, hist, s.responder, SessionOptions{
		VisitorID:  visitorID,
		ReplyDelay: s.cfg.ReplyDelay,
		Proactive:  s.cfg.Proactive,
		Clock:      s.clock,
		Logger:     s.log,
		Sink:       s.sink,
	})
	s.sessions[visitorID] = sess
	s.log.Debug("chat session mounted", "visitor_id", visitorID, "messages", len(sess.Snapshot().Messages))
	return sess
}

// Transcript reads a visitor's stored history without mounting a session.
func (s *Service) Transcript(ctx context.Context, visitorID string) ([]Message, error) {
	raw, err := s.kv.Get(ctx, HistoryKey(visitorID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return decodeHistory([]byte(raw), s.clock.Now())
}

// Visitors lists visitor ids with stored history.
func (s *Service) Visitors(ctx context.Context, limit int) ([]string, error) {
	l, ok := s.kv.(store.Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	keys, err := l.ListKeys(ctx, historyKeyPrefix, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len(historyKeyPrefix):])
	}
	return ids, nil
}

// Sweep disposes sessions idle for longer than IdleTTL and returns how many
// were removed.
func (s *Service) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActive()) > s.cfg.IdleTTL {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Dispose()
	}
	return len(expired)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		s.log.Info("chat session sweeper started", "interval", interval, "ttl", s.cfg.IdleTTL)
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.log.Info("chat session sweeper disposed idle sessions", "count", n)
				}
			case <-ctx.Done():
				s.log.Info("chat session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown disposes every live session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Dispose()
	}
}
