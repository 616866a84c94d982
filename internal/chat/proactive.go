package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/suPer8Hu/portfolio-chat/internal/clock"
)

type ProactivePhase string

const (
	PhaseIdle  ProactivePhase = "idle"
	PhaseArmed ProactivePhase = "armed"
	PhaseShown ProactivePhase = "shown"
)

const (
	DefaultProactiveIdle = 30 * time.Second
	DefaultProactiveHide = 5 * time.Second

	DefaultProactivePrompt = "Want to learn about Viola's expertise?"
)

// DefaultSectionPrompts maps a page section id to its proactive prompt.
var DefaultSectionPrompts = map[string]string{
	"about":      "Want to know more about Viola's story? Ask me anything!",
	"experience": "Curious about Viola's four years in sales? Ask me about her experience!",
	"education":  "Interested in Viola's background? I can tell you about her essay award.",
	"skills":     "Wondering what Viola is great at? Ask me about her skills!",
	"gallery":    "Like the photos? Ask me about the events Viola has attended!",
	"contact":    "Ready to reach out? I can share Viola's contact details.",
}

type ProactiveConfig struct {
	IdleDelay time.Duration
	HideDelay time.Duration
	Sections  map[string]string
	Default   string
}

func (c ProactiveConfig) withDefaults() ProactiveConfig {
	if c.IdleDelay <= 0 {
		c.IdleDelay = DefaultProactiveIdle
	}
	if c.HideDelay <= 0 {
		c.HideDelay = DefaultProactiveHide
	}
	if c.Sections == nil {
		c.Sections = DefaultSectionPrompts
	}
	if c.Default == "" {
		c.Default = DefaultProactivePrompt
	}
	return c
}

type ProactiveState struct {
	Phase          ProactivePhase `json:"phase"`
	Shown          bool           `json:"shown"`
	Message        string         `json:"message,omitempty"`
	Section        string         `json:"section,omitempty"`
	LastActivityAt time.Time      `json:"last_activity_at"`
}

// ProactiveTrigger shows an unsolicited prompt after the widget has sat closed
// for IdleDelay, and hides it again after HideDelay.
//
// The trigger shares its owner's lock: exported methods must be called with
// the lock held, and timer callbacks acquire it themselves. canShow is called
// with the lock held.
type ProactiveTrigger struct {
	lock     sync.Locker
	clock    clock.Clock
	cfg      ProactiveConfig
	canShow  func() bool
	onChange func(ProactiveState)

	phase        ProactivePhase
	message      string
	section      string
	lastActivity time.Time

	idleTimer clock.Timer
	hideTimer clock.Timer
	gen       uint64
	stopped   bool
}

func NewProactiveTrigger(lock sync.Locker, clk clock.Clock, cfg ProactiveConfig, canShow func() bool, onChange func(ProactiveState)) *ProactiveTrigger {
	return &ProactiveTrigger{
		lock:         lock,
		clock:        clk,
		cfg:          cfg.withDefaults(),
		canShow:      canShow,
		onChange:     onChange,
		phase:        PhaseIdle,
		lastActivity: clk.Now(),
	}
}

// Arm (re)starts the idle countdown from now.
func (p *ProactiveTrigger) Arm() {
	if p.stopped {
		return
	}
	p.cancelTimers()
	p.phase = PhaseArmed
	p.message = ""
	p.lastActivity = p.clock.Now()
	gen := p.gen
	p.idleTimer = p.clock.AfterFunc(p.cfg.IdleDelay, func() { p.onIdle(gen) })
}

// Touch records visitor activity. While armed, the idle countdown restarts.
func (p *ProactiveTrigger) Touch() {
	p.lastActivity = p.clock.Now()
	if p.phase == PhaseArmed {
		p.Arm()
	}
}

// Suppress cancels pending timers and hides a visible prompt. It reports
// whether a prompt was visible.
func (p *ProactiveTrigger) Suppress() bool {
	wasShown := p.phase == PhaseShown
	p.cancelTimers()
	p.phase = PhaseIdle
	p.message = ""
	return wasShown
}

// Stop cancels all timers for good; no callback runs afterwards.
func (p *ProactiveTrigger) Stop() {
	p.Suppress()
	p.stopped = true
}

func (p *ProactiveTrigger) SetSection(section string) {
	p.section = normalizeSection(section)
}

func (p *ProactiveTrigger) State() ProactiveState {
	return ProactiveState{
		Phase:          p.phase,
		Shown:          p.phase == PhaseShown,
		Message:        p.message,
		Section:        p.section,
		LastActivityAt: p.lastActivity,
	}
}

// Prompt returns the prompt for the current section.
func (p *ProactiveTrigger) Prompt() string {
	if msg, ok := p.cfg.Sections[p.section]; ok {
		return msg
	}
	return p.cfg.Default
}

func (p *ProactiveTrigger) cancelTimers() {
	p.gen++
	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}
	if p.hideTimer != nil {
		p.hideTimer.Stop()
		p.hideTimer = nil
	}
}

func (p *ProactiveTrigger) onIdle(gen uint64) {
	p.lock.Lock()
	if p.stopped || gen != p.gen {
		p.lock.Unlock()
		return
	}
	p.idleTimer = nil
	if !p.canShow() {
		p.phase = PhaseIdle
		p.lock.Unlock()
		return
	}
	p.phase = PhaseShown
	p.message = p.Prompt()
	p.hideTimer = p.clock.AfterFunc(p.cfg.HideDelay, func() { p.onHide(gen) })
	st := p.State()
	p.lock.Unlock()

	if p.onChange != nil {
		p.onChange(st)
	}
}

func (p *ProactiveTrigger) onHide(gen uint64) {
	p.lock.Lock()
	if p.stopped || gen != p.gen {
		p.lock.Unlock()
		return
	}
	p.hideTimer = nil
	p.phase = PhaseIdle
	p.message = ""
	st := p.State()
	p.lock.Unlock()

	if p.onChange != nil {
		p.onChange(st)
	}
}

// normalizeSection accepts "#experience", "/#experience" or "experience".
func normalizeSection(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "#"); i >= 0 {
		s = s[i+1:]
	}
	return strings.ToLower(s)
}
