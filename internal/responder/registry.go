package responder

import (
	"fmt"
	"strings"
	"sync"
)

type Factory func() (Responder, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry has both canned rule tables registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NameDefault, func() (Responder, error) { return NewMatcher(DefaultRules(), Fallback), nil })
	r.Register(NameLegacy, func() (Responder, error) { return NewMatcher(LegacyRules(), Fallback), nil })
	return r
}

func (r *Registry) Register(name string, f Factory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(name string) (Responder, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = NameDefault
	}
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown responder: %s", name)
	}
	return f()
}
