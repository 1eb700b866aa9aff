// Package session supplies the identity on whose behalf journal operations
// run, and the bearer tokens that establish it over HTTP.
package session

import (
	"context"
	"sync"
)

// Identity is the signed-in user. The zero value means signed out.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// SignedIn reports whether the identity carries a user.
func (i Identity) SignedIn() bool { return i.UserID != "" }

// Provider yields the current identity and reports changes to it.
//
// Watch returns a channel that receives the current identity immediately and
// every later change. Receivers that fall behind only see the latest value.
// The channel is closed when ctx is done.
type Provider interface {
	Current() (Identity, bool)
	Watch(ctx context.Context) <-chan Identity
}

// Switcher is a Provider that runs hooks synchronously on identity changes.
//
// OnSwitch calls fn with the current identity, then again on every change
// before SetIdentity returns. fn runs under the provider's lock and must not
// call back into it. The returned func unregisters fn.
type Switcher interface {
	Provider
	OnSwitch(fn func(Identity)) (remove func())
}

// State is a mutable Provider. A websocket connection owns one and switches
// it on auth and logout messages.
type State struct {
	mu       sync.Mutex
	current  Identity
	watchers map[chan Identity]struct{}
	hooks    map[uint64]func(Identity)
	nextHook uint64
}

func NewState() *State {
	return &State{
		watchers: make(map[chan Identity]struct{}),
		hooks:    make(map[uint64]func(Identity)),
	}
}

func (s *State) Current() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current.SignedIn()
}

// SetIdentity switches to id. Setting the identity already in place does not
// notify watchers.
func (s *State) SetIdentity(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.current {
		return
	}
	s.current = id
	for _, fn := range s.hooks {
		fn(id)
	}
	for ch := range s.watchers {
		latest(ch, id)
	}
}

func (s *State) OnSwitch(fn func(Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHook++
	key := s.nextHook
	s.hooks[key] = fn
	fn(s.current)
	return func() {
		s.mu.Lock()
		delete(s.hooks, key)
		s.mu.Unlock()
	}
}

// Clear signs out.
func (s *State) Clear() {
	s.SetIdentity(Identity{})
}

func (s *State) Watch(ctx context.Context) <-chan Identity {
	ch := make(chan Identity, 1)

	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	ch <- s.current
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

func latest(ch chan Identity, id Identity) {
	select {
	case <-ch:
	default:
	}
	ch <- id
}

// Static is a Provider whose identity never changes. Request handlers build
// one from the bearer token.
type Static Identity

func (s Static) Current() (Identity, bool) {
	id := Identity(s)
	return id, id.SignedIn()
}

func (s Static) Watch(ctx context.Context) <-chan Identity {
	ch := make(chan Identity, 1)
	ch <- Identity(s)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
