// Package session owns the per-chat conversation registry. It is the
// only place sessions are created, read or overwritten.
package session

import (
	"context"
	"sort"
	"sync"

	"github.com/kritika-bot/kritika/pkg/gemini"
)

// Chat is one conversation's multi-turn exchange handle.
// *gemini.Session implements it; tests substitute fakes.
type Chat interface {
	Send(ctx context.Context, prompt string) (*gemini.Reply, error)
}

// Factory creates a new empty-history Chat.
type Factory func() Chat

// Registry maps chat identifiers to their conversation sessions. Sessions
// live for the lifetime of the process; there is no eviction. Access is
// mutex-guarded so concurrent publishers (Telegram and CLI channels)
// cannot race the single consumer loop.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]Chat
	factory  Factory
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		sessions: make(map[string]Chat),
		factory:  factory,
	}
}

// GetOrCreate returns the existing session for chatID, creating and
// storing a new one if none exists.
func (r *Registry) GetOrCreate(chatID string) Chat {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[chatID]; ok {
		return s
	}
	s := r.factory()
	r.sessions[chatID] = s
	return s
}

// Reset unconditionally creates a new empty-history session for chatID,
// overwriting any existing one, and returns it.
func (r *Registry) Reset(chatID string) Chat {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.factory()
	r.sessions[chatID] = s
	return s
}

// Peek reports the current session for chatID without creating one.
func (r *Registry) Peek(chatID string) (Chat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	return s, ok
}

// Len reports the number of live sessions. The registry is unbounded, so
// this is surfaced in logs as a growth signal.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ChatIDs returns the identifiers of all live sessions, sorted for
// deterministic iteration.
func (r *Registry) ChatIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
