package chat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/syntaxsamurai/supportdesk/internal/respond"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// Hub tracks active conversation sessions, one per chat key. Keys are opaque
// transport identifiers ("web:abc123", "telegram:42", ...). Sessions share no
// state with each other.
type Hub struct {
	tickets  TicketService
	composer *respond.Composer
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewHub creates an empty session hub.
func NewHub(tickets TicketService, composer *respond.Composer, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		tickets:  tickets,
		composer: composer,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for key, creating it (with its greeting) on
// first use. The identity is bound at creation time; later calls with a
// different identity keep the original binding.
func (h *Hub) Session(key string, identity support.Identity) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[key]; ok {
		return s
	}
	s := NewSession(key, identity, h.tickets, h.composer, h.logger)
	h.sessions[key] = s
	h.logger.Info("session created", "session", key)
	return s
}

// Get returns the session for key without creating one.
func (h *Hub) Get(key string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[key]
	return s, ok
}

// Remove drops the session for key.
func (h *Hub) Remove(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, key)
}

// Len returns the number of active sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// PruneIdle removes sessions whose last activity is older than maxIdle and
// returns how many were dropped. Session history is not persisted; an idle
// visitor simply starts over with a fresh greeting next time.
func (h *Hub) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	h.mu.Lock()
	defer h.mu.Unlock()

	pruned := 0
	for key, s := range h.sessions {
		if s.LastActive().Before(cutoff) {
			delete(h.sessions, key)
			pruned++
		}
	}
	if pruned > 0 {
		h.logger.Info("idle sessions pruned", "count", pruned, "remaining", len(h.sessions))
	}
	return pruned
}
