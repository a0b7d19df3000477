// Package chat owns the per-user conversation state machine: message history,
// the pending ticket draft, and the orchestration of triage and response
// composition for each incoming message.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syntaxsamurai/supportdesk/internal/respond"
	"github.com/syntaxsamurai/supportdesk/internal/triage"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// State is the conversation state of a session.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingReply        State = "awaiting_reply"
	StateAwaitingConfirmation State = "awaiting_ticket_confirmation"
)

// ErrNoPendingTicket is returned by confirm/decline when no draft is pending.
// A repeated confirm after the draft has been cleared hits this instead of
// creating a second ticket.
var ErrNoPendingTicket = errors.New("chat: no pending ticket draft")

const (
	apologyText       = "I'm having trouble understanding your request. Could you try phrasing it differently?"
	offerText         = "Would you like me to create a support ticket for this issue?"
	confirmUserText   = "Yes, please create a ticket for this issue."
	declineUserText   = "No thanks, I don't need a ticket right now."
	createFailedText  = "I couldn't create a ticket right now. Please try again later or submit it manually."
	createdTextFormat = "I've created ticket #%s for you. Our support team will look into this issue soon."

	defaultCreateTimeout = 10 * time.Second

	// maxHistory bounds per-session memory. Old messages fall off the front;
	// the conversation itself is never persisted.
	maxHistory = 200
)

// TicketService is the external ticket-store collaborator. The session only
// reads the ticket list for similarity matching and requests creation on a
// confirmed draft; it never mutates tickets directly.
type TicketService interface {
	ListTickets(ctx context.Context) ([]*support.Ticket, error)
	CreateTicket(ctx context.Context, draft support.Draft, requester support.Identity) (*support.Ticket, error)
}

// Session is one user's conversation with the triage engine. All operations
// are serialized by the session mutex, so at most one send is in flight at a
// time and the message-ordering invariants hold. Sessions are independent of
// each other and may run fully in parallel.
type Session struct {
	id       string
	identity support.Identity
	tickets  TicketService
	composer *respond.Composer
	logger   *slog.Logger

	createTimeout time.Duration

	mu         sync.Mutex
	state      State
	history    []support.Message
	pending    *support.Draft
	connected  bool
	lastActive time.Time
}

// NewSession creates a session and emits the one-time greeting.
func NewSession(id string, identity support.Identity, tickets TicketService, composer *respond.Composer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		id:            id,
		identity:      identity,
		tickets:       tickets,
		composer:      composer,
		logger:        logger.With("session", id),
		createTimeout: defaultCreateTimeout,
		state:         StateIdle,
		connected:     true,
		lastActive:    time.Now(),
	}
	s.history = append(s.history, s.assistantMessage("welcome", composer.Greeting()))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Identity returns the requester identity bound to this session.
func (s *Session) Identity() support.Identity { return s.identity }

// SendMessage appends the user message, runs triage and composition, and
// appends the assistant reply. Empty or whitespace-only input is silently
// ignored. The returned slice holds the messages appended by this call, in
// history order, excluding the transient typing placeholder. When the reply
// offers ticket creation, a separate suggestion message follows the reply and
// the session moves to StateAwaitingConfirmation.
//
// Sending while a ticket offer is pending is an ordinary new message; it does
// not answer the offer.
func (s *Session) SendMessage(ctx context.Context, text string) ([]support.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	prevState := s.state
	s.state = StateAwaitingReply

	appendedFrom := len(s.history)

	// The user message lands in history before analysis starts.
	userMsg := support.Message{
		ID:        messageID("msg"),
		Text:      text,
		Sender:    support.SenderUser,
		Timestamp: time.Now(),
	}
	s.history = append(s.history, userMsg)

	// Transient placeholder while the reply is computed. Removed atomically
	// with the reply append under the same lock.
	s.history = append(s.history, support.Message{
		ID:        "typing",
		Text:      "...",
		Sender:    support.SenderAssistant,
		Timestamp: time.Now(),
		IsTyping:  true,
	})

	known, err := s.tickets.ListTickets(ctx)
	if err != nil {
		s.logger.Error("triage failed", "error", err)
		s.dropTyping()
		apology := s.assistantMessage("error", apologyText)
		apology.IsError = true
		s.history = append(s.history, apology)
		s.state = prevState
		if prevState == StateAwaitingReply {
			s.state = StateIdle
		}
		return s.appended(appendedFrom), nil
	}

	res := triage.Analyze(text)
	similar := triage.FindSimilar(text, known)
	reply := s.composer.Compose(res, similar, text)

	s.dropTyping()

	botMsg := s.assistantMessage("resp", reply.Text)
	botMsg.Category = res.Category
	botMsg.Priority = res.Priority
	botMsg.Suggestions = reply.Suggestions
	s.history = append(s.history, botMsg)

	if reply.OfferTicket {
		// A new offer overwrites any draft still pending from an earlier turn.
		s.pending = reply.Draft
		offer := s.assistantMessage("suggestion", offerText)
		offer.IsTicketSuggestion = true
		s.history = append(s.history, offer)
		s.state = StateAwaitingConfirmation
	} else if prevState == StateAwaitingConfirmation && s.pending != nil {
		// The earlier offer stays open until explicitly answered.
		s.state = StateAwaitingConfirmation
	} else {
		s.state = StateIdle
	}

	s.logger.Info("message triaged",
		"intent", res.Intent,
		"category", res.Category,
		"priority", res.Priority,
		"similar", len(similar),
		"offer", reply.OfferTicket,
	)

	out := s.appended(appendedFrom)
	s.trimHistory()
	return out, nil
}

// ConfirmTicket accepts the pending ticket offer: it logs an affirming user
// message, asks the collaborator to persist the draft, and reports the new
// ticket id. The draft is cleared whether or not creation succeeds, so a
// repeated confirm cannot create a duplicate ticket.
func (s *Session) ConfirmTicket(ctx context.Context) (*support.Ticket, []support.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.pending == nil {
		return nil, nil, ErrNoPendingTicket
	}

	appendedFrom := len(s.history)
	s.history = append(s.history, support.Message{
		ID:        messageID("msg"),
		Text:      confirmUserText,
		Sender:    support.SenderUser,
		Timestamp: time.Now(),
	})

	draft := *s.pending
	s.pending = nil
	s.state = StateIdle

	createCtx, cancel := context.WithTimeout(ctx, s.createTimeout)
	defer cancel()

	created, err := s.tickets.CreateTicket(createCtx, draft, s.identity)
	if err != nil {
		s.logger.Error("ticket creation failed", "error", err)
		failMsg := s.assistantMessage("error", createFailedText)
		failMsg.IsError = true
		s.history = append(s.history, failMsg)
		return nil, s.appended(appendedFrom), fmt.Errorf("chat: create ticket: %w", err)
	}

	okMsg := s.assistantMessage("ticket", fmt.Sprintf(createdTextFormat, created.ID))
	okMsg.IsTicketConfirmation = true
	s.history = append(s.history, okMsg)

	s.logger.Info("ticket created from chat", "ticket", created.ID, "priority", created.Priority)
	out := s.appended(appendedFrom)
	s.trimHistory()
	return created, out, nil
}

// DeclineTicket rejects the pending ticket offer. No ticket is created.
func (s *Session) DeclineTicket() ([]support.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.pending == nil {
		return nil, ErrNoPendingTicket
	}

	appendedFrom := len(s.history)
	s.history = append(s.history, support.Message{
		ID:        messageID("msg"),
		Text:      declineUserText,
		Sender:    support.SenderUser,
		Timestamp: time.Now(),
	})
	s.pending = nil
	s.state = StateIdle
	return s.appended(appendedFrom), nil
}

// Clear discards the history and pending draft and re-emits a fresh greeting.
// Safe to call from any state.
func (s *Session) Clear() []support.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.history = []support.Message{s.assistantMessage("welcome", s.composer.Greeting())}
	s.pending = nil
	s.state = StateIdle
	return s.appended(0)
}

// History returns a copy of the ordered message history.
func (s *Session) History() []support.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]support.Message, len(s.history))
	copy(out, s.history)
	return out
}

// State returns the current conversation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PendingDraft returns a copy of the pending ticket draft, if any.
func (s *Session) PendingDraft() (support.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return support.Draft{}, false
	}
	return *s.pending, true
}

// Connected reports the session's connectivity flag.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// SetConnected updates the connectivity flag (owned by the transport layer).
func (s *Session) SetConnected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = v
}

// LastActive returns the time of the session's most recent operation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// touch must be called with the lock held.
func (s *Session) touch() { s.lastActive = time.Now() }

// dropTyping removes the transient placeholder. Lock must be held.
func (s *Session) dropTyping() {
	kept := s.history[:0]
	for _, m := range s.history {
		if !m.IsTyping {
			kept = append(kept, m)
		}
	}
	s.history = kept
}

// trimHistory drops the oldest messages once the history exceeds maxHistory.
// Lock must be held.
func (s *Session) trimHistory() {
	if over := len(s.history) - maxHistory; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

// appended returns a copy of history[from:], skipping placeholders.
// Lock must be held.
func (s *Session) appended(from int) []support.Message {
	var out []support.Message
	for _, m := range s.history[from:] {
		if m.IsTyping {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *Session) assistantMessage(kind, text string) support.Message {
	return support.Message{
		ID:        messageID(kind),
		Text:      text,
		Sender:    support.SenderAssistant,
		Timestamp: time.Now(),
	}
}

func messageID(kind string) string {
	return kind + "_" + uuid.NewString()[:8]
}
