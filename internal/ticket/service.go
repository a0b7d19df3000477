package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// anonymous is the requester attribution used when no identity is available.
// Absence of an identity is never fatal to ticket creation.
var anonymous = support.Identity{
	Name:  "Anonymous User",
	Email: "unknown@example.com",
}

// Service adapts the Store to the chat engine's collaborator contract: it
// lists tickets for similarity matching and persists confirmed drafts with
// requester attribution.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a ticket service over the given store.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ListTickets returns all known tickets in store order.
func (s *Service) ListTickets(ctx context.Context) ([]*support.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.List(Filter{})
}

// CreateTicket persists a confirmed draft as a new open ticket. An empty
// requester identity falls back to the anonymous attribution.
func (s *Service) CreateTicket(ctx context.Context, draft support.Draft, requester support.Identity) (*support.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if draft.Subject == "" || draft.Text == "" {
		return nil, fmt.Errorf("ticket service: draft missing subject or text")
	}

	if requester.IsAnonymous() {
		requester = anonymous
	}
	if requester.ID == "" {
		requester.ID = "user_" + uuid.NewString()[:8]
	}

	t := &support.Ticket{
		ID:            newTicketID(),
		Subject:       draft.Subject,
		Text:          draft.Text,
		Category:      draft.Category,
		Priority:      draft.Priority,
		Status:        support.TicketOpen,
		CustomerName:  requester.Name,
		CustomerID:    requester.ID,
		CustomerEmail: requester.Email,
		CreatedAt:     time.Now(),
	}

	if err := s.store.Create(t); err != nil {
		return nil, fmt.Errorf("ticket service: %w", err)
	}

	s.logger.Info("ticket created",
		"ticket", t.ID,
		"category", t.Category,
		"priority", t.Priority,
		"customer", t.CustomerID,
	)
	return t, nil
}

// newTicketID generates a customer-facing id like "T4F2A91C0".
func newTicketID() string {
	return "T" + strings.ToUpper(uuid.NewString()[:8])
}
