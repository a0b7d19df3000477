package chat

import (
	"context"

	"github.com/syntaxsamurai/supportdesk/internal/ticket"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// Desk bundles the session hub with read access to the ticket store. It backs
// the REST API and the CLI: chat operations are addressed by session key, and
// the ticket surface is read-only (creation only ever happens through a
// confirmed draft).
type Desk struct {
	Hub   *Hub
	Store ticket.Store
}

// OpenChat ensures the keyed session exists and returns its history. A fresh
// session starts with the greeting already in place.
func (d *Desk) OpenChat(session string, user support.Identity) []support.Message {
	return d.Hub.Session(session, user).History()
}

// SendMessage routes a user message into the keyed session.
func (d *Desk) SendMessage(ctx context.Context, session string, user support.Identity, text string) ([]support.Message, error) {
	return d.Hub.Session(session, user).SendMessage(ctx, text)
}

// ConfirmTicket accepts the keyed session's pending ticket offer.
func (d *Desk) ConfirmTicket(ctx context.Context, session string) (*support.Ticket, []support.Message, error) {
	s, ok := d.Hub.Get(session)
	if !ok {
		return nil, nil, ErrNoPendingTicket
	}
	return s.ConfirmTicket(ctx)
}

// DeclineTicket rejects the keyed session's pending ticket offer.
func (d *Desk) DeclineTicket(session string) ([]support.Message, error) {
	s, ok := d.Hub.Get(session)
	if !ok {
		return nil, ErrNoPendingTicket
	}
	return s.DeclineTicket()
}

// ClearChat resets the keyed session to a single fresh greeting.
func (d *Desk) ClearChat(session string) []support.Message {
	s, ok := d.Hub.Get(session)
	if !ok {
		return nil
	}
	return s.Clear()
}

// History returns the keyed session's ordered message history.
func (d *Desk) History(session string) []support.Message {
	s, ok := d.Hub.Get(session)
	if !ok {
		return nil
	}
	return s.History()
}

// SetConnected flags the keyed session's live-connection state.
func (d *Desk) SetConnected(session string, v bool) {
	if s, ok := d.Hub.Get(session); ok {
		s.SetConnected(v)
	}
}

// ListTickets lists tickets from the store.
func (d *Desk) ListTickets(filter ticket.Filter) ([]*support.Ticket, error) {
	return d.Store.List(filter)
}

// GetTicket fetches one ticket by id.
func (d *Desk) GetTicket(id string) (*support.Ticket, error) {
	return d.Store.Get(id)
}
