// Package ticket implements the shared support-ticket store. The triage
// engine treats it as an external collaborator: it reads the ticket list for
// similarity matching and requests creation for confirmed drafts.
package ticket

import (
	"errors"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// ErrNotFound is returned when no ticket matches the requested id.
var ErrNotFound = errors.New("ticket not found")

// Store is the persistence interface for support tickets.
type Store interface {
	// Create persists a new ticket.
	Create(t *support.Ticket) error
	// Get retrieves a ticket by id.
	Get(id string) (*support.Ticket, error)
	// List returns tickets matching the filter, oldest first. The ordering is
	// load-bearing: similarity results preserve store order.
	List(filter Filter) ([]*support.Ticket, error)
	// Count returns the number of tickets matching the filter.
	Count(filter Filter) (int, error)
	// UpdateStatus changes a ticket's lifecycle status.
	UpdateStatus(id string, status support.TicketStatus) error
	// Close releases the underlying storage.
	Close() error
}

// Filter constrains ticket list queries. Zero values match everything.
type Filter struct {
	Status     *support.TicketStatus
	Category   *support.Category
	Priority   *support.Priority
	CustomerID string
	Query      string // text search on subject and text
	Limit      int    // 0 = no limit
}
