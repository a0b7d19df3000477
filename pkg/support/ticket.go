package support

import "time"

// TicketStatus represents the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// Ticket is a persisted support request.
type Ticket struct {
	ID            string       `json:"ticket_id"`
	Subject       string       `json:"subject"`
	Text          string       `json:"text"`
	Category      Category     `json:"category"`
	Priority      Priority     `json:"priority"`
	Status        TicketStatus `json:"status"`
	CustomerName  string       `json:"customer_name"`
	CustomerID    string       `json:"customer_id"`
	CustomerEmail string       `json:"customer_email"`
	AssignedTo    string       `json:"assigned_to,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Draft is a candidate ticket proposed by the triage engine but not yet
// persisted. It is held by at most one conversation session at a time and is
// cleared on confirmation, decline, or session reset.
type Draft struct {
	Subject  string   `json:"subject"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
	Priority Priority `json:"priority"`
}

// Identity is the requester attribution attached to created tickets.
type Identity struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// IsAnonymous reports whether the identity carries no caller attribution.
func (id Identity) IsAnonymous() bool {
	return id.ID == "" && id.Name == "" && id.Email == ""
}
