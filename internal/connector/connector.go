package connector

import (
	"context"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// Connector is the interface for external chat platforms (Telegram, Slack, etc.).
type Connector interface {
	// Name returns the connector type (e.g., "telegram", "slack").
	Name() string
	// Start begins listening for inbound messages. Blocks until context is cancelled.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the connector.
	Stop() error
}

// Desk is the chat surface connectors drive. Each connector maps a platform
// conversation onto a session key ("telegram:12345", "slack:C024BE91L") and
// relays the returned assistant messages back to the platform.
type Desk interface {
	OpenChat(session string, user support.Identity) []support.Message
	SendMessage(ctx context.Context, session string, user support.Identity, text string) ([]support.Message, error)
	ConfirmTicket(ctx context.Context, session string) (*support.Ticket, []support.Message, error)
	DeclineTicket(session string) ([]support.Message, error)
	ClearChat(session string) []support.Message
	History(session string) []support.Message
}
