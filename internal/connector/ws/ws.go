package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/syntaxsamurai/supportdesk/internal/chat"
	"github.com/syntaxsamurai/supportdesk/internal/connector"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// Desk extends the connector surface with presence tracking so the widget
// can tell whether a customer still has the chat open.
type Desk interface {
	connector.Desk
	SetConnected(session string, v bool)
}

// Gateway upgrades chat requests to websocket connections for the web
// widget. One connection drives one session; the full history is replayed
// on connect so a reloaded page picks up where it left off.
type Gateway struct {
	desk     Desk
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// ClientFrame is a request from the widget.
type ClientFrame struct {
	Type string `json:"type"` // "message", "confirm", "decline", "clear"
	Text string `json:"text,omitempty"`
}

// ServerFrame is a response to the widget.
type ServerFrame struct {
	Type     string            `json:"type"` // "messages" or "error"
	Messages []support.Message `json:"messages,omitempty"`
	Ticket   *support.Ticket   `json:"ticket,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// NewGateway creates a websocket gateway over the desk.
func NewGateway(desk Desk, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		desk:   desk,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The widget is embedded on customer sites.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /api/chat/{session}/ws.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	if session == "" {
		http.Error(w, "session is required", http.StatusBadRequest)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "session", session, "error", err)
		return
	}
	defer conn.Close()

	q := r.URL.Query()
	user := support.Identity{
		ID:    q.Get("customer_id"),
		Name:  q.Get("name"),
		Email: q.Get("email"),
	}

	history := g.desk.OpenChat(session, user)
	g.desk.SetConnected(session, true)
	defer g.desk.SetConnected(session, false)

	g.logger.Info("websocket connected", "session", session)

	if err := conn.WriteJSON(ServerFrame{Type: "messages", Messages: history}); err != nil {
		return
	}

	for {
		var frame ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Warn("websocket read failed", "session", session, "error", err)
			}
			return
		}
		if err := g.handle(r.Context(), conn, session, user, frame); err != nil {
			return
		}
	}
}

func (g *Gateway) handle(ctx context.Context, conn *websocket.Conn, session string, user support.Identity, frame ClientFrame) error {
	switch frame.Type {
	case "message":
		msgs, err := g.desk.SendMessage(ctx, session, user, frame.Text)
		if err != nil {
			return conn.WriteJSON(ServerFrame{Type: "error", Error: err.Error()})
		}
		return conn.WriteJSON(ServerFrame{Type: "messages", Messages: msgs})

	case "confirm":
		tkt, msgs, err := g.desk.ConfirmTicket(ctx, session)
		if err != nil {
			if errors.Is(err, chat.ErrNoPendingTicket) {
				return conn.WriteJSON(ServerFrame{Type: "error", Error: "no pending ticket"})
			}
			return conn.WriteJSON(ServerFrame{Type: "error", Error: err.Error()})
		}
		return conn.WriteJSON(ServerFrame{Type: "messages", Messages: msgs, Ticket: tkt})

	case "decline":
		msgs, err := g.desk.DeclineTicket(session)
		if err != nil {
			if errors.Is(err, chat.ErrNoPendingTicket) {
				return conn.WriteJSON(ServerFrame{Type: "error", Error: "no pending ticket"})
			}
			return conn.WriteJSON(ServerFrame{Type: "error", Error: err.Error()})
		}
		return conn.WriteJSON(ServerFrame{Type: "messages", Messages: msgs})

	case "clear":
		msgs := g.desk.ClearChat(session)
		return conn.WriteJSON(ServerFrame{Type: "messages", Messages: msgs})

	default:
		return conn.WriteJSON(ServerFrame{Type: "error", Error: "unknown frame type"})
	}
}
