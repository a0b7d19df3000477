package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/syntaxsamurai/supportdesk/internal/chat"
	"github.com/syntaxsamurai/supportdesk/internal/respond"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// fakeTicketService backs the hub without a real store.
type fakeTicketService struct {
	mu      sync.Mutex
	created []*support.Ticket
}

func (f *fakeTicketService) ListTickets(_ context.Context) ([]*support.Ticket, error) {
	return nil, nil
}

func (f *fakeTicketService) CreateTicket(_ context.Context, draft support.Draft, requester support.Identity) (*support.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &support.Ticket{
		ID:      "T0001AAAA",
		Subject: draft.Subject,
		Text:    draft.Text,
		Status:  support.TicketOpen,
	}
	f.created = append(f.created, t)
	return t, nil
}

func newTestGateway(t *testing.T) (*Gateway, *fakeTicketService, *chat.Desk) {
	t.Helper()
	tickets := &fakeTicketService{}
	hub := chat.NewHub(tickets, respond.NewWithRand(func(int) int { return 0 }), nil)
	desk := &chat.Desk{Hub: hub}
	return NewGateway(desk, nil), tickets, desk
}

func dial(t *testing.T, srv *httptest.Server, session string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/" + session + "/ws?name=Dana"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestServer(t *testing.T, g *Gateway) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("GET /api/chat/{session}/ws", g)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	var f ServerFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestConnectReplaysHistory(t *testing.T) {
	g, _, _ := newTestGateway(t)
	srv := newTestServer(t, g)
	conn := dial(t, srv, "web-abc")

	f := readFrame(t, conn)
	if f.Type != "messages" {
		t.Fatalf("frame type = %q", f.Type)
	}
	if len(f.Messages) != 1 || f.Messages[0].Sender != support.SenderAssistant {
		t.Fatalf("expected single greeting, got %+v", f.Messages)
	}
}

func TestSendMessageRoundTrip(t *testing.T) {
	g, _, _ := newTestGateway(t)
	srv := newTestServer(t, g)
	conn := dial(t, srv, "web-abc")
	readFrame(t, conn) // greeting

	if err := conn.WriteJSON(ClientFrame{Type: "message", Text: "I can't log in to my account"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := readFrame(t, conn)
	if f.Type != "messages" {
		t.Fatalf("frame type = %q", f.Type)
	}
	// User echo plus assistant reply, no typing placeholder.
	if len(f.Messages) != 2 {
		t.Fatalf("got %d messages: %+v", len(f.Messages), f.Messages)
	}
	if f.Messages[0].Sender != support.SenderUser || f.Messages[1].Sender != support.SenderAssistant {
		t.Errorf("unexpected order: %+v", f.Messages)
	}
	if f.Messages[1].Category != support.CategoryBug {
		t.Errorf("category = %q", f.Messages[1].Category)
	}
}

func TestConfirmFlow(t *testing.T) {
	g, tickets, _ := newTestGateway(t)
	srv := newTestServer(t, g)
	conn := dial(t, srv, "web-abc")
	readFrame(t, conn) // greeting

	conn.WriteJSON(ClientFrame{Type: "message", Text: "My saved files are gone after the last restart"})
	f := readFrame(t, conn)
	if len(f.Messages) != 3 || !f.Messages[2].IsTicketSuggestion {
		t.Fatalf("expected reply plus ticket offer, got %+v", f.Messages)
	}

	conn.WriteJSON(ClientFrame{Type: "confirm"})
	f = readFrame(t, conn)
	if f.Ticket == nil || f.Ticket.ID != "T0001AAAA" {
		t.Fatalf("ticket = %+v", f.Ticket)
	}
	if len(tickets.created) != 1 {
		t.Fatalf("created %d tickets", len(tickets.created))
	}
}

func TestConfirmWithoutOffer(t *testing.T) {
	g, _, _ := newTestGateway(t)
	srv := newTestServer(t, g)
	conn := dial(t, srv, "web-abc")
	readFrame(t, conn)

	conn.WriteJSON(ClientFrame{Type: "confirm"})
	f := readFrame(t, conn)
	if f.Type != "error" || f.Error != "no pending ticket" {
		t.Fatalf("frame = %+v", f)
	}
}

func TestClearResetsSession(t *testing.T) {
	g, _, _ := newTestGateway(t)
	srv := newTestServer(t, g)
	conn := dial(t, srv, "web-abc")
	readFrame(t, conn)

	conn.WriteJSON(ClientFrame{Type: "message", Text: "the app is so slow today"})
	readFrame(t, conn)

	conn.WriteJSON(ClientFrame{Type: "clear"})
	f := readFrame(t, conn)
	if len(f.Messages) != 1 {
		t.Fatalf("expected fresh greeting only, got %d messages", len(f.Messages))
	}
}

func TestUnknownFrameType(t *testing.T) {
	g, _, _ := newTestGateway(t)
	srv := newTestServer(t, g)
	conn := dial(t, srv, "web-abc")
	readFrame(t, conn)

	conn.WriteJSON(ClientFrame{Type: "ping"})
	f := readFrame(t, conn)
	if f.Type != "error" {
		t.Fatalf("frame = %+v", f)
	}
}

func TestPresenceTracking(t *testing.T) {
	g, _, desk := newTestGateway(t)
	srv := newTestServer(t, g)
	conn := dial(t, srv, "web-abc")
	readFrame(t, conn)

	s, ok := desk.Hub.Get("web-abc")
	if !ok {
		t.Fatal("session not created")
	}
	if !s.Connected() {
		t.Error("session should be marked connected")
	}

	conn.Close()
	waitFor(t, func() bool { return !s.Connected() })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 100; i++ {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met")
}
