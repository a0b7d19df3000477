package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/syntaxsamurai/supportdesk/internal/chat"
	"github.com/syntaxsamurai/supportdesk/internal/kb"
	"github.com/syntaxsamurai/supportdesk/internal/logbuf"
	"github.com/syntaxsamurai/supportdesk/internal/ticket"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// LogQuerier abstracts log entry querying to avoid coupling to logbuf directly.
type LogQuerier interface {
	Query(since time.Time, minLevel slog.Level, limit int) []logbuf.Entry
}

// ArticleFinder looks up knowledge-base articles for a query.
type ArticleFinder interface {
	Lookup(ctx context.Context, query string, limit int) ([]kb.Article, error)
}

// DeskService is the interface the API server needs from the desk.
type DeskService interface {
	SendMessage(ctx context.Context, session string, user support.Identity, text string) ([]support.Message, error)
	ConfirmTicket(ctx context.Context, session string) (*support.Ticket, []support.Message, error)
	DeclineTicket(session string) ([]support.Message, error)
	ClearChat(session string) []support.Message
	History(session string) []support.Message
	ListTickets(filter ticket.Filter) ([]*support.Ticket, error)
	GetTicket(id string) (*support.Ticket, error)
}

// Config holds API server configuration.
type Config struct {
	Host string
	Port int
	Key  string // API key for Bearer auth
}

// Handlers carries the optional surfaces mounted alongside the core routes.
// Any field may be nil.
type Handlers struct {
	Logs      LogQuerier
	Articles  ArticleFinder
	WebSocket http.Handler // mounted at GET /api/chat/{session}/ws
	Webhook   http.Handler // mounted at POST /api/webhook/{name}
}

// Server is the supportdesk REST API server.
type Server struct {
	svc      DeskService
	cfg      Config
	logger   *slog.Logger
	logs     LogQuerier
	articles ArticleFinder
	srv      *http.Server
}

// NewServer creates a new API server.
func NewServer(svc DeskService, cfg Config, logger *slog.Logger, h Handlers) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:      svc,
		cfg:      cfg,
		logger:   logger,
		logs:     h.Logs,
		articles: h.Articles,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/chat/{session}/messages", s.requireAuth(s.handleSendMessage))
	mux.HandleFunc("POST /api/chat/{session}/confirm", s.requireAuth(s.handleConfirm))
	mux.HandleFunc("POST /api/chat/{session}/decline", s.requireAuth(s.handleDecline))
	mux.HandleFunc("POST /api/chat/{session}/clear", s.requireAuth(s.handleClear))
	mux.HandleFunc("GET /api/chat/{session}/history", s.requireAuth(s.handleHistory))
	mux.HandleFunc("GET /api/tickets", s.requireAuth(s.handleListTickets))
	mux.HandleFunc("GET /api/tickets/{id}", s.requireAuth(s.handleGetTicket))
	mux.HandleFunc("GET /api/knowledge", s.requireAuth(s.handleKnowledge))
	mux.HandleFunc("GET /api/logs", s.requireAuth(s.handleGetLogs))
	if h.WebSocket != nil {
		mux.Handle("GET /api/chat/{session}/ws", h.WebSocket)
	}
	if h.Webhook != nil {
		// Webhook endpoints carry their own per-endpoint auth.
		mux.Handle("POST /api/webhook/{name}", h.Webhook)
	}

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening. Blocks until context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutCtx)
	}()

	s.logger.Info("api server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// --- Middleware ---

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Key == "" {
			next(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.cfg.Key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sendMessageRequest struct {
	Text     string           `json:"text"`
	Customer support.Identity `json:"customer"`
}

type chatResponse struct {
	Messages []support.Message `json:"messages"`
	Ticket   *support.Ticket   `json:"ticket,omitempty"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	msgs, err := s.svc.SendMessage(r.Context(), session, req.Customer, req.Text)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Messages: emptyIfNil(msgs)})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	tkt, msgs, err := s.svc.ConfirmTicket(r.Context(), session)
	if err != nil {
		if isNoPending(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "no pending ticket"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Messages: emptyIfNil(msgs), Ticket: tkt})
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	msgs, err := s.svc.DeclineTicket(session)
	if err != nil {
		if isNoPending(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "no pending ticket"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Messages: emptyIfNil(msgs)})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	msgs := s.svc.ClearChat(session)
	writeJSON(w, http.StatusOK, chatResponse{Messages: emptyIfNil(msgs)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	msgs := s.svc.History(session)
	writeJSON(w, http.StatusOK, chatResponse{Messages: emptyIfNil(msgs)})
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	filter := ticket.Filter{}
	if status := r.URL.Query().Get("status"); status != "" {
		ts := support.TicketStatus(status)
		filter.Status = &ts
	}
	if category := r.URL.Query().Get("category"); category != "" {
		c := support.Category(category)
		filter.Category = &c
	}
	if priority := r.URL.Query().Get("priority"); priority != "" {
		p := support.Priority(priority)
		filter.Priority = &p
	}
	if customer := r.URL.Query().Get("customer"); customer != "" {
		filter.CustomerID = customer
	}
	filter.Query = r.URL.Query().Get("q")
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = n
		}
	}

	tickets, err := s.svc.ListTickets(filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if tickets == nil {
		tickets = []*support.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := s.svc.GetTicket(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket not found"})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	if s.articles == nil {
		writeJSON(w, http.StatusOK, []kb.Article{})
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	articles, err := s.articles.Lookup(r.Context(), query, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if articles == nil {
		articles = []kb.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeJSON(w, http.StatusOK, []logbuf.Entry{})
		return
	}

	limit := 200
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	minLevel := slog.LevelDebug
	if lvl := r.URL.Query().Get("level"); lvl != "" {
		switch strings.ToLower(lvl) {
		case "info":
			minLevel = slog.LevelInfo
		case "warn":
			minLevel = slog.LevelWarn
		case "error":
			minLevel = slog.LevelError
		}
	}

	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			since = time.UnixMilli(ms)
		}
	}

	entries := s.logs.Query(since, minLevel, limit)
	if entries == nil {
		entries = []logbuf.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Helpers ---

func isNoPending(err error) bool {
	return errors.Is(err, chat.ErrNoPendingTicket)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func emptyIfNil(msgs []support.Message) []support.Message {
	if msgs == nil {
		return []support.Message{}
	}
	return msgs
}
