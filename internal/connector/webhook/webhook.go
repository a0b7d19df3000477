package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/syntaxsamurai/supportdesk/internal/connector"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// Config holds webhook configuration.
type Config struct {
	// Endpoints maps endpoint names to their auth settings.
	// e.g., {"zendesk": {...}, "intercom": {...}}
	Endpoints map[string]EndpointConfig `json:"endpoints"`
}

// EndpointConfig holds per-endpoint webhook configuration.
type EndpointConfig struct {
	// Secret for HMAC-SHA256 signature verification (X-Hub-Signature-256 header).
	// If empty, Bearer auth is used instead.
	Secret string `json:"secret,omitempty"`
	// BearerToken for Authorization header auth. Used if Secret is empty.
	BearerToken string `json:"bearer_token,omitempty"`
}

// Payload is the expected JSON body for webhook requests.
type Payload struct {
	SenderID string `json:"sender_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	ChatID   string `json:"chat_id"`
	Content  string `json:"content"`
}

// Response is the JSON reply: the triage engine's messages for this turn.
type Response struct {
	Status   string            `json:"status"`
	Messages []support.Message `json:"messages"`
}

// Handler lets third-party tools relay customer messages into triage
// sessions over plain HTTP. Unlike the live connectors the reply comes back
// in the response body, so integrations stay stateless.
type Handler struct {
	config Config
	desk   connector.Desk
	logger *slog.Logger
}

// New creates a new webhook handler.
func New(cfg Config, desk connector.Desk, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		config: cfg,
		desk:   desk,
		logger: logger,
	}
}

// ServeHTTP handles POST /api/webhook/{name}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "missing endpoint name in path", http.StatusBadRequest)
		return
	}

	endpoint, ok := h.config.Endpoints[name]
	if !ok {
		http.Error(w, "unknown webhook endpoint: "+name, http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !h.authenticate(r, endpoint, body) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(payload.Content) == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}
	if payload.ChatID == "" {
		payload.ChatID = name
	}

	session := "webhook:" + name + ":" + payload.ChatID
	user := support.Identity{
		ID:    payload.SenderID,
		Name:  payload.Name,
		Email: payload.Email,
	}

	msgs, err := h.desk.SendMessage(r.Context(), session, user, payload.Content)
	if err != nil {
		h.logger.Error("webhook send failed",
			"endpoint", name,
			"chat_id", payload.ChatID,
			"error", err,
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []support.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{Status: "ok", Messages: msgs})
}

func (h *Handler) authenticate(r *http.Request, endpoint EndpointConfig, body []byte) bool {
	// HMAC signature verification
	if endpoint.Secret != "" {
		sig := r.Header.Get("X-Hub-Signature-256")
		if sig == "" {
			sig = r.Header.Get("X-Signature-256")
		}
		return verifyHMAC(body, endpoint.Secret, sig)
	}

	// Bearer token
	if endpoint.BearerToken != "" {
		auth := r.Header.Get("Authorization")
		return auth == "Bearer "+endpoint.BearerToken
	}

	// No auth configured: allow (for development)
	return true
}

// verifyHMAC checks an HMAC-SHA256 signature.
// Signature format: "sha256=<hex>"
func verifyHMAC(body []byte, secret, signature string) bool {
	if signature == "" {
		return false
	}

	sig := strings.TrimPrefix(signature, "sha256=")
	expectedMAC, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	computedMAC := mac.Sum(nil)

	return hmac.Equal(computedMAC, expectedMAC)
}

// ComputeSignature generates an HMAC-SHA256 signature for testing/external use.
func ComputeSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
