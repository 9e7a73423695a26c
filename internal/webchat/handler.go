// Package webchat runs the booking site's chat widget: canned answers for
// common questions over WebSocket, with a human handoff for the rest.
package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// HandoffNotifier is told when a chat needs a human.
type HandoffNotifier interface {
	NotifyHandoff(ctx context.Context, sessionID, text string) error
}

// Handler manages chat connections and messages.
type Handler struct {
	responder *Responder
	history   HistoryStore
	handoff   HandoffNotifier
	logger    *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*wsConn
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string    `json:"type"` // "message", "history", "session", "pong", "error"
	Text      string    `json:"text,omitempty"`
	Role      string    `json:"role,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	Handoff   bool      `json:"handoff,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
}

// NewHandler creates a chat handler. handoff may be nil.
func NewHandler(responder *Responder, history HistoryStore, handoff HandoffNotifier, logger *logging.Logger) *Handler {
	if responder == nil {
		responder = NewResponder(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		responder: responder,
		history:   history,
		handoff:   handoff,
		logger:    logger,
		sessions:  make(map[string]*wsConn),
	}
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	if h.history != nil {
		if msgs, err := h.history.List(r.Context(), sessionID, 50); err == nil && len(msgs) > 0 {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: msgs})
		}
	}

	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.sessions[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[sessionID] == wsc {
			delete(h.sessions, sessionID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		reply, handedOff := h.processMessage(r.Context(), sessionID, msg.Text)
		h.sendToSession(sessionID, reply, handedOff)
	}
}

// processMessage stores the user line, picks the reply, and stores it too.
func (h *Handler) processMessage(ctx context.Context, sessionID, text string) (string, bool) {
	now := time.Now().UTC()
	if h.history != nil {
		_ = h.history.Append(ctx, sessionID, Message{ID: uuid.NewString(), Role: "user", Text: text, Timestamp: now})
	}

	reply, matched := h.responder.Answer(text)
	if !matched && h.handoff != nil {
		if err := h.handoff.NotifyHandoff(ctx, sessionID, text); err != nil {
			h.logger.Warn("webchat: handoff notification failed", "session_id", sessionID, "error", err)
		}
	}

	if h.history != nil {
		_ = h.history.Append(ctx, sessionID, Message{ID: uuid.NewString(), Role: "assistant", Text: reply, Timestamp: time.Now().UTC()})
	}
	return reply, !matched
}

func (h *Handler) sendToSession(sessionID, text string, handoff bool) {
	h.mu.RLock()
	wsc, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, OutboundMessage{
		Type:      "message",
		Role:      "assistant",
		Text:      text,
		Handoff:   handoff,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleMessage is the HTTP fallback for sending messages.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	reply, handedOff := h.processMessage(r.Context(), req.SessionID, req.Text)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": req.SessionID,
		"reply":      reply,
		"handoff":    handedOff,
	})
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	var msgs []Message
	if h.history != nil {
		var err error
		msgs, err = h.history.List(r.Context(), sessionID, 100)
		if err != nil {
			h.logger.Error("webchat: failed to load history", "session_id", sessionID, "error", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
	}
	if msgs == nil {
		msgs = []Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": msgs})
}
