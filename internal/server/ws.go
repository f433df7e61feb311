package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ayusman/lungescore/internal/pose"
	"github.com/ayusman/lungescore/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StreamHandler scores pose envelopes streamed over a WebSocket. Each text message
// is one envelope; each reply is the session.Result for it, in order.
//
// /api/sessions/{id}/stream attaches to an existing session. /api/stream creates a
// session from the manager defaults that lives as long as the connection.
type StreamHandler struct {
	sessions *session.Manager
}

type streamError struct {
	Error string `json:"error"`
}

// NewStreamHandler creates a StreamHandler over m.
func NewStreamHandler(m *session.Manager) *StreamHandler {
	return &StreamHandler{sessions: m}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ephemeral, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if ephemeral {
		defer h.sessions.Delete(id)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Frames on one connection are scored strictly in arrival order.
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var reply interface{}
		f, err := pose.DecodeFrame(data)
		if err != nil {
			reply = streamError{Error: err.Error()}
		} else if result, err := h.sessions.Update(id, f); err != nil {
			reply = streamError{Error: err.Error()}
		} else {
			reply = result
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("websocket write error: %v", err)
			break
		}
	}
}

// resolve picks the session for the request before the upgrade, so unknown
// sessions get a plain 404.
func (h *StreamHandler) resolve(w http.ResponseWriter, r *http.Request) (id string, ephemeral, ok bool) {
	if r.URL.Path == "/api/stream" {
		s, err := h.sessions.Create(h.sessions.Defaults())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return "", false, false
		}
		return s.ID(), true, true
	}

	id = strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/stream")
	if _, err := h.sessions.Last(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return "", false, false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return "", false, false
	}
	return id, false, true
}
