package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ayusman/lungescore/internal/pose"
	"github.com/ayusman/lungescore/internal/session"
	"github.com/ayusman/lungescore/internal/store"
)

// maxFrameBody bounds one posted envelope.
const maxFrameBody = 1 << 20

// SessionHandler handles HTTP requests for scoring sessions:
//
//	GET    /api/sessions
//	POST   /api/sessions
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	POST   /api/sessions/{id}/frames
//	POST   /api/sessions/{id}/reset
type SessionHandler struct {
	sessions *session.Manager
	store    *store.Store // optional, resolves named references
}

// NewSessionHandler creates a SessionHandler. s may be nil, in which case sessions
// can only use generated references.
func NewSessionHandler(m *session.Manager, s *store.Store) *SessionHandler {
	return &SessionHandler{sessions: m, store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/sessions")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case 1:
		id := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case 2:
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		switch parts[1] {
		case "frames":
			h.frame(w, r, parts[0])
		case "reset":
			h.reset(w, r, parts[0])
		default:
			writeError(w, http.StatusNotFound, "Not found")
		}

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

// createSessionRequest overrides the server defaults. All fields are optional.
type createSessionRequest struct {
	Frequency     *int     `json:"frequency,omitempty"`
	EnableDTW     *bool    `json:"enableDtw,omitempty"`
	MinVisibility *float64 `json:"minVisibility,omitempty"`
	Reference     string   `json:"reference,omitempty"` // stored reference ID or name
}

type sessionResponse struct {
	ID        string         `json:"id"`
	Config    session.Config `json:"config"`
	Reference string         `json:"reference,omitempty"`
	Last      session.Result `json:"last"`
}

type listSessionsResponse struct {
	Sessions []string `json:"sessions"`
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: h.sessions.IDs()})
}

// create handles POST /api/sessions. An empty body takes the server defaults.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cfg := h.sessions.Defaults()
	if req.Frequency != nil {
		cfg.Frequency = *req.Frequency
		// Generated references follow the window; a stored one is checked below.
		cfg.References = nil
	}
	if req.EnableDTW != nil {
		cfg.EnableDTW = *req.EnableDTW
	}
	if req.MinVisibility != nil {
		cfg.MinVisibility = *req.MinVisibility
	}

	var refName string
	if req.Reference != "" {
		if h.store == nil {
			writeError(w, http.StatusBadRequest, "No reference store configured")
			return
		}
		ref, set, err := h.store.Load(req.Reference)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Reference not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to load reference")
			return
		}
		cfg.References = &set
		if req.Frequency == nil {
			cfg.Frequency = set.Len()
		}
		refName = ref.Name
	}

	s, err := h.sessions.Create(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:        s.ID(),
		Config:    s.Config(),
		Reference: refName,
	})
}

// get handles GET /api/sessions/{id} and returns the latest result.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	cfg, err := h.sessions.Config(id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	last, err := h.sessions.Last(id)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Config: cfg, Last: last})
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.sessions.Delete(id); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// frame handles POST /api/sessions/{id}/frames with one pose envelope as the body.
func (h *SessionHandler) frame(w http.ResponseWriter, r *http.Request, id string) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	f, err := pose.DecodeFrame(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid envelope")
		return
	}

	result, err := h.sessions.Update(id, f)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// reset handles POST /api/sessions/{id}/reset.
func (h *SessionHandler) reset(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.sessions.Reset(id); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
