package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayusman/lungescore/internal/geometry"
	"github.com/ayusman/lungescore/internal/reference"
	"github.com/ayusman/lungescore/internal/session"
	"github.com/ayusman/lungescore/internal/store"
)

// ReferenceHandler handles HTTP requests for reference resources:
//
//	GET    /api/references
//	POST   /api/references
//	GET    /api/references/{id}
//	PUT    /api/references/{id}
//	DELETE /api/references/{id}
//	GET    /api/references/{id}/waveform
//	PUT    /api/references/{id}/waveform
type ReferenceHandler struct {
	store *store.Store
}

// NewReferenceHandler creates a new ReferenceHandler with the given store.
func NewReferenceHandler(s *store.Store) *ReferenceHandler {
	return &ReferenceHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ReferenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/references")

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
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case 2:
		if parts[1] != "waveform" {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.getWaveform(w, r, parts[0])
		case http.MethodPut:
			h.putWaveform(w, r, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

// waveformRequest either lists the samples directly or asks for a generated lunge.
type waveformRequest struct {
	Joints    [][]float64 `json:"joints,omitempty"`
	Frequency int         `json:"frequency,omitempty"`
	Ranges    []float64   `json:"ranges,omitempty"`
}

type createReferenceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	waveformRequest
}

type updateReferenceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type referenceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Frequency   int    `json:"frequency"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type listReferencesResponse struct {
	References []referenceResponse `json:"references"`
}

type waveformResponse struct {
	ReferenceID string      `json:"reference_id"`
	Frequency   int         `json:"frequency"`
	Joints      [][]float64 `json:"joints"`
}

func toReferenceResponse(ref *store.Reference) referenceResponse {
	return referenceResponse{
		ID:          ref.ID,
		Name:        ref.Name,
		Description: ref.Description,
		Frequency:   ref.Frequency,
		CreatedAt:   formatTime(ref.CreatedAt),
		UpdatedAt:   formatTime(ref.UpdatedAt),
	}
}

var errBadWaveform = fmt.Errorf("waveform needs 4 equal-length joint series of at most %d samples, or a frequency in 1..%d with optional 4 ranges",
	session.MaxFrequency, session.MaxFrequency)

// set builds the waveform described by the request. ok is false when the request
// describes no waveform at all.
func (req waveformRequest) set() (set reference.Set, ok bool, err error) {
	switch {
	case len(req.Joints) > 0:
		if len(req.Joints) != geometry.NumJoints {
			return set, true, errBadWaveform
		}
		copy(set[:], req.Joints)
		if n := set.Len(); n <= 0 || n > session.MaxFrequency {
			return set, true, errBadWaveform
		}
		return set, true, nil

	case req.Frequency != 0:
		if req.Frequency < 0 || req.Frequency > session.MaxFrequency {
			return set, true, errBadWaveform
		}
		ranges := reference.DefaultRanges
		if req.Ranges != nil {
			if len(req.Ranges) != geometry.NumJoints {
				return set, true, errBadWaveform
			}
			copy(ranges[:], req.Ranges)
		}
		return reference.Lunge(req.Frequency, ranges), true, nil
	}
	return set, false, nil
}

// list handles GET /api/references.
func (h *ReferenceHandler) list(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.References().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list references")
		return
	}

	response := listReferencesResponse{
		References: make([]referenceResponse, 0, len(refs)),
	}
	for _, ref := range refs {
		response.References = append(response.References, toReferenceResponse(ref))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/references/{id}.
func (h *ReferenceHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	ref, err := h.store.References().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Reference not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get reference")
		return
	}

	writeJSON(w, http.StatusOK, toReferenceResponse(ref))
}

// create handles POST /api/references, optionally storing a waveform with it.
func (h *ReferenceHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	set, hasWaveform, err := req.waveformRequest.set()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.References().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Reference name already exists")
		return
	}

	ref := &store.Reference{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.store.References().Create(ref); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create reference")
		return
	}

	if hasWaveform {
		if err := h.store.Waveforms().Save(ref.ID, set); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save waveform")
			return
		}
		ref.Frequency = set.Len()
	}

	writeJSON(w, http.StatusCreated, toReferenceResponse(ref))
}

// update handles PUT /api/references/{id}.
func (h *ReferenceHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	ref, err := h.store.References().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Reference not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get reference")
		return
	}

	var req updateReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		ref.Name = req.Name
	}
	if req.Description != "" {
		ref.Description = req.Description
	}

	if err := h.store.References().Update(ref); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update reference")
		return
	}

	writeJSON(w, http.StatusOK, toReferenceResponse(ref))
}

// delete handles DELETE /api/references/{id}.
func (h *ReferenceHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.References().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Reference not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete reference")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getWaveform handles GET /api/references/{id}/waveform.
func (h *ReferenceHandler) getWaveform(w http.ResponseWriter, r *http.Request, id string) {
	set, err := h.store.Waveforms().Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Waveform not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get waveform")
		return
	}

	writeJSON(w, http.StatusOK, waveformResponse{
		ReferenceID: id,
		Frequency:   set.Len(),
		Joints:      set[:],
	})
}

// putWaveform handles PUT /api/references/{id}/waveform.
func (h *ReferenceHandler) putWaveform(w http.ResponseWriter, r *http.Request, id string) {
	var req waveformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	set, ok, err := req.set()
	if err == nil && !ok {
		err = errBadWaveform
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Waveforms().Save(id, set); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Reference not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save waveform")
		return
	}

	writeJSON(w, http.StatusOK, waveformResponse{
		ReferenceID: id,
		Frequency:   set.Len(),
		Joints:      set[:],
	})
}
