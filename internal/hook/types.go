// Package hook runs external programs when a scoring session emits an event,
// for example to chime on a completed rep or push counts to another service.
package hook

import (
	"encoding/json"
	"slices"
)

// Event names a session transition a hook can subscribe to.
type Event string

const (
	EventRepCompleted   Event = "rep_completed"
	EventPersonDetected Event = "person_detected"
	EventPersonLost     Event = "person_lost"
)

// Manifest is the hook.json file in a hook directory.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []Event         `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is written to the hook's stdin as one JSON document.
type Request struct {
	Event   Event           `json:"event"`
	Session string          `json:"session"`
	Result  json.RawMessage `json:"result"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook and where it lives.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Subscribes reports whether the hook listens for ev.
func (h *Hook) Subscribes(ev Event) bool {
	return slices.Contains(h.Manifest.Events, ev)
}
