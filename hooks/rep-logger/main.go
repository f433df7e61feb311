// Package main is a hook that appends session events to a text log.
// Build it next to its hook.json: go build -o rep-logger .
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Request represents the input from the hook executor.
type Request struct {
	Event   string          `json:"event"`
	Session string          `json:"session"`
	Result  json.RawMessage `json:"result"`
	Config  json.RawMessage `json:"config"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Config is the "config" block of hook.json.
type Config struct {
	File string `json:"file"`
}

// result holds the fields of a scoring result this hook reports.
type result struct {
	DominantLeg string `json:"dominantLeg"`
	RepCount    int    `json:"repCount"`
	CosineScore *int   `json:"cosineScore"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	cfg := Config{File: "reps.log"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(fmt.Errorf("failed to parse config: %w", err))
			return
		}
	}

	var r result
	if err := json.Unmarshal(req.Result, &r); err != nil {
		writeResponse(fmt.Errorf("failed to parse result: %w", err))
		return
	}

	writeResponse(appendLine(cfg.File, formatLine(time.Now(), req, r)))
}

func formatLine(now time.Time, req Request, r result) string {
	line := fmt.Sprintf("%s session=%s event=%s", now.Format(time.RFC3339), req.Session, req.Event)
	if req.Event != "rep_completed" {
		return line
	}
	line += fmt.Sprintf(" rep=%d leg=%s", r.RepCount, r.DominantLeg)
	if r.CosineScore != nil {
		line += fmt.Sprintf(" score=%d", *r.CosineScore)
	}
	return line
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
