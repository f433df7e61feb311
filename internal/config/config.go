// Package config loads the service configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/lungescore/internal/geometry"
	"github.com/ayusman/lungescore/internal/reference"
	"github.com/ayusman/lungescore/internal/session"
)

// ExampleConfigPath is the checked-in example configuration.
const ExampleConfigPath = "config/lungescore.example.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the on-disk configuration. Every field is optional; omitted fields
// keep their defaults, so partial files are safe.
type Config struct {
	// Server params
	Listen *string `json:"listen,omitempty"`
	DBPath *string `json:"db_path,omitempty"`

	// HookDir holds event hooks run during replay and live capture.
	HookDir *string `json:"hook_dir,omitempty"`

	// Session params
	Frequency     *int     `json:"frequency,omitempty"`
	EnableDTW     *bool    `json:"enable_dtw,omitempty"`
	JointCount    *int     `json:"joint_count,omitempty"`
	MinVisibility *float64 `json:"min_visibility,omitempty"`

	// Progress calibration
	HipRange            *float64 `json:"hip_range,omitempty"`
	KneeRange           *float64 `json:"knee_range,omitempty"`
	ArmThreshold        *float64 `json:"arm_threshold,omitempty"`
	CompletionTolerance *float64 `json:"completion_tolerance,omitempty"`

	// Reference names a stored reference waveform to score against instead of
	// the generated lunge.
	Reference *string `json:"reference,omitempty"`

	// ReferenceRanges rescales the generated lunge, working leg first.
	ReferenceRanges []float64 `json:"reference_ranges,omitempty"`
}

// Load reads a Config from a JSON file and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set. Cross-field session checks happen in
// session.Config.Validate via SessionConfig.
func (c *Config) Validate() error {
	if c.Frequency != nil && (*c.Frequency <= 0 || *c.Frequency > session.MaxFrequency) {
		return fmt.Errorf("frequency must be in 1..%d, got %d", session.MaxFrequency, *c.Frequency)
	}
	if c.JointCount != nil && *c.JointCount != geometry.NumJoints {
		return fmt.Errorf("joint_count must be %d, got %d", geometry.NumJoints, *c.JointCount)
	}
	if c.MinVisibility != nil && (*c.MinVisibility < 0 || *c.MinVisibility >= 1) {
		return fmt.Errorf("min_visibility must be in [0, 1), got %f", *c.MinVisibility)
	}
	if c.ReferenceRanges != nil && len(c.ReferenceRanges) != geometry.NumJoints {
		return fmt.Errorf("reference_ranges needs %d values, got %d", geometry.NumJoints, len(c.ReferenceRanges))
	}
	if c.Reference != nil && c.ReferenceRanges != nil {
		return fmt.Errorf("reference and reference_ranges are mutually exclusive")
	}
	if _, err := c.SessionConfig(); err != nil {
		return err
	}
	return nil
}

// SessionConfig applies the file's overrides on top of session.DefaultConfig.
func (c *Config) SessionConfig() (session.Config, error) {
	sc := session.DefaultConfig()
	if c.Frequency != nil {
		sc.Frequency = *c.Frequency
	}
	if c.EnableDTW != nil {
		sc.EnableDTW = *c.EnableDTW
	}
	if c.JointCount != nil {
		sc.JointCount = *c.JointCount
	}
	if c.MinVisibility != nil {
		sc.MinVisibility = *c.MinVisibility
	}
	if c.HipRange != nil {
		sc.Progress.HipRange = *c.HipRange
	}
	if c.KneeRange != nil {
		sc.Progress.KneeRange = *c.KneeRange
	}
	if c.ArmThreshold != nil {
		sc.Progress.ArmThreshold = *c.ArmThreshold
	}
	if c.CompletionTolerance != nil {
		sc.Progress.CompletionTolerance = *c.CompletionTolerance
	}
	if len(c.ReferenceRanges) == geometry.NumJoints {
		var ranges [geometry.NumJoints]float64
		copy(ranges[:], c.ReferenceRanges)
		refs := reference.Lunge(sc.Frequency, ranges)
		sc.References = &refs
	}

	if err := sc.Validate(); err != nil {
		return session.Config{}, err
	}
	return sc, nil
}

// GetListen returns the listen address or the default.
func (c *Config) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return ":8080" // default
	}
	return *c.Listen
}

// GetDBPath returns the SQLite path or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "lungescore.db" // default
	}
	return *c.DBPath
}

// GetReference returns the stored reference name, or "" for the generated lunge.
func (c *Config) GetReference() string {
	if c.Reference == nil {
		return ""
	}
	return *c.Reference
}

// GetHookDir returns the hook directory, or "" when hooks are disabled.
func (c *Config) GetHookDir() string {
	if c.HookDir == nil {
		return ""
	}
	return *c.HookDir
}
