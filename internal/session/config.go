package session

import (
	"errors"
	"fmt"

	"github.com/ayusman/lungescore/internal/geometry"
	"github.com/ayusman/lungescore/internal/progress"
	"github.com/ayusman/lungescore/internal/reference"
)

// ErrInvalidConfiguration is returned by New and Config.Validate for unusable settings.
var ErrInvalidConfiguration = errors.New("session: invalid configuration")

// MaxFrequency bounds the window size. Each DTW scorer holds W*W cells, so the
// window must stay small enough for many concurrent sessions.
const MaxFrequency = 512

// Config holds the settings fixed at session construction.
type Config struct {
	// Frequency is the window size W in frames, about one motion cycle (default: 24).
	Frequency int `json:"frequency"`

	// EnableDTW turns on the per-joint DTW scorers.
	EnableDTW bool `json:"enableDtw"`

	// JointCount must be 4 for the lunge.
	JointCount int `json:"jointCount"`

	// MinVisibility is the visibility a keypoint must exceed to count as detected.
	MinVisibility float64 `json:"minVisibility"`

	// Progress is the rep gauge calibration.
	Progress progress.Config `json:"progress"`

	// References overrides the generated lunge waveforms. Each series must have
	// Frequency samples, working leg first.
	References *reference.Set `json:"references,omitempty"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Frequency:     24,
		EnableDTW:     true,
		JointCount:    geometry.NumJoints,
		MinVisibility: 0.5,
		Progress:      progress.DefaultConfig(),
	}
}

// Validate checks the settings without building anything.
func (c Config) Validate() error {
	if c.Frequency <= 0 {
		return fmt.Errorf("%w: frequency %d must be positive", ErrInvalidConfiguration, c.Frequency)
	}
	if c.Frequency > MaxFrequency {
		return fmt.Errorf("%w: frequency %d exceeds %d", ErrInvalidConfiguration, c.Frequency, MaxFrequency)
	}
	if c.JointCount != geometry.NumJoints {
		return fmt.Errorf("%w: joint count %d, the lunge tracks %d", ErrInvalidConfiguration, c.JointCount, geometry.NumJoints)
	}
	if c.MinVisibility < 0 || c.MinVisibility >= 1 {
		return fmt.Errorf("%w: min visibility %v outside [0, 1)", ErrInvalidConfiguration, c.MinVisibility)
	}
	if c.Progress.HipRange <= 0 || c.Progress.KneeRange <= 0 {
		return fmt.Errorf("%w: hip and knee ranges must be positive", ErrInvalidConfiguration)
	}
	if c.Progress.ArmThreshold <= 0 || c.Progress.ArmThreshold > 1 {
		return fmt.Errorf("%w: arm threshold %v outside (0, 1]", ErrInvalidConfiguration, c.Progress.ArmThreshold)
	}
	if c.Progress.CompletionTolerance <= 0 {
		return fmt.Errorf("%w: completion tolerance must be positive", ErrInvalidConfiguration)
	}
	if c.References != nil {
		if n := c.References.Len(); n != c.Frequency {
			return fmt.Errorf("%w: reference length %d, frequency %d", ErrInvalidConfiguration, n, c.Frequency)
		}
	}
	return nil
}

// referenceSet returns the configured references or the generated lunge.
func (c Config) referenceSet() reference.Set {
	if c.References != nil {
		return *c.References
	}
	return reference.Lunge(c.Frequency, reference.DefaultRanges)
}
