// Package progress tracks how far through one repetition the athlete is.
package progress

import (
	"math"
)

// State is the phase of the current repetition.
type State int

const (
	// AtRest means progress is zero and the gauge has not been armed.
	AtRest State = iota
	// InProgress means the gauge is armed and ratcheting upward.
	InProgress
	// Completing means the gauge reached one on this frame and a rep was counted.
	Completing
)

func (s State) String() string {
	switch s {
	case AtRest:
		return "at_rest"
	case InProgress:
		return "in_progress"
	case Completing:
		return "completing"
	}
	return "unknown"
}

// Config holds the calibration of the state machine.
type Config struct {
	// HipRange is the hip swing in degrees that counts as a full rep.
	HipRange float64 `json:"hipRange"`
	// KneeRange is the knee swing in degrees that counts as a full rep.
	KneeRange float64 `json:"kneeRange"`
	// ArmThreshold is the live progress that arms the gauge from rest.
	ArmThreshold float64 `json:"armThreshold"`
	// CompletionTolerance is how close to 1 the gauge must get to count a rep.
	CompletionTolerance float64 `json:"completionTolerance"`
}

// DefaultConfig returns the lunge calibration.
func DefaultConfig() Config {
	return Config{
		HipRange:            55,
		KneeRange:           90,
		ArmThreshold:        0.35,
		CompletionTolerance: 0.009,
	}
}

// Update is the machine's output for one frame.
type Update struct {
	Live      float64 `json:"liveProgress"`
	Current   float64 `json:"currentProgress"`
	RepCount  int     `json:"repCount"`
	Completed bool    `json:"repCompleted"`
	State     State   `json:"-"`
}

// Machine is a hysteresis gauge over the working leg's hip and knee angles.
//
// Live progress is measured against the smallest hip and knee angles seen since
// the last rep. The gauge only starts following it after live progress first
// reaches the arm threshold from rest, and afterwards never moves down until
// the rep completes.
type Machine struct {
	cfg      Config
	minHip   float64
	minKnee  float64
	live     float64
	current  float64
	armed    bool
	repCount int
}

// New creates a Machine at rest.
func New(cfg Config) *Machine {
	m := &Machine{cfg: cfg}
	m.Reset()
	return m
}

// Observe feeds one frame's smoothed hip and knee angles.
func (m *Machine) Observe(hip, knee float64) Update {
	m.minHip = math.Min(m.minHip, hip)
	m.minKnee = math.Min(m.minKnee, knee)

	hipProgress := clip01((hip - m.minHip) / m.cfg.HipRange)
	kneeProgress := clip01((knee - m.minKnee) / m.cfg.KneeRange)
	m.live = round2((hipProgress + kneeProgress) / 2)

	if !m.armed && m.current == 0 && m.live >= m.cfg.ArmThreshold {
		m.armed = true
	}
	if m.armed && m.live > m.current {
		m.current = m.live
	}

	u := Update{
		Live:     m.live,
		Current:  m.current,
		RepCount: m.repCount,
		State:    m.State(),
	}

	if m.armed && math.Abs(m.current-1) < m.cfg.CompletionTolerance {
		m.repCount++
		u.RepCount = m.repCount
		u.Completed = true
		u.State = Completing
		m.rearm()
	}

	return u
}

// State returns the phase the machine is in between frames.
func (m *Machine) State() State {
	if m.armed {
		return InProgress
	}
	return AtRest
}

// Live returns the last live progress.
func (m *Machine) Live() float64 { return m.live }

// Current returns the ratcheted progress of the rep under way.
func (m *Machine) Current() float64 { return m.current }

// RepCount returns the number of completed reps.
func (m *Machine) RepCount() int { return m.repCount }

// Baseline returns the minimum hip and knee angles seen since the last rep.
// Both are +Inf right after a rep or reset.
func (m *Machine) Baseline() (hip, knee float64) {
	return m.minHip, m.minKnee
}

// Reset returns the machine to rest and clears the rep count.
func (m *Machine) Reset() {
	m.repCount = 0
	m.live = 0
	m.rearm()
}

func (m *Machine) rearm() {
	m.current = 0
	m.armed = false
	m.minHip = math.Inf(1)
	m.minKnee = math.Inf(1)
}

func clip01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
