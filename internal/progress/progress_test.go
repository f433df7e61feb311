package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseHip  = 10.0
	baseKnee = 20.0
)

// step returns hip and knee angles at fraction f of the calibrated swing.
func step(f float64) (float64, float64) {
	return baseHip + 55*f, baseKnee + 90*f
}

func TestMachine_FullRepCountsOnce(t *testing.T) {
	m := New(DefaultConfig())

	var last Update
	for i := 0; i <= 10; i++ {
		last = m.Observe(step(float64(i) / 10))
		if i < 10 {
			require.False(t, last.Completed, "completed early at step %d", i)
		}
	}

	assert.True(t, last.Completed)
	assert.Equal(t, 1, last.RepCount)
	assert.InDelta(t, 1, last.Current, 0.009)
	assert.Equal(t, 1.0, last.Live)
	assert.Equal(t, Completing, last.State)

	// Internal state resets after the completing frame.
	assert.Equal(t, 0.0, m.Current())
	assert.Equal(t, AtRest, m.State())
	hip, knee := m.Baseline()
	assert.True(t, math.IsInf(hip, 1))
	assert.True(t, math.IsInf(knee, 1))
}

func TestMachine_ArmsAtThreshold(t *testing.T) {
	m := New(DefaultConfig())

	m.Observe(step(0))
	u := m.Observe(step(0.3))
	assert.Equal(t, 0.3, u.Live)
	assert.Equal(t, 0.0, u.Current, "gauge must not move before arming")
	assert.Equal(t, AtRest, u.State)

	u = m.Observe(step(0.4))
	assert.Equal(t, 0.4, u.Current)
	assert.Equal(t, InProgress, u.State)
}

func TestMachine_Ratchet(t *testing.T) {
	m := New(DefaultConfig())

	m.Observe(step(0))
	m.Observe(step(0.6))
	u := m.Observe(step(0.2))

	assert.Equal(t, 0.2, u.Live)
	assert.Equal(t, 0.6, u.Current, "gauge never moves down mid-rep")

	u = m.Observe(step(0.7))
	assert.Equal(t, 0.7, u.Current)
}

func TestMachine_SubThresholdWobbleNeverCounts(t *testing.T) {
	m := New(DefaultConfig())

	for i := 0; i < 50; i++ {
		f := 0.3 * math.Abs(math.Sin(float64(i)/3))
		u := m.Observe(step(f))
		require.Equal(t, 0.0, u.Current)
		require.Equal(t, 0, u.RepCount)
	}
}

func TestMachine_LiveUsesBaselineSinceLastRep(t *testing.T) {
	m := New(DefaultConfig())

	for i := 0; i <= 10; i++ {
		m.Observe(step(float64(i) / 10))
	}
	require.Equal(t, 1, m.RepCount())

	// The first frame after a rep becomes the new baseline.
	u := m.Observe(step(1))
	assert.Equal(t, 0.0, u.Live)

	// Coming back down keeps lowering the baseline.
	u = m.Observe(step(0.5))
	assert.Equal(t, 0.0, u.Live)

	// A second full swing from the new floor counts again.
	for i := 6; i <= 15; i++ {
		u = m.Observe(step(float64(i) / 10))
	}
	assert.True(t, u.Completed)
	assert.Equal(t, 2, u.RepCount)
}

func TestMachine_HipAndKneeAveraged(t *testing.T) {
	m := New(DefaultConfig())
	m.Observe(baseHip, baseKnee)

	// Full hip swing, no knee movement.
	u := m.Observe(baseHip+55, baseKnee)
	assert.Equal(t, 0.5, u.Live)

	// Beyond the calibration range is clipped.
	u = m.Observe(baseHip+200, baseKnee+45)
	assert.Equal(t, 0.75, u.Live)
}

func TestMachine_Reset(t *testing.T) {
	m := New(DefaultConfig())
	for i := 0; i <= 10; i++ {
		m.Observe(step(float64(i) / 10))
	}
	m.Observe(step(0))
	m.Observe(step(0.5))

	m.Reset()
	assert.Equal(t, 0, m.RepCount())
	assert.Equal(t, 0.0, m.Current())
	assert.Equal(t, 0.0, m.Live())
	assert.Equal(t, AtRest, m.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "in_progress", InProgress.String())
	assert.Equal(t, "unknown", State(7).String())
}
