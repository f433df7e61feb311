package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/lungescore/internal/pose"
)

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(DefaultConfig())

	s, err := m.Create(m.Defaults())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []string{s.ID()}, m.IDs())

	r, err := m.Update(s.ID(), pose.StandingFrame())
	require.NoError(t, err)
	assert.False(t, r.HumanPresent)

	last, err := m.Last(s.ID())
	require.NoError(t, err)
	assert.Equal(t, r, last)

	cfg, err := m.Config(s.ID())
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Frequency)

	require.NoError(t, m.Reset(s.ID()))
	require.NoError(t, m.Delete(s.ID()))
	assert.Equal(t, 0, m.Len())
}

func TestManager_NotFound(t *testing.T) {
	m := NewManager(DefaultConfig())

	_, err := m.Update("missing", pose.Frame{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Last("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Reset("missing"), ErrNotFound)
	assert.ErrorIs(t, m.Delete("missing"), ErrNotFound)
}

func TestManager_CreateRejectsInvalidConfig(t *testing.T) {
	m := NewManager(DefaultConfig())
	cfg := m.Defaults()
	cfg.Frequency = 0

	_, err := m.Create(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Equal(t, 0, m.Len())
}

func TestManager_ConcurrentSessions(t *testing.T) {
	m := NewManager(DefaultConfig())

	const sessions = 8
	ids := make([]string, sessions)
	for i := range ids {
		s, err := m.Create(m.Defaults())
		require.NoError(t, err)
		ids[i] = s.ID()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 24; i++ {
				m.Update(id, pose.StandingFrame())
			}
			for k := 0; k < 13; k++ {
				m.Update(id, lungeFrame(k))
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		r, err := m.Last(id)
		require.NoError(t, err)
		assert.Equal(t, 1, r.RepCount, id)
	}
}
