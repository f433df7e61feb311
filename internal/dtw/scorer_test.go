package dtw

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineReference(w int) []float64 {
	ref := make([]float64, w)
	for i := range ref {
		ref[i] = math.Sin(2 * math.Pi * float64(i) / float64(w-1))
	}
	return ref
}

// batchDistance is the textbook full-matrix DTW, used as an oracle for the incremental scorer.
func batchDistance(a, b []float64) float64 {
	n, m := len(a), len(b)
	d := make([][]float64, n+1)
	for i := range d {
		d[i] = make([]float64, m+1)
		for j := range d[i] {
			d[i][j] = math.Inf(1)
		}
	}
	d[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := math.Abs(a[i-1] - b[j-1])
			d[i][j] = cost + math.Min(d[i-1][j], math.Min(d[i][j-1], d[i-1][j-1]))
		}
	}
	return d[n][m]
}

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		ref  []float64
		w    int
	}{
		{"zero window", nil, 0},
		{"negative window", []float64{1}, -1},
		{"short reference", []float64{1, 2}, 3},
		{"long reference", []float64{1, 2, 3, 4}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.ref, tt.w)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestScorer_ExactReferenceScoresZero(t *testing.T) {
	const w = 24
	ref := sineReference(w)
	s, err := New(ref, w)
	require.NoError(t, err)

	for _, x := range ref {
		s.Update(x)
	}

	got, err := s.Similarity()
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	path, err := s.Path()
	require.NoError(t, err)
	require.Len(t, path, w)
	for i, c := range path {
		assert.Equal(t, i, c.Row)
		assert.Equal(t, w-1-i, c.Col)
	}
}

func TestScorer_InsufficientHistory(t *testing.T) {
	const w = 8
	s, err := New(sineReference(w), w)
	require.NoError(t, err)

	for i := 0; i < w-1; i++ {
		s.Update(0)
		_, err := s.Similarity()
		require.ErrorIs(t, err, ErrInsufficientHistory, "update %d", i+1)
		require.False(t, s.Ready())
	}

	s.Update(0)
	_, err = s.Similarity()
	assert.NoError(t, err)
	assert.True(t, s.Ready())
	assert.Equal(t, w, s.Updates())
}

func TestScorer_ConstantOffsetIsMonotonic(t *testing.T) {
	const w = 24
	ref := sineReference(w)

	prev := -1.0
	for _, offset := range []float64{100, 200, 400, 800} {
		s, err := New(ref, w)
		require.NoError(t, err)
		for i := 0; i < w; i++ {
			s.Update(offset)
		}

		got, err := s.Similarity()
		require.NoError(t, err)
		assert.Greater(t, got, prev, "offset %v", offset)
		prev = got
	}
}

func TestScorer_MatchesBatchDTWOnFirstWindow(t *testing.T) {
	const w = 16
	ref := sineReference(w)
	obs := make([]float64, w)
	for i := range obs {
		// Same shape, slower start and a small bias.
		obs[i] = 0.1 + math.Sin(2*math.Pi*math.Pow(float64(i)/float64(w-1), 1.4))
	}

	s, err := New(ref, w)
	require.NoError(t, err)
	for _, x := range obs {
		s.Update(x)
	}

	path, err := s.Path()
	require.NoError(t, err)
	assert.InDelta(t, batchDistance(obs, ref), path[0].Cost, 1e-9)
}

func TestScorer_CloserShapeScoresLower(t *testing.T) {
	const w = 24
	ref := sineReference(w)

	score := func(f func(float64) float64) float64 {
		s, err := New(ref, w)
		require.NoError(t, err)
		for _, x := range ref {
			s.Update(f(x))
		}
		got, err := s.Similarity()
		require.NoError(t, err)
		return got
	}

	near := score(func(x float64) float64 { return x + 0.1 })
	far := score(func(x float64) float64 { return x + 0.5 })
	assert.Less(t, near, far)
}

func TestScorer_KeepsRollingPastWindow(t *testing.T) {
	const w = 12
	ref := sineReference(w)
	s, err := New(ref, w)
	require.NoError(t, err)

	for k := 0; k < 5; k++ {
		for _, x := range ref {
			s.Update(x)
		}
		got, err := s.Similarity()
		require.NoError(t, err)
		assert.False(t, math.IsNaN(got))
		assert.False(t, math.IsInf(got, 0))
		assert.GreaterOrEqual(t, got, 0.0)
	}
	assert.Equal(t, 5*w, s.Updates())
}

func TestScorer_AccumulatesAcrossPeriods(t *testing.T) {
	const w = 24
	ref := sineReference(w)
	s, err := New(ref, w)
	require.NoError(t, err)

	var got []float64
	for k := 0; k < 6; k++ {
		for _, x := range ref {
			s.Update(x)
		}
		d, err := s.Similarity()
		require.NoError(t, err)
		got = append(got, d)
	}

	assert.InDelta(t, 0.0, got[0], 1e-12)
	for k := 1; k < len(got); k++ {
		assert.Greater(t, got[k], got[k-1], "period %d", k)
	}

	// Reset restores the first-window distance.
	s.Reset()
	for _, x := range ref {
		s.Update(x)
	}
	d, err := s.Similarity()
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d, 1e-12)
}

func TestScorer_Reset(t *testing.T) {
	const w = 4
	s, err := New([]float64{0, 1, 1, 0}, w)
	require.NoError(t, err)
	for i := 0; i < w; i++ {
		s.Update(3)
	}
	s.Reset()

	assert.Equal(t, 0, s.Updates())
	_, err = s.Similarity()
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	for _, x := range []float64{0, 1, 1, 0} {
		s.Update(x)
	}
	got, err := s.Similarity()
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestScorer_SingleSlotWindow(t *testing.T) {
	s, err := New([]float64{2}, 1)
	require.NoError(t, err)

	s.Update(5)
	got, err := s.Similarity()
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	s.Update(2)
	got, err = s.Similarity()
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}
