package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLunge_Shape(t *testing.T) {
	const w = 25
	set := Lunge(w, DefaultRanges)

	assert.Equal(t, w, set.Len())
	for j, series := range set {
		assert.InDelta(t, 0, series[0], 1e-9, "joint %d starts at rest", j)
		assert.InDelta(t, DefaultRanges[j], series[w/2], 1e-9, "joint %d peaks mid-rep", j)
		assert.InDelta(t, 0, series[w-1], 1e-9, "joint %d ends at rest", j)
	}
}

func TestSet_Len(t *testing.T) {
	var s Set
	s[0] = []float64{1, 2}
	s[1] = []float64{1, 2}
	s[2] = []float64{1, 2}
	s[3] = []float64{1}
	assert.Equal(t, -1, s.Len())

	s[3] = []float64{3, 4}
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []float64{1, 2, 1, 2, 1, 2, 3, 4}, s.Flat())
}

func TestRaisedCosine_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, RaisedCosine(0, 1))
}
