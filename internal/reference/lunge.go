// Package reference builds the target angle waveforms a session is scored against.
package reference

import (
	"math"

	"github.com/ayusman/lungescore/internal/geometry"
)

// DefaultRanges are the per-joint swings of one lunge in degrees, working leg first:
// working hip, working knee, trailing hip, trailing knee.
var DefaultRanges = [geometry.NumJoints]float64{55, 90, 55, 90}

// Set is one reference waveform per joint, working leg first.
type Set [geometry.NumJoints][]float64

// Len returns the common series length, or -1 when the joints disagree.
func (s Set) Len() int {
	n := len(s[0])
	for _, series := range s[1:] {
		if len(series) != n {
			return -1
		}
	}
	return n
}

// Flat returns the joints' series concatenated joint by joint.
func (s Set) Flat() []float64 {
	out := make([]float64, 0, len(s)*len(s[0]))
	for _, series := range s {
		out = append(out, series...)
	}
	return out
}

// Lunge returns one period of a raised-cosine curve per joint, rising from 0 to the
// joint's range at the midpoint and back to 0, sampled at w points.
func Lunge(w int, ranges [geometry.NumJoints]float64) Set {
	var set Set
	for j, amp := range ranges {
		series := make([]float64, w)
		for i := range series {
			series[i] = amp * RaisedCosine(i, w)
		}
		set[j] = series
	}
	return set
}

// RaisedCosine is the unit bump (1 - cos(2*pi*t)) / 2 at sample i of w, t = i/(w-1).
func RaisedCosine(i, w int) float64 {
	if w < 2 {
		return 0
	}
	t := float64(i) / float64(w-1)
	return (1 - math.Cos(2*math.Pi*t)) / 2
}
