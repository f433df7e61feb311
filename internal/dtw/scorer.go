// Package dtw scores a live angle stream against a fixed reference waveform with
// Dynamic Time Warping, maintained incrementally one frame at a time.
//
// The cost matrix is a sliding window of W rows against the W reference positions.
// Row 0 is always the newest frame. Each update computes only that newest row, so
// the cost per frame is O(W) rather than recomputing the O(W^2) matrix. The
// trade-off is that the warp path can only be reconstructed starting from the
// newest row.
//
// Column 0 accumulates from the first update onward, so accumulated costs carry the
// whole stream's history. Similarity is an exact DTW distance only for the first W
// updates after New or Reset; later values grow with stream length and are only
// comparable between streams of equal length.
package dtw

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfiguration is returned by New for a non-positive window or a
	// reference whose length differs from the window.
	ErrInvalidConfiguration = errors.New("dtw: invalid configuration")

	// ErrInsufficientHistory is returned while fewer than W updates have been fed.
	ErrInsufficientHistory = errors.New("dtw: fewer updates than window size")
)

// Step is a backpointer: the relative (row, column) offset of the predecessor cell.
type Step struct {
	Row int8
	Col int8
}

// Predecessor offsets. Rows grow toward older frames, columns toward later reference positions.
var (
	StepDiagonal = Step{Row: 1, Col: -1}
	StepLeft     = Step{Row: 0, Col: -1}
	StepBelow    = Step{Row: 1, Col: 0}
)

// relaxOrder is the candidate order for columns 1..W-1. Earlier entries win ties.
var relaxOrder = [3]Step{StepDiagonal, StepLeft, StepBelow}

// Cell is one position on a reconstructed warp path.
type Cell struct {
	Row  int     `json:"row"`
	Col  int     `json:"col"`
	Cost float64 `json:"cost"`
}

// Scorer holds the rolling DTW state for one joint.
type Scorer struct {
	reference []float64
	w         int

	// cost is a ring of W rows; head is the physical index of logical row 0.
	cost [][]float64
	// back is a flat W*W buffer of backpointers laid out like cost.
	back    []Step
	head    int
	updates int
}

// New creates a Scorer for the given reference. The reference is copied.
func New(reference []float64, w int) (*Scorer, error) {
	if w <= 0 {
		return nil, fmt.Errorf("%w: window size %d", ErrInvalidConfiguration, w)
	}
	if len(reference) != w {
		return nil, fmt.Errorf("%w: reference length %d, window size %d", ErrInvalidConfiguration, len(reference), w)
	}

	s := &Scorer{
		reference: append([]float64(nil), reference...),
		w:         w,
		cost:      make([][]float64, w),
		back:      make([]Step, w*w),
	}
	for i := range s.cost {
		s.cost[i] = make([]float64, w)
	}
	s.Reset()
	return s, nil
}

// Reset restores every cell to the sentinel cost and forgets all updates.
func (s *Scorer) Reset() {
	for _, row := range s.cost {
		for j := range row {
			row[j] = math.Inf(1)
		}
	}
	for i := range s.back {
		s.back[i] = Step{}
	}
	s.head = 0
	s.updates = 0
}

// Update inserts the newest observation as row 0 and relaxes it against the row below.
func (s *Scorer) Update(x float64) {
	// Evict the oldest row by moving head onto it.
	s.head = (s.head - 1 + s.w) % s.w
	row := s.cost[s.head]
	for j, r := range s.reference {
		row[j] = math.Abs(r - x)
	}

	// The first frame aligns to the reference start at zero accumulated cost.
	below := 0.0
	if s.updates > 0 && s.w > 1 {
		below = s.at(1, 0)
	}
	row[0] += below
	s.setStep(0, 0, StepBelow)

	for j := 1; j < s.w; j++ {
		best := relaxOrder[0]
		bestCost := s.at(int(best.Row), j+int(best.Col))
		for _, st := range relaxOrder[1:] {
			if c := s.at(int(st.Row), j+int(st.Col)); c < bestCost {
				best, bestCost = st, c
			}
		}
		row[j] += bestCost
		s.setStep(0, j, best)
	}

	s.updates++
}

// Similarity returns the mean accumulated cost along the warp path ending at the
// newest frame and the last reference position. Lower is more similar.
func (s *Scorer) Similarity() (float64, error) {
	path, err := s.Path()
	if err != nil {
		return 0, err
	}

	var total float64
	for _, c := range path {
		total += c.Cost
	}
	return total / float64(len(path)), nil
}

// Path reconstructs the warp path from (row 0, column W-1), following backpointers
// until the walk leaves the window.
func (s *Scorer) Path() ([]Cell, error) {
	if !s.Ready() {
		return nil, fmt.Errorf("%w: %d of %d", ErrInsufficientHistory, s.updates, s.w)
	}

	var path []Cell
	i, j := 0, s.w-1
	for i < s.w && j >= 0 {
		path = append(path, Cell{Row: i, Col: j, Cost: s.at(i, j)})
		st := s.step(i, j)
		i += int(st.Row)
		j += int(st.Col)
	}
	return path, nil
}

// Ready reports whether W updates have been fed, making Similarity reliable.
func (s *Scorer) Ready() bool {
	return s.updates >= s.w
}

// Updates returns the number of observations fed since construction or Reset.
func (s *Scorer) Updates() int {
	return s.updates
}

// at returns the accumulated cost at logical (row, col).
func (s *Scorer) at(row, col int) float64 {
	return s.cost[s.physical(row)][col]
}

func (s *Scorer) step(row, col int) Step {
	return s.back[s.physical(row)*s.w+col]
}

func (s *Scorer) setStep(row, col int, st Step) {
	s.back[s.physical(row)*s.w+col] = st
}

func (s *Scorer) physical(row int) int {
	return (s.head + row) % s.w
}
