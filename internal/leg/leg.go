// Package leg tracks which leg is doing the work from a short window of joint angles.
package leg

import (
	"errors"
	"fmt"

	"github.com/ayusman/lungescore/internal/geometry"
	"github.com/ayusman/lungescore/internal/window"
)

// ErrInsufficientHistory is returned by Dominant until the window has filled.
// The leg returned with it is provisional.
var ErrInsufficientHistory = errors.New("leg: window not yet full")

// Leg is a body side.
type Leg int

const (
	Left Leg = iota
	Right
)

func (l Leg) String() string {
	if l == Right {
		return "right"
	}
	return "left"
}

// MarshalText encodes the leg as "left" or "right".
func (l Leg) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes "left" or "right".
func (l *Leg) UnmarshalText(text []byte) error {
	switch string(text) {
	case "left":
		*l = Left
	case "right":
		*l = Right
	default:
		return fmt.Errorf("leg: unknown side %q", text)
	}
	return nil
}

// Joints returns the FrameAngles indices of this leg's hip and knee followed by the
// other leg's hip and knee.
func (l Leg) Joints() [geometry.NumJoints]geometry.Joint {
	if l == Right {
		return [geometry.NumJoints]geometry.Joint{
			geometry.JointRightHip, geometry.JointRightKnee,
			geometry.JointLeftHip, geometry.JointLeftKnee,
		}
	}
	return [geometry.NumJoints]geometry.Joint{
		geometry.JointLeftHip, geometry.JointLeftKnee,
		geometry.JointRightHip, geometry.JointRightKnee,
	}
}

// Tracker votes on the working leg over a sliding window of per-frame labels.
type Tracker struct {
	labels *window.Ring[Leg]
}

// New creates a Tracker holding size labels.
func New(size int) *Tracker {
	return &Tracker{labels: window.New[Leg](size)}
}

// Observe labels the frame with the side of its largest joint angle and returns the
// majority label over the window.
func (t *Tracker) Observe(angles geometry.FrameAngles) Leg {
	t.labels.Push(Label(angles))
	return t.majority()
}

// Dominant returns the current majority. Before the window fills, the vote is
// returned together with ErrInsufficientHistory.
func (t *Tracker) Dominant() (Leg, error) {
	l := t.majority()
	if !t.labels.Full() {
		return l, ErrInsufficientHistory
	}
	return l, nil
}

// Ready reports whether the window has filled.
func (t *Tracker) Ready() bool {
	return t.labels.Full()
}

// Reset clears the window.
func (t *Tracker) Reset() {
	t.labels.Reset()
}

// Label returns the side owning the largest joint magnitude in the frame.
// Equal magnitudes resolve to the lowest joint index.
func Label(angles geometry.FrameAngles) Leg {
	best := 0
	for i := 1; i < len(angles); i++ {
		if angles[i].Magnitude > angles[best].Magnitude {
			best = i
		}
	}
	return Leg(best / 2)
}

// majority counts labels oldest first. A tie goes to the label seen first in that scan.
func (t *Tracker) majority() Leg {
	var counts [2]int
	first := Leg(-1)
	for i := 0; i < t.labels.Len(); i++ {
		l := t.labels.At(i)
		if first < 0 {
			first = l
		}
		counts[l]++
	}
	if first < 0 {
		return Left
	}

	other := 1 - first
	if counts[other] > counts[first] {
		return other
	}
	return first
}
