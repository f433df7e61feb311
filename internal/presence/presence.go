// Package presence debounces per-frame person detection into a stable present/absent flag.
package presence

import "github.com/ayusman/lungescore/internal/window"

// Detector latches presence over a sliding window of detection results.
//
// An absent detector becomes present only once the window is full and every frame
// in it detected a person. A present detector becomes absent only once no frame in
// the window detected a person. A single frame can therefore never flip the state
// while the older frames still agree with it.
type Detector struct {
	history *window.Ring[bool]
	present bool
}

// New creates a Detector over a window of size frames.
func New(size int) *Detector {
	return &Detector{history: window.New[bool](size)}
}

// Observe records whether the current frame contained a usable person and returns
// the (possibly unchanged) presence flag.
func (d *Detector) Observe(detected bool) bool {
	d.history.Push(detected)

	if !d.present {
		d.present = d.history.Full() && d.history.All(isTrue)
	} else {
		d.present = d.history.Any(isTrue)
	}
	return d.present
}

// Present returns the latched flag without observing a frame.
func (d *Detector) Present() bool {
	return d.present
}

// Reset clears the window and the latch.
func (d *Detector) Reset() {
	d.history.Reset()
	d.present = false
}

func isTrue(b bool) bool { return b }
