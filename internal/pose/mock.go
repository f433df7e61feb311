package pose

import (
	"io"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/lungescore/internal/geometry"
)

// MockSource is a test implementation of Source that replays a fixed list of frames.
type MockSource struct {
	frames []Frame
	pos    int
	err    error
	closed bool
}

// NewMockSource creates a MockSource over frames.
func NewMockSource(frames ...Frame) *MockSource {
	return &MockSource{frames: frames}
}

// SetError makes every subsequent Next return err.
func (m *MockSource) SetError(err error) {
	m.err = err
}

// Next returns the next preset frame, then io.EOF.
func (m *MockSource) Next() (Frame, error) {
	if m.err != nil {
		return Frame{}, m.err
	}
	if m.pos >= len(m.frames) {
		return Frame{}, io.EOF
	}
	f := m.frames[m.pos]
	m.pos++
	return f, nil
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	return m.closed
}

// BodyFrame returns a frame of a side-on figure whose hip and knee angles are the
// given values in degrees. Both legs hang from shoulders 0.2 apart in the XY plane
// with every keypoint fully visible.
func BodyFrame(leftHip, leftKnee, rightHip, rightKnee float64) Frame {
	var kp [geometry.NumKeypoints]r3.Vec
	l := legChain(r3.Vec{X: 0.4, Y: 0.2}, leftHip, leftKnee)
	r := legChain(r3.Vec{X: 0.6, Y: 0.2}, rightHip, rightKnee)
	copy(kp[geometry.LeftShoulder:geometry.LeftAnkle+1], l[:])
	copy(kp[geometry.RightShoulder:geometry.RightAnkle+1], r[:])

	f := FrameFromKeypoints(kp)
	for _, idx := range KeypointIndices {
		v := 0.99
		f.Landmarks[idx].Visibility = &v
	}
	return f
}

// StandingFrame returns a frame of a person standing with a slight bend in every joint.
func StandingFrame() Frame {
	return BodyFrame(10.5, 10.5, 10.5, 10.5)
}

// legChain lays out shoulder, hip, knee and ankle. Angles are measured from straight
// down, which is +Y in image coordinates.
func legChain(shoulder r3.Vec, hipDeg, kneeDeg float64) [4]r3.Vec {
	hip := r3.Add(shoulder, r3.Scale(0.25, down(0)))
	knee := r3.Add(hip, r3.Scale(0.22, down(hipDeg)))
	ankle := r3.Add(knee, r3.Scale(0.2, down(hipDeg+kneeDeg)))
	return [4]r3.Vec{shoulder, hip, knee, ankle}
}

func down(deg float64) r3.Vec {
	rad := deg * math.Pi / 180
	return r3.Vec{X: math.Sin(rad), Y: math.Cos(rad)}
}
