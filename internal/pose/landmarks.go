// Package pose holds the body landmark model consumed by the scorer and decodes it
// from the pose-estimation transport.
package pose

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/lungescore/internal/geometry"
)

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	LeftShoulder  = 11
	RightShoulder = 12
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
	NumLandmarks  = 33
)

// KeypointIndices maps the scorer's keypoint order onto MediaPipe landmark indices.
var KeypointIndices = [geometry.NumKeypoints]int{
	geometry.LeftShoulder:  LeftShoulder,
	geometry.LeftHip:       LeftHip,
	geometry.LeftKnee:      LeftKnee,
	geometry.LeftAnkle:     LeftAnkle,
	geometry.RightShoulder: RightShoulder,
	geometry.RightHip:      RightHip,
	geometry.RightKnee:     RightKnee,
	geometry.RightAnkle:    RightAnkle,
}

var (
	// ErrNoPerson is returned for a frame with an empty landmark list.
	ErrNoPerson = errors.New("pose: no person in frame")

	// ErrIncompleteLandmarks is returned when the landmark list is too short to hold every keypoint.
	ErrIncompleteLandmarks = errors.New("pose: incomplete landmark list")

	// ErrLowVisibility is returned when a keypoint's reported visibility is below the threshold.
	ErrLowVisibility = errors.New("pose: keypoint not visible")
)

// Landmark is one body landmark. Visibility is nil when the producer does not report it.
type Landmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// Vec returns the landmark position.
func (l Landmark) Vec() r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

// Visible reports whether the landmark's visibility exceeds min. Landmarks without a
// reported visibility always count as visible.
func (l Landmark) Visible(min float64) bool {
	return l.Visibility == nil || *l.Visibility > min
}

// Frame is one timestep of pose output for at most one person.
type Frame struct {
	Landmarks []Landmark `json:"landmarks"`
	Timestamp int64      `json:"timestamp,omitempty"` // milliseconds
}

// Empty reports whether the frame carries no person.
func (f Frame) Empty() bool {
	return len(f.Landmarks) == 0
}

// Keypoints extracts the eight keypoints the scorer needs. Every keypoint must be
// present and, where visibility is reported, more visible than minVisibility.
func (f Frame) Keypoints(minVisibility float64) ([geometry.NumKeypoints]r3.Vec, error) {
	var kp [geometry.NumKeypoints]r3.Vec

	if f.Empty() {
		return kp, ErrNoPerson
	}

	for i, idx := range KeypointIndices {
		if idx >= len(f.Landmarks) {
			return kp, fmt.Errorf("%w: %d landmarks, need index %d", ErrIncompleteLandmarks, len(f.Landmarks), idx)
		}
		l := f.Landmarks[idx]
		if !l.Visible(minVisibility) {
			return kp, fmt.Errorf("%w: landmark %d visibility %.2f", ErrLowVisibility, idx, *l.Visibility)
		}
		kp[i] = l.Vec()
	}

	return kp, nil
}

// FrameFromKeypoints builds a full-size frame with the eight keypoints at their
// MediaPipe indices and every other landmark at the origin.
func FrameFromKeypoints(kp [geometry.NumKeypoints]r3.Vec) Frame {
	landmarks := make([]Landmark, NumLandmarks)
	for i, idx := range KeypointIndices {
		landmarks[idx] = Landmark{X: kp[i].X, Y: kp[i].Y, Z: kp[i].Z}
	}
	return Frame{Landmarks: landmarks}
}
