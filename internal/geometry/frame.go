package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Keypoint order expected by FrameAnglesOf.
const (
	LeftShoulder = iota
	LeftHip
	LeftKnee
	LeftAnkle
	RightShoulder
	RightHip
	RightKnee
	RightAnkle
	NumKeypoints
)

// Joint identifies one of the four tracked joints. The value is its index in FrameAngles.
type Joint int

const (
	JointLeftHip Joint = iota
	JointLeftKnee
	JointRightHip
	JointRightKnee
)

// NumJoints is the number of tracked joints. It is untyped so it sizes arrays and
// compares against plain ints.
const NumJoints = 4

func (j Joint) String() string {
	switch j {
	case JointLeftHip:
		return "left hip"
	case JointLeftKnee:
		return "left knee"
	case JointRightHip:
		return "right hip"
	case JointRightKnee:
		return "right knee"
	}
	return "unknown joint"
}

// FrameAngles holds one frame's joint angles ordered left hip, left knee, right hip, right knee.
type FrameAngles [NumJoints]JointAngle

// Magnitudes returns the scalar angle of every joint.
func (f FrameAngles) Magnitudes() [NumJoints]float64 {
	var out [NumJoints]float64
	for i, a := range f {
		out[i] = float64(a.Magnitude)
	}
	return out
}

// FrameAnglesOf computes the four joint angles from eight keypoints ordered
// left shoulder, hip, knee, ankle, then right shoulder, hip, knee, ankle.
// The hip angle is body (shoulder to hip) against thigh; the knee angle is thigh against shin.
func FrameAnglesOf(kp [NumKeypoints]r3.Vec) (FrameAngles, error) {
	leftBody := r3.Sub(kp[LeftHip], kp[LeftShoulder])
	leftThigh := r3.Sub(kp[LeftKnee], kp[LeftHip])
	leftShin := r3.Sub(kp[LeftAnkle], kp[LeftKnee])
	rightBody := r3.Sub(kp[RightHip], kp[RightShoulder])
	rightThigh := r3.Sub(kp[RightKnee], kp[RightHip])
	rightShin := r3.Sub(kp[RightAnkle], kp[RightKnee])

	pairs := [NumJoints][2]r3.Vec{
		JointLeftHip:   {leftBody, leftThigh},
		JointLeftKnee:  {leftThigh, leftShin},
		JointRightHip:  {rightBody, rightThigh},
		JointRightKnee: {rightThigh, rightShin},
	}

	var out FrameAngles
	for j, p := range pairs {
		a, err := JointAngleOf(p[0], p[1])
		if err != nil {
			return FrameAngles{}, jointError(Joint(j), err)
		}
		out[j] = a
	}
	return out, nil
}
