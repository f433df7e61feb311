// Package geometry converts body keypoints into joint angle descriptors.
//
// The rotation between two adjacent body segments is built with the Rodrigues
// formula and decomposed into XYZ Euler angles. The Euclidean norm of the three
// Euler components is the single "angle" used by the rest of the scorer.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrDegenerateInput is returned when a segment vector has zero length.
	ErrDegenerateInput = errors.New("geometry: zero-length segment")

	// ErrSingularRotation is returned when two segments are parallel or anti-parallel,
	// leaving the rotation axis undefined.
	ErrSingularRotation = errors.New("geometry: parallel segments have no rotation axis")
)

const (
	// lengthEpsilon is the smallest segment length treated as non-zero.
	lengthEpsilon = 1e-9
	// axisEpsilon is the smallest cross-product norm treated as a usable axis.
	axisEpsilon = 1e-9
	// gimbalEpsilon is how close |R20| may get to 1 before the degenerate formula is used.
	gimbalEpsilon = 1e-9
)

// JointAngle is the decomposed rotation between two segments, in whole degrees.
type JointAngle struct {
	Roll      int `json:"roll"`
	Pitch     int `json:"pitch"`
	Yaw       int `json:"yaw"`
	Magnitude int `json:"magnitude"`
}

// JointAngleOf returns the joint angle of the rotation taking segment a onto segment b.
func JointAngleOf(a, b r3.Vec) (JointAngle, error) {
	r, err := RotationMatrix(a, b)
	if err != nil {
		return JointAngle{}, err
	}

	roll, pitch, yaw := DecomposeXYZ(r)
	norm := math.Sqrt(roll*roll + pitch*pitch + yaw*yaw)

	return JointAngle{
		Roll:      int(roll),
		Pitch:     int(pitch),
		Yaw:       int(yaw),
		Magnitude: int(norm),
	}, nil
}

// RotationMatrix builds the 3x3 rotation mapping the direction of a onto the direction of b:
//
//	R = I + [v]x + [v]x^2 * (1-c)/s^2
//
// where v = a x b (unit inputs), s = |v| and c = a . b.
func RotationMatrix(a, b r3.Vec) (*mat.Dense, error) {
	if r3.Norm(a) < lengthEpsilon || r3.Norm(b) < lengthEpsilon {
		return nil, ErrDegenerateInput
	}

	ua := r3.Unit(a)
	ub := r3.Unit(b)

	v := r3.Cross(ua, ub)
	s := r3.Norm(v)
	c := r3.Dot(ua, ub)
	if s < axisEpsilon {
		return nil, ErrSingularRotation
	}

	vx := mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})

	var vx2 mat.Dense
	vx2.Mul(vx, vx)
	vx2.Scale((1-c)/(s*s), &vx2)

	r := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	r.Add(r, vx)
	r.Add(r, &vx2)

	return r, nil
}

// DecomposeXYZ splits a rotation matrix into roll, pitch and yaw in degrees.
// When |R20| reaches 1 (gimbal lock) roll is pinned to zero and yaw is taken
// from the remaining upper-left block.
func DecomposeXYZ(r mat.Matrix) (roll, pitch, yaw float64) {
	r20 := clamp(r.At(2, 0), -1, 1)
	pitch = -math.Asin(r20)

	if math.Abs(r20) < 1-gimbalEpsilon {
		yaw = math.Atan2(r.At(1, 0), r.At(0, 0))
		roll = math.Atan2(r.At(2, 1), r.At(2, 2))
	} else {
		yaw = math.Atan2(-r.At(0, 1), r.At(1, 1))
		roll = 0
	}

	return degrees(roll), degrees(pitch), degrees(yaw)
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// jointError annotates a geometry error with the joint that produced it.
func jointError(j Joint, err error) error {
	return fmt.Errorf("%s: %w", j, err)
}
