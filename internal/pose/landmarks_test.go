package pose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/lungescore/internal/geometry"
)

func TestFrame_Keypoints(t *testing.T) {
	f := StandingFrame()

	kp, err := f.Keypoints(0.5)
	require.NoError(t, err)

	for i, idx := range KeypointIndices {
		assert.Equal(t, f.Landmarks[idx].Vec(), kp[i])
	}
	assert.Less(t, kp[geometry.LeftShoulder].Y, kp[geometry.LeftHip].Y, "image Y grows downward")
}

func TestFrame_KeypointsErrors(t *testing.T) {
	low := 0.5
	tests := []struct {
		name   string
		mutate func(*Frame)
		want   error
	}{
		{"empty", func(f *Frame) { f.Landmarks = nil }, ErrNoPerson},
		{"truncated", func(f *Frame) { f.Landmarks = f.Landmarks[:RightKnee] }, ErrIncompleteLandmarks},
		{"visibility at threshold", func(f *Frame) { f.Landmarks[LeftKnee].Visibility = &low }, ErrLowVisibility},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := StandingFrame()
			tt.mutate(&f)
			_, err := f.Keypoints(0.5)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLandmark_VisibleWithoutScore(t *testing.T) {
	assert.True(t, Landmark{}.Visible(0.5))

	v := 0.51
	assert.True(t, Landmark{Visibility: &v}.Visible(0.5))
}

func TestBodyFrame_Angles(t *testing.T) {
	kp, err := BodyFrame(30.5, 60.5, 10.5, 20.5).Keypoints(0.5)
	require.NoError(t, err)

	angles, err := geometry.FrameAnglesOf(kp)
	require.NoError(t, err)
	assert.Equal(t, [geometry.NumJoints]float64{30, 60, 10, 20}, angles.Magnitudes())
}
