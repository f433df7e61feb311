// Package session composes the scoring components into one per-athlete frame pipeline.
package session

import (
	"errors"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/lungescore/internal/dtw"
	"github.com/ayusman/lungescore/internal/geometry"
	"github.com/ayusman/lungescore/internal/leg"
	"github.com/ayusman/lungescore/internal/pose"
	"github.com/ayusman/lungescore/internal/presence"
	"github.com/ayusman/lungescore/internal/progress"
	"github.com/ayusman/lungescore/internal/reference"
	"github.com/ayusman/lungescore/internal/similarity"
	"github.com/ayusman/lungescore/internal/window"
)

// Reasons a frame could not be scored.
const (
	ReasonNoPerson            = "no_person"
	ReasonLowVisibility       = "low_visibility"
	ReasonIncompleteLandmarks = "incomplete_landmarks"
	ReasonDegeneratePose      = "degenerate_pose"
	ReasonSingularRotation    = "singular_rotation"
)

// Result is the externally visible outcome of one frame.
type Result struct {
	HumanPresent    bool                  `json:"humanPresent"`
	Scorable        bool                  `json:"scorable"`
	Reason          string                `json:"reason,omitempty"`
	DominantLeg     leg.Leg               `json:"dominantLeg"`
	LegProvisional  bool                  `json:"legProvisional"`
	Angles          *geometry.FrameAngles `json:"angles,omitempty"`
	LiveProgress    float64               `json:"liveProgress"`
	CurrentProgress float64               `json:"currentProgress"`
	RepCount        int                   `json:"repCount"`
	RepCompleted    bool                  `json:"repCompleted"`

	// CosineScore is 0-100, higher is better. Nil until the history window is full.
	CosineScore *int `json:"cosineScore"`
	// DTWDistance is at least 0, lower is better. Nil until every scorer has W updates
	// or when DTW is disabled. The scorers accumulate over the whole session, so the
	// value is a true window distance only on the first window and grows with session
	// length. Do not compare it across reps.
	DTWDistance *float64 `json:"dtwDistance"`
}

// Session owns one instance of every scoring component. It is not safe for
// concurrent use; Manager serialises access for hosted sessions.
type Session struct {
	id  string
	cfg Config

	presence *presence.Detector
	legs     *leg.Tracker
	progress *progress.Machine
	scorers  [geometry.NumJoints]*dtw.Scorer
	history  *window.Ring[geometry.FrameAngles]

	reference []float64
	smoothing int

	// scratch buffers reused every frame
	hips, knees []float64
	observed    []float64

	last Result
}

// New validates cfg and builds a session with a fresh ID.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := cfg.Frequency
	refs := cfg.referenceSet()

	s := &Session{
		id:        uuid.New().String(),
		cfg:       cfg,
		presence:  presence.New(w),
		legs:      leg.New(w / 2),
		progress:  progress.New(cfg.Progress),
		history:   window.New[geometry.FrameAngles](w),
		reference: refs.Flat(),
		smoothing: max(1, w/4),
		observed:  make([]float64, 0, geometry.NumJoints*w),
	}
	s.hips = make([]float64, 0, s.smoothing)
	s.knees = make([]float64, 0, s.smoothing)

	if cfg.EnableDTW {
		for j := range s.scorers {
			sc, err := dtw.New(refs[j], w)
			if err != nil {
				return nil, errors.Join(ErrInvalidConfiguration, err)
			}
			s.scorers[j] = sc
		}
	}

	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Config returns the settings the session was built with.
func (s *Session) Config() Config {
	return s.cfg
}

// Last returns the result of the most recent frame.
func (s *Session) Last() Result {
	return s.last
}

// Reset returns every component to its initial state. The ID is kept.
func (s *Session) Reset() {
	s.presence.Reset()
	s.legs.Reset()
	s.progress.Reset()
	s.history.Reset()
	for _, sc := range s.scorers {
		if sc != nil {
			sc.Reset()
		}
	}
	s.last = Result{}
}

// Update processes one frame.
//
// Presence is fed whether the frame held a usable person. A frame whose keypoints
// are usable but whose geometry is degenerate leaves presence untouched. Only a
// present, scorable frame advances the leg, progress, and similarity components.
func (s *Session) Update(frame pose.Frame) Result {
	kp, kpErr := frame.Keypoints(s.cfg.MinVisibility)

	var angles geometry.FrameAngles
	var geomErr error
	if kpErr == nil {
		angles, geomErr = geometry.FrameAnglesOf(kp)
	}
	if geomErr == nil {
		s.presence.Observe(kpErr == nil)
	}

	switch {
	case !s.presence.Present():
		s.last = s.neutral(false, ReasonNoPerson)
	case kpErr != nil:
		s.last = s.neutral(true, keypointReason(kpErr))
	case geomErr != nil:
		s.last = s.neutral(true, geometryReason(geomErr))
	default:
		s.last = s.score(angles)
	}
	return s.last
}

func (s *Session) neutral(present bool, reason string) Result {
	l, err := s.legs.Dominant()
	return Result{
		HumanPresent:   present,
		Reason:         reason,
		DominantLeg:    l,
		LegProvisional: err != nil,
		RepCount:       s.progress.RepCount(),
	}
}

func (s *Session) score(angles geometry.FrameAngles) Result {
	s.legs.Observe(angles)
	dominant, legErr := s.legs.Dominant()
	s.history.Push(angles)
	joints := dominant.Joints()

	hip, knee := s.trailingMean(joints[0], joints[1])
	u := s.progress.Observe(hip, knee)

	r := Result{
		HumanPresent:    true,
		Scorable:        true,
		DominantLeg:     dominant,
		LegProvisional:  legErr != nil,
		Angles:          &angles,
		LiveProgress:    u.Live,
		CurrentProgress: u.Current,
		RepCount:        u.RepCount,
		RepCompleted:    u.Completed,
	}

	if s.cfg.EnableDTW {
		r.DTWDistance = s.dtwDistance(angles, joints)
	}
	if s.history.Full() {
		r.CosineScore = s.cosineScore(joints)
	}
	return r
}

// trailingMean averages the smoothing window's most recent hip and knee magnitudes.
func (s *Session) trailingMean(hipJoint, kneeJoint geometry.Joint) (hip, knee float64) {
	s.hips = s.hips[:0]
	s.knees = s.knees[:0]
	for _, a := range s.history.Tail(s.smoothing) {
		s.hips = append(s.hips, float64(a[hipJoint].Magnitude))
		s.knees = append(s.knees, float64(a[kneeJoint].Magnitude))
	}
	return stat.Mean(s.hips, nil), stat.Mean(s.knees, nil)
}

// dtwDistance feeds every scorer and returns their mean once all are ready.
func (s *Session) dtwDistance(angles geometry.FrameAngles, joints [geometry.NumJoints]geometry.Joint) *float64 {
	ready := true
	for i, sc := range s.scorers {
		sc.Update(float64(angles[joints[i]].Magnitude))
		ready = ready && sc.Ready()
	}
	if !ready {
		return nil
	}

	var total float64
	for _, sc := range s.scorers {
		d, err := sc.Similarity()
		if err != nil {
			return nil
		}
		total += d
	}
	mean := total / float64(len(s.scorers))
	if math.IsInf(mean, 0) || math.IsNaN(mean) {
		return nil
	}
	return &mean
}

// cosineScore compares the full history, joint by joint, with the reference.
func (s *Session) cosineScore(joints [geometry.NumJoints]geometry.Joint) *int {
	s.observed = s.observed[:0]
	for _, j := range joints {
		for i := 0; i < s.history.Len(); i++ {
			s.observed = append(s.observed, float64(s.history.At(i)[j].Magnitude))
		}
	}

	score, err := similarity.Cosine(s.observed, s.reference)
	if err != nil {
		return nil
	}
	return &score
}

func keypointReason(err error) string {
	switch {
	case errors.Is(err, pose.ErrLowVisibility):
		return ReasonLowVisibility
	case errors.Is(err, pose.ErrIncompleteLandmarks):
		return ReasonIncompleteLandmarks
	}
	return ReasonNoPerson
}

func geometryReason(err error) string {
	if errors.Is(err, geometry.ErrSingularRotation) {
		return ReasonSingularRotation
	}
	return ReasonDegeneratePose
}

// References returns the per-joint waveforms the session scores against, working leg first.
func (s *Session) References() reference.Set {
	return s.cfg.referenceSet()
}
