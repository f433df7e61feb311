package pose

import (
	"encoding/json"
	"fmt"
)

// Envelope is the pose landmarker result bundle as delivered by the transport:
//
//	{"results": [{"landmarks": [[{"x": 0.5, "y": 0.2, "z": -0.1, "visibility": 0.99}, ...]]}]}
//
// Each result's landmarks may be a list of poses (lists of landmarks) or a single
// flat landmark list.
type Envelope struct {
	Results   []EnvelopeResult `json:"results"`
	Timestamp int64            `json:"timestamp,omitempty"`
}

// EnvelopeResult is one landmarker result.
type EnvelopeResult struct {
	Landmarks json.RawMessage `json:"landmarks"`
}

// poses decodes the result's landmarks in either accepted shape.
func (r EnvelopeResult) poses() ([][]Landmark, error) {
	if len(r.Landmarks) == 0 || string(r.Landmarks) == "null" {
		return nil, nil
	}

	var nested [][]Landmark
	if err := json.Unmarshal(r.Landmarks, &nested); err == nil {
		return nested, nil
	}

	var flat []Landmark
	if err := json.Unmarshal(r.Landmarks, &flat); err != nil {
		return nil, fmt.Errorf("parse landmarks: %w", err)
	}
	if len(flat) == 0 {
		return nil, nil
	}
	return [][]Landmark{flat}, nil
}

// Frame returns the first person of the first result. A missing result or an empty
// landmark list yields an empty frame, which means "no person".
func (e Envelope) Frame() (Frame, error) {
	f := Frame{Timestamp: e.Timestamp}
	if len(e.Results) == 0 {
		return f, nil
	}

	poses, err := e.Results[0].poses()
	if err != nil {
		return Frame{}, err
	}
	if len(poses) > 0 {
		f.Landmarks = poses[0]
	}
	return f, nil
}

// DecodeFrame parses one JSON envelope into a frame.
func DecodeFrame(data []byte) (Frame, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Frame{}, fmt.Errorf("parse envelope: %w", err)
	}
	return e.Frame()
}

// EncodeFrame wraps a frame in an envelope with a single result.
func EncodeFrame(f Frame) ([]byte, error) {
	landmarks, err := json.Marshal([][]Landmark{f.Landmarks})
	if err != nil {
		return nil, err
	}
	if f.Empty() {
		landmarks = []byte("[]")
	}
	return json.Marshal(Envelope{
		Results:   []EnvelopeResult{{Landmarks: landmarks}},
		Timestamp: f.Timestamp,
	})
}
