// Package similarity scores an observed angle history against a reference with cosine similarity.
package similarity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrLengthMismatch is returned when the observed and reference vectors differ in length.
	ErrLengthMismatch = errors.New("similarity: length mismatch")

	// ErrZeroVector is returned when either vector has no magnitude.
	ErrZeroVector = errors.New("similarity: zero vector")
)

// Cosine returns the cosine similarity of observed and reference as a whole
// percentage in [0, 100]. Higher is more similar; anti-correlated input scores 0.
func Cosine(observed, reference []float64) (int, error) {
	if len(observed) != len(reference) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(observed), len(reference))
	}

	no := floats.Norm(observed, 2)
	nr := floats.Norm(reference, 2)
	if no == 0 || nr == 0 {
		return 0, ErrZeroVector
	}

	cos := floats.Dot(observed, reference) / (no * nr)
	score := math.Round(cos * 100)
	return int(math.Max(0, math.Min(100, score))), nil
}
