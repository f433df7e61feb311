// Package window provides the fixed-capacity sliding history used by the scoring components.
package window

// Ring is a fixed-capacity FIFO buffer. Pushing into a full ring evicts the oldest element.
// The backing array is allocated once at construction.
type Ring[T any] struct {
	data []T
	pos  int // next write position
	full bool
}

// New creates a Ring with the given capacity. Capacities below 1 are raised to 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Push appends v, evicting the oldest element once the ring is full.
func (r *Ring[T]) Push(v T) {
	r.data[r.pos] = v
	r.pos++
	if r.pos == len(r.data) {
		r.pos = 0
		r.full = true
	}
}

// Len returns the number of elements currently held.
func (r *Ring[T]) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.pos
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Full reports whether the ring holds Cap elements.
func (r *Ring[T]) Full() bool {
	return r.full
}

// At returns the i-th element in insertion order, 0 being the oldest.
// It panics if i is out of range, like a slice index.
func (r *Ring[T]) At(i int) T {
	n := r.Len()
	if i < 0 || i >= n {
		panic("window: index out of range")
	}
	if !r.full {
		return r.data[i]
	}
	return r.data[(r.pos+i)%len(r.data)]
}

// Tail returns up to n of the most recent elements, oldest first.
func (r *Ring[T]) Tail(n int) []T {
	l := r.Len()
	if n > l {
		n = l
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(l - n + i)
	}
	return out
}

// All reports whether every held element satisfies pred. An empty ring yields true.
func (r *Ring[T]) All(pred func(T) bool) bool {
	for i := 0; i < r.Len(); i++ {
		if !pred(r.At(i)) {
			return false
		}
	}
	return true
}

// Any reports whether at least one held element satisfies pred.
func (r *Ring[T]) Any(pred func(T) bool) bool {
	for i := 0; i < r.Len(); i++ {
		if pred(r.At(i)) {
			return true
		}
	}
	return false
}

// Reset empties the ring without releasing its storage.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.pos = 0
	r.full = false
}
