// Package ring provides a fixed-capacity ring buffer that overwrites its
// oldest entries once full.
package ring

// Ring holds at most Cap entries in insertion order. It is not safe for
// concurrent use.
type Ring[T any] struct {
	entries []T
	start   int
	count   int
}

// New creates a ring with room for size entries. Sizes below one are
// raised to one.
func New[T any](size int) *Ring[T] {
	if size <= 0 {
		size = 1
	}
	return &Ring[T]{
		entries: make([]T, size),
	}
}

// Add appends entry, evicting the oldest entry when the ring is full.
func (r *Ring[T]) Add(entry T) {
	if r == nil || len(r.entries) == 0 {
		return
	}

	if r.count < len(r.entries) {
		r.entries[(r.start+r.count)%len(r.entries)] = entry
		r.count++
		return
	}

	r.entries[r.start] = entry
	r.start = (r.start + 1) % len(r.entries)
}

func (r *Ring[T]) Len() int {
	if r == nil {
		return 0
	}
	return r.count
}

func (r *Ring[T]) Cap() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// List returns every entry, oldest first.
func (r *Ring[T]) List() []T {
	return r.Tail(r.Len())
}

// Tail returns up to n of the newest entries, oldest first. A non-positive
// n returns nil.
func (r *Ring[T]) Tail(n int) []T {
	if r == nil || r.count == 0 || n <= 0 {
		return nil
	}
	n = min(n, r.count)

	out := make([]T, n)
	skip := r.count - n
	for i := range n {
		out[i] = r.entries[(r.start+skip+i)%len(r.entries)]
	}
	return out
}

// Resize changes the capacity, keeping the newest entries that still fit.
func (r *Ring[T]) Resize(size int) {
	if r == nil {
		return
	}
	if size <= 0 {
		size = 1
	}
	if size == len(r.entries) {
		return
	}

	kept := r.Tail(size)
	r.entries = make([]T, size)
	copy(r.entries, kept)
	r.start = 0
	r.count = len(kept)
}
