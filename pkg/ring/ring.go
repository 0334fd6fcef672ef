// Package ring provides a generic, thread-safe bounded FIFO ring used
// for sensor history retention. When the ring is full, appending evicts
// the oldest entry (drop-oldest is the only policy: history retention
// must never block a simulation tick, and the newest reading is always
// the one worth keeping).
package ring

import "sync"

// Ring is a fixed-capacity FIFO of items of type T.
type Ring[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // oldest entry
}

// New creates a ring with the given capacity. Capacity below 1 is
// treated as 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Append adds an item, evicting the oldest entry when full.
func (r *Ring[T]) Append(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity

	if r.size == r.capacity {
		r.tail = (r.tail + 1) % r.capacity
	} else {
		r.size++
	}
}

// Snapshot returns a copy of the contents in insertion order, oldest
// first. The returned slice is owned by the caller.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.tail+i)%r.capacity]
	}
	return out
}

// Len returns the current number of entries.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap returns the maximum number of entries.
func (r *Ring[T]) Cap() int {
	return r.capacity
}
