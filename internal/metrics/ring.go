package metrics

// Ring is a fixed-capacity FIFO buffer. Once full, each Push evicts the
// oldest item. Ring is not safe for concurrent use; the Recorder serializes
// access to it.
type Ring[T any] struct {
	buf   []T
	head  int // oldest item
	count int

	// Stats
	totalPushed int64
	evicted     int64
}

// NewRing creates a ring holding at most capacity items.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		buf: make([]T, capacity),
	}
}

// Push appends an item, evicting the oldest one if the ring is full.
// Returns true if an item was evicted.
func (r *Ring[T]) Push(item T) bool {
	r.totalPushed++

	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = item
		r.count++
		return false
	}

	// Full: overwrite the oldest slot and advance head.
	r.buf[r.head] = item
	r.head = (r.head + 1) % len(r.buf)
	r.evicted++
	return true
}

// Items returns a copy of the retained items, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Each calls fn for every retained item, oldest first.
func (r *Ring[T]) Each(fn func(T)) {
	for i := 0; i < r.count; i++ {
		fn(r.buf[(r.head+i)%len(r.buf)])
	}
}

// Len returns the number of retained items.
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the maximum number of retained items.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Evicted returns how many items have aged out since creation or Reset.
func (r *Ring[T]) Evicted() int64 {
	return r.evicted
}

// TotalPushed returns how many items were pushed since creation or Reset.
func (r *Ring[T]) TotalPushed() int64 {
	return r.totalPushed
}

// Reset drops all items.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero // Clear references for GC
	}
	r.head = 0
	r.count = 0
	r.totalPushed = 0
	r.evicted = 0
}
