// Package ringqueue provides a growable FIFO ring buffer.
//
// Queue keeps its elements in a circular slice addressed by a start offset and
// a count: logical index i lives in physical slot (start+i) mod capacity. When
// full, the capacity doubles; if the content wraps past the old end, only the
// shorter of the two contiguous segments is moved so the order is preserved
// with the fewest copies.
//
// A Queue is not safe for concurrent use. Callers provide their own locking.
package ringqueue

import (
	"github.com/ajitpratap0/unitpool/pkg/errors"
)

// ErrCapacityExceeded is returned when the queue cannot grow any further.
var ErrCapacityExceeded = errors.Kind(errors.ErrorTypeCapacity, "ring queue capacity exceeded")

// Queue is a resizable circular buffer.
type Queue[T any] struct {
	buf   []T
	start int
	count int
	limit int // 0 = unlimited
}

// New creates an empty queue with room for initialCapacity elements.
func New[T any](initialCapacity int) *Queue[T] {
	return NewWithLimit[T](initialCapacity, 0)
}

// NewWithLimit creates a queue that refuses to grow beyond limit elements.
// A limit of 0 means unlimited.
func NewWithLimit[T any](initialCapacity, limit int) *Queue[T] {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	if limit > 0 && initialCapacity > limit {
		initialCapacity = limit
	}
	return &Queue[T]{
		buf:   make([]T, initialCapacity),
		limit: limit,
	}
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int { return q.count }

// Cap returns the current storage capacity.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// Push appends v at the back, growing the buffer when full.
func (q *Queue[T]) Push(v T) error {
	if q.count == len(q.buf) {
		if err := q.grow(); err != nil {
			return err
		}
	}
	q.buf[q.slot(q.count)] = v
	q.count++
	return nil
}

// Reserve grows the buffer until n more elements fit without reallocation.
func (q *Queue[T]) Reserve(n int) error {
	if n <= 0 {
		return nil
	}
	need := q.count + n
	if q.limit > 0 && need > q.limit {
		return errors.Wrap(ErrCapacityExceeded, errors.ErrorTypeCapacity, "reserve exceeds queue limit").
			WithDetail("requested", need).
			WithDetail("limit", q.limit)
	}
	for len(q.buf) < need {
		if err := q.grow(); err != nil {
			return err
		}
	}
	return nil
}

// PopFront removes and returns the oldest element.
func (q *Queue[T]) PopFront() (T, bool) {
	var zero T
	if q.count == 0 {
		return zero, false
	}
	v := q.buf[q.start]
	q.buf[q.start] = zero
	q.start++
	if q.start == len(q.buf) {
		q.start = 0
	}
	q.count--
	return v, true
}

// ValueAt returns the element at logical index i.
func (q *Queue[T]) ValueAt(i int) (T, bool) {
	var zero T
	if i < 0 || i >= q.count {
		return zero, false
	}
	return q.buf[q.slot(i)], true
}

// Front returns the oldest element without removing it.
func (q *Queue[T]) Front() (T, bool) {
	return q.ValueAt(0)
}

// Back returns the newest element without removing it.
func (q *Queue[T]) Back() (T, bool) {
	return q.ValueAt(q.count - 1)
}

// Clear empties the queue but keeps its storage.
func (q *Queue[T]) Clear() {
	clear(q.buf)
	q.start = 0
	q.count = 0
}

// Destroy hands every element to fn in FIFO order and releases the storage.
func (q *Queue[T]) Destroy(fn func(T)) {
	if fn != nil {
		for i := 0; i < q.count; i++ {
			fn(q.buf[q.slot(i)])
		}
	}
	q.buf = nil
	q.start = 0
	q.count = 0
}

func (q *Queue[T]) slot(i int) int {
	s := q.start + i
	if s >= len(q.buf) {
		s -= len(q.buf)
	}
	return s
}

// grow doubles the capacity. The old contents are copied to the same physical
// offsets first; a wrapped tail [0, end) or head [start, oldCap) is then moved
// into the new space, whichever is shorter.
func (q *Queue[T]) grow() error {
	oldCap := len(q.buf)
	newCap := oldCap * 2
	if newCap == 0 {
		newCap = 1
	}
	if q.limit > 0 && newCap > q.limit {
		if oldCap >= q.limit {
			return errors.Wrap(ErrCapacityExceeded, errors.ErrorTypeCapacity, "ring queue is at its limit").
				WithDetail("limit", q.limit)
		}
		newCap = q.limit
	}

	buf := make([]T, newCap)
	copy(buf, q.buf)

	if q.start+q.count > oldCap {
		head := oldCap - q.start
		tail := q.count - head
		var zero T
		if tail <= head && oldCap+tail <= newCap {
			// Append the wrapped tail right after the head segment.
			copy(buf[oldCap:], buf[:tail])
			for i := 0; i < tail; i++ {
				buf[i] = zero
			}
		} else {
			// Move the head segment to the end of the new buffer.
			newStart := newCap - head
			copy(buf[newStart:], buf[q.start:oldCap])
			for i := q.start; i < newStart && i < oldCap; i++ {
				buf[i] = zero
			}
			q.start = newStart
		}
	}

	q.buf = buf
	return nil
}
