// Package record keeps the per-run branch and argument logs and writes the
// CSV dumps (labels, branches, function arguments) consumed by the search
// tooling.
package record

import "sync/atomic"

// Log is a fixed-capacity append-only log. Appends are lock-free: the slot
// index comes from an atomic counter and each slot is written by exactly one
// goroutine.
type Log[T any] struct {
	next atomic.Uint64
	recs []T
}

// NewLog preallocates a log of the given capacity.
func NewLog[T any](capacity int) *Log[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Log[T]{recs: make([]T, capacity)}
}

// Append stores rec. It reports false when the log is full; the record is
// dropped and the caller decides whether that is fatal.
func (l *Log[T]) Append(rec T) bool {
	idx := l.next.Add(1) - 1
	if idx >= uint64(len(l.recs)) {
		return false
	}
	l.recs[idx] = rec
	return true
}

// Len returns the number of stored records.
func (l *Log[T]) Len() int {
	n := l.next.Load()
	if n > uint64(len(l.recs)) {
		n = uint64(len(l.recs))
	}
	return int(n)
}

// Cap returns the capacity of the log.
func (l *Log[T]) Cap() int {
	return len(l.recs)
}

// Records returns the stored records. The slice aliases the log and is only
// valid until the next Reset.
func (l *Log[T]) Records() []T {
	return l.recs[:l.Len()]
}

// Reset empties the log.
func (l *Log[T]) Reset() {
	clear(l.recs)
	l.next.Store(0)
}
