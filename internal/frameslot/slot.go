// Package frameslot implements the single-slot frame mailbox shared
// between the pipeline callback thread and the polling consumer.
//
// Semantics: overwrite on write (last-writer-wins, no queueing, no
// backpressure), take-or-peek on read with an invalidate flag. Neither
// side ever blocks on the other beyond the mutex hold for the swap.
package frameslot

import (
	"sync"
	"time"
)

// Frame is the payload stored in the slot.
//
// This mirrors the public Frame type one level up; the duplicate avoids an
// import cycle between the root package and its internals (same pattern as
// the callback-side frame struct in stream-capture).
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	Data      []byte
	TraceID   string
}

// Slot is a mutex-protected single-slot mailbox.
//
// The mutex covers the (dimensions, data) pair as one unit so a reader can
// never observe a half-written frame. Callers must keep normalization and
// I/O outside the lock; Write and Read only swap and copy.
type Slot struct {
	mu sync.Mutex

	// Last known dimensions. Retained after an invalidating read so the
	// consumer can keep sizing its target texture while waiting for the
	// next frame.
	width  int
	height int

	frame  *Frame // nil = consumed / nothing pending
	writes uint64
}

// New returns a Slot seeded with the target resolution, before any frame
// has arrived.
func New(width, height int) *Slot {
	return &Slot{width: width, height: height}
}

// Write unconditionally replaces any unread frame with f.
//
// Non-blocking apart from the mutex: a write never waits for a reader.
// The slot takes ownership of f.Data; callers must not modify it after
// Write returns.
func (s *Slot) Write(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.width = f.Width
	s.height = f.Height
	s.frame = &f
	s.writes++
}

// Read returns the pending frame, if any.
//
// With invalidate=true the slot is cleared (dimensions retained) and the
// stored buffer is handed off without copying: a subsequent Read before
// the next Write reports ok=false. With invalidate=false the frame stays
// pending and the returned Data is a copy, so repeated peeks are safe
// against a concurrent overwrite.
func (s *Slot) Read(invalidate bool) (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frame == nil {
		return Frame{}, false
	}

	f := *s.frame
	if invalidate {
		s.frame = nil
	} else {
		data := make([]byte, len(f.Data))
		copy(data, f.Data)
		f.Data = data
	}

	return f, true
}

// Dimensions returns the last known width and height, which survive an
// invalidating read.
func (s *Slot) Dimensions() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Writes reports how many frames have been written since creation.
func (s *Slot) Writes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
