package board

import (
	"github.com/google/uuid"
)

// DefaultDepth holds the baseline plus ten undoable steps.
const DefaultDepth = 11

// Snapshot is one full-frame copy of the surface.
type Snapshot struct {
	ID  uuid.UUID
	Seq uint64
	Pix []byte
}

// History is a bounded FIFO of snapshots. The newest entry always mirrors
// the committed surface and the oldest retained entry is never popped.
type History struct {
	entries  []Snapshot
	capacity int
}

// NewHistory returns an empty history holding at most capacity snapshots.
// Capacities below 2 fall back to DefaultDepth, since a single slot would
// leave nothing to undo to.
func NewHistory(capacity int) *History {
	if capacity < 2 {
		capacity = DefaultDepth
	}
	return &History{
		entries:  make([]Snapshot, 0, capacity),
		capacity: capacity,
	}
}

// Push appends s, evicting the oldest entry when full. It reports whether
// an entry was evicted.
func (h *History) Push(s Snapshot) bool {
	evicted := false
	if len(h.entries) == h.capacity {
		h.entries[0] = Snapshot{}
		h.entries = append(h.entries[:0], h.entries[1:]...)
		evicted = true
	}
	h.entries = append(h.entries, s)
	return evicted
}

// Undo drops the newest entry and returns the one beneath it. At the floor
// (one entry or none) it changes nothing and returns false.
func (h *History) Undo() (Snapshot, bool) {
	if len(h.entries) <= 1 {
		return Snapshot{}, false
	}
	last := len(h.entries) - 1
	h.entries[last] = Snapshot{}
	h.entries = h.entries[:last]
	return h.entries[last-1], true
}

// Top returns the newest entry.
func (h *History) Top() (Snapshot, bool) {
	if len(h.entries) == 0 {
		return Snapshot{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// At returns the i-th entry, oldest first.
func (h *History) At(i int) Snapshot {
	return h.entries[i]
}

func (h *History) Len() int { return len(h.entries) }
func (h *History) Cap() int { return h.capacity }
