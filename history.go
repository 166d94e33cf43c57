package darkroom

// DefaultHistoryDepth is the number of undo steps kept when none is given.
const DefaultHistoryDepth = 10

// History is a bounded undo/redo log of snapshots.
//
// The undo side is a fixed-capacity ring: once full, committing evicts the
// oldest entry. The redo side is an unbounded stack cleared by every
// commit. History is not safe for concurrent use.
type History struct {
	ring  []Snapshot // undo entries, oldest at head
	head  int
	count int

	redo    []Snapshot
	current Snapshot
}

// NewHistory creates a history keeping at most depth undo steps.
// A depth of zero or less selects DefaultHistoryDepth.
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &History{ring: make([]Snapshot, depth)}
}

// Init clears both stacks and makes s current.
func (h *History) Init(s Snapshot) {
	clear(h.ring)
	h.head, h.count = 0, 0
	h.redo = h.redo[:0]
	h.current = s
}

// Commit records s as the new current state. Committing a snapshot equal
// to the current one does nothing.
func (h *History) Commit(s Snapshot) {
	if s == h.current {
		return
	}
	h.pushUndo(h.current)
	h.current = s
	h.redo = h.redo[:0]
}

// Undo steps back one entry and returns the new current snapshot.
// It reports false and changes nothing when there is nothing to undo.
func (h *History) Undo() (Snapshot, bool) {
	s, ok := h.popUndo()
	if !ok {
		return Snapshot{}, false
	}
	h.redo = append(h.redo, h.current)
	h.current = s
	return s, true
}

// Redo re-applies the most recently undone snapshot.
// It reports false and changes nothing when there is nothing to redo.
func (h *History) Redo() (Snapshot, bool) {
	n := len(h.redo)
	if n == 0 {
		return Snapshot{}, false
	}
	s := h.redo[n-1]
	h.redo = h.redo[:n-1]
	h.pushUndo(h.current)
	h.current = s
	return s, true
}

// Current returns the current snapshot.
func (h *History) Current() Snapshot { return h.current }

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return h.count > 0 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoLen returns the number of reachable undo steps.
func (h *History) UndoLen() int { return h.count }

// RedoLen returns the number of reachable redo steps.
func (h *History) RedoLen() int { return len(h.redo) }

// Depth returns the undo capacity.
func (h *History) Depth() int { return len(h.ring) }

func (h *History) pushUndo(s Snapshot) {
	capacity := len(h.ring)
	if h.count == capacity {
		// Overwrite the oldest entry.
		h.ring[h.head] = s
		h.head = (h.head + 1) % capacity
		return
	}
	h.ring[(h.head+h.count)%capacity] = s
	h.count++
}

func (h *History) popUndo() (Snapshot, bool) {
	if h.count == 0 {
		return Snapshot{}, false
	}
	h.count--
	i := (h.head + h.count) % len(h.ring)
	s := h.ring[i]
	h.ring[i] = Snapshot{}
	return s, true
}
