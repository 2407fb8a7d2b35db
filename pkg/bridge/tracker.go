package bridge

import (
	"slices"
	"sync"
)

// Tracker records which nodes changed since the last flush. Membership is
// by identity; the snapshot keeps first-marked order.
type Tracker struct {
	mu    sync.Mutex
	dirty []Node
	set   map[Node]struct{}

	// OnNeedsFlush is called when a node becomes dirty in a clean tracker,
	// signalling the embedder that a flush should be scheduled.
	OnNeedsFlush func()
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{set: make(map[Node]struct{})}
}

// MarkDirty adds n. Marking an already dirty node is a no-op. It reports
// whether n was added.
func (t *Tracker) MarkDirty(n Node) bool {
	if n == nil {
		return false
	}
	added, wasEmpty := func() (bool, bool) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.set[n]; ok {
			return false, false
		}
		if t.set == nil {
			t.set = make(map[Node]struct{})
		}
		empty := len(t.dirty) == 0
		t.set[n] = struct{}{}
		t.dirty = append(t.dirty, n)
		return true, empty
	}()

	if added && wasEmpty && t.OnNeedsFlush != nil {
		t.OnNeedsFlush()
	}
	return added
}

// ClearDirty removes n if present.
func (t *Tracker) ClearDirty(n Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.set[n]; !ok {
		return
	}
	delete(t.set, n)
	t.dirty = slices.DeleteFunc(t.dirty, func(d Node) bool { return d == n })
}

// ClearAll empties the tracker.
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	t.dirty = nil
	clear(t.set)
	t.mu.Unlock()
}

// IsDirty reports whether n is currently marked.
func (t *Tracker) IsDirty(n Node) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.set[n]
	return ok
}

// Len returns the number of dirty nodes.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dirty)
}

// Snapshot returns the dirty nodes without clearing them.
func (t *Tracker) Snapshot() []Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.dirty)
}

// SnapshotAndClear takes the dirty set and empties it in one step. Nodes
// marked after the call land in the next snapshot.
func (t *Tracker) SnapshotAndClear() []Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	dirty := t.dirty
	t.dirty = nil
	clear(t.set)
	return dirty
}
