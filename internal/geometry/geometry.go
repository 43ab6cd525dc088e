// Package geometry tracks attached displays via xdg_output, computes
// the global pointer space, and detects disconnected layouts (§4.2).
package geometry

import "fmt"

// MaxOutputs bounds the fixed-capacity output collection (§3, §9).
const MaxOutputs = 128

// Rect is an output geometry record in global compositor coordinates.
type Rect struct {
	X, Y, Width, Height int32
}

// NonZero reports whether any of the four fields is nonzero, the
// promotion condition for pending -> confirmed (§4.2): only an
// all-zero rectangle is treated as empty, so an output placed at the
// origin is still confirmed.
func (r Rect) NonZero() bool {
	return r.X != 0 || r.Y != 0 || r.Width != 0 || r.Height != 0
}

// Contains reports whether (x, y) lies within the rectangle.
func (r Rect) Contains(x, y int32) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// expanded returns the rectangle grown by 1px in every direction, used
// by the adjacency test in the flood-fill connectivity check.
func (r Rect) expanded() Rect {
	return Rect{X: r.X - 1, Y: r.Y - 1, Width: r.Width + 2, Height: r.Height + 2}
}

// overlaps reports whether two rectangles share any area.
func overlaps(a, b Rect) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width &&
		a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

// adjacent reports whether two output rectangles touch or overlap:
// expand a by 1px in every direction and test for overlap with b.
func adjacent(a, b Rect) bool {
	return overlaps(a.expanded(), b)
}

// outputSlot holds one output's pending and confirmed geometry.
type outputSlot struct {
	inUse     bool
	pending   Rect
	confirmed Rect
	hasConfirmed bool
	name      string
}

// Model owns the fixed-capacity collection of output slots and the
// derived global pointer space.
type Model struct {
	slots [MaxOutputs]outputSlot
	Space Space
}

// Space is the global pointer space: the bounding box of all confirmed
// output rectangles.
type Space struct {
	OriginX, OriginY int32
	Width, Height    int32
}

// New returns an empty geometry model.
func New() *Model {
	return &Model{}
}

// Attach reserves a slot for a newly hotplugged output and returns its
// index. Returns an error if the collection is at capacity.
func (m *Model) Attach(name string) (int, error) {
	for i := range m.slots {
		if !m.slots[i].inUse {
			m.slots[i] = outputSlot{inUse: true, name: name}
			return i, nil
		}
	}
	return 0, fmt.Errorf("geometry: at output capacity (%d)", MaxOutputs)
}

// Detach tears down a slot on hotplug-out and recomputes the global
// space.
func (m *Model) Detach(idx int) {
	if idx < 0 || idx >= MaxOutputs {
		return
	}
	m.slots[idx] = outputSlot{}
	m.Recompute()
}

// StagePending records a logical_position/logical_size update into the
// pending slot; it is not visible to global-space computation until
// Confirm is called on a compositor "done" signal.
func (m *Model) StagePending(idx int, r Rect) error {
	if idx < 0 || idx >= MaxOutputs || !m.slots[idx].inUse {
		return fmt.Errorf("geometry: stage on unknown output slot %d", idx)
	}
	m.slots[idx].pending = r
	return nil
}

// Confirm promotes the pending geometry to confirmed on a "done"
// signal, unless the pending geometry is all zero (§4.2); an all-zero
// update is discarded silently (Recoverable tier, §7). It returns
// Recompute's error when the new layout has a gap.
func (m *Model) Confirm(idx int) error {
	if idx < 0 || idx >= MaxOutputs || !m.slots[idx].inUse {
		return fmt.Errorf("geometry: confirm on unknown output slot %d", idx)
	}
	if !m.slots[idx].pending.NonZero() {
		return nil
	}
	m.slots[idx].confirmed = m.slots[idx].pending
	m.slots[idx].hasConfirmed = true
	return m.Recompute()
}

// Confirmed returns the confirmed rectangle for slot idx and whether
// one exists.
func (m *Model) Confirmed(idx int) (Rect, bool) {
	if idx < 0 || idx >= MaxOutputs || !m.slots[idx].inUse {
		return Rect{}, false
	}
	return m.slots[idx].confirmed, m.slots[idx].hasConfirmed
}

// confirmedIndices returns the slot indices with a confirmed geometry.
func (m *Model) confirmedIndices() []int {
	var out []int
	for i := range m.slots {
		if m.slots[i].inUse && m.slots[i].hasConfirmed {
			out = append(out, i)
		}
	}
	return out
}

// Recompute rebuilds the global pointer space from confirmed outputs
// and verifies the single-connectivity-component invariant via a
// flood-fill over the touches-or-overlaps adjacency graph. Returns an
// error if the layout has a gap — the caller must treat this as fatal
// (§4.2: "kloak cannot guarantee the path algorithm").
func (m *Model) Recompute() error {
	idxs := m.confirmedIndices()
	if len(idxs) == 0 {
		m.Space = Space{}
		return nil
	}

	first := m.slots[idxs[0]].confirmed
	minX, minY := first.X, first.Y
	maxX, maxY := first.X+first.Width, first.Y+first.Height
	for _, i := range idxs[1:] {
		r := m.slots[i].confirmed
		if r.X < minX {
			minX = r.X
		}
		if r.Y < minY {
			minY = r.Y
		}
		if r.X+r.Width > maxX {
			maxX = r.X + r.Width
		}
		if r.Y+r.Height > maxY {
			maxY = r.Y + r.Height
		}
	}
	m.Space = Space{OriginX: minX, OriginY: minY, Width: maxX - minX, Height: maxY - minY}

	reached := floodFill(idxs, func(i int) Rect { return m.slots[i].confirmed })
	if reached != len(idxs) {
		return fmt.Errorf("geometry: output layout has a gap (%d of %d outputs reachable)", reached, len(idxs))
	}
	return nil
}

// floodFill returns the number of indices reachable from idxs[0] under
// the adjacent() relation.
func floodFill(idxs []int, rectOf func(int) Rect) int {
	visited := make(map[int]bool, len(idxs))
	stack := []int{idxs[0]}
	visited[idxs[0]] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, other := range idxs {
			if visited[other] {
				continue
			}
			if adjacent(rectOf(cur), rectOf(other)) {
				visited[other] = true
				stack = append(stack, other)
			}
		}
	}
	return len(visited)
}

// AbsToLocal converts a global-space point to (outputIdx, localX,
// localY, valid) by linear scan of confirmed outputs. valid is false
// when the point lies in a void.
func (m *Model) AbsToLocal(x, y int32) (idx int, localX, localY int32, valid bool) {
	for i := range m.slots {
		if !m.slots[i].inUse || !m.slots[i].hasConfirmed {
			continue
		}
		r := m.slots[i].confirmed
		if r.Contains(x, y) {
			return i, x - r.X, y - r.Y, true
		}
	}
	return 0, 0, 0, false
}

// LocalToAbs converts a local point on output idx to global-space
// coordinates.
func (m *Model) LocalToAbs(x, y int32, idx int) (int32, int32, error) {
	r, ok := m.Confirmed(idx)
	if !ok {
		return 0, 0, fmt.Errorf("geometry: local_to_abs on unconfirmed output %d", idx)
	}
	return r.X + x, r.Y + y, nil
}
