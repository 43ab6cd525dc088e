// Package shmbuf manages the memfd-backed shared-memory frame buffers
// the overlay cursor draws into and attaches to a wl_surface. Grounded
// on the memfd/mmap sequence in createSolidColorBuffer (the
// tuxx-fancylock reference Wayland locker): MemfdCreate, Ftruncate,
// then Mmap with MAP_SHARED. Unlike that one-shot buffer, the overlay
// redraws every frame the cursor moves, so each output gets a small
// ring of buffers cycling through Free -> InFlight -> Returned rather
// than a single persistent allocation.
package shmbuf

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// State tracks one buffer slot's lifecycle: Free slots are available to
// draw into, InFlight slots have been attached and committed to the
// compositor and must not be touched until it releases them, Returned
// slots have been released by the compositor (via wl_buffer.release)
// but not yet reclaimed as Free.
type State int

const (
	Free State = iota
	InFlight
	Returned
)

// Slot is one buffer in the ring: its backing memory and lifecycle
// state. Pix is ARGB8888, stride = Width*4.
type Slot struct {
	Pix    []byte
	Width  int32
	Height int32
	Stride int32
	fd     int
	size   int
	state  State
}

// Ring holds a small fixed set of same-sized slots for one output's
// overlay surface. Two slots are the minimum needed to let the
// compositor hold one buffer while the next frame is drawn into the
// other; the overlay uses this minimum since cursor redraws do not
// need deep pipelining.
type Ring struct {
	slots []*Slot
}

const defaultRingSize = 2

// New allocates a ring of defaultRingSize ARGB8888 slots of the given
// pixel dimensions, each backed by its own memfd.
func New(width, height int32) (*Ring, error) {
	r := &Ring{slots: make([]*Slot, 0, defaultRingSize)}
	for i := 0; i < defaultRingSize; i++ {
		slot, err := newSlot(width, height)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("shmbuf: allocating slot %d: %w", i, err)
		}
		r.slots = append(r.slots, slot)
	}
	return r, nil
}

func newSlot(width, height int32) (*Slot, error) {
	stride := width * 4
	size := int(stride) * int(height)

	fd, err := unix.MemfdCreate("kloakd-overlay", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("creating memfd: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("truncating memfd: %w", err)
	}
	pix, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mapping memfd: %w", err)
	}

	return &Slot{
		Pix:    pix,
		Width:  width,
		Height: height,
		Stride: stride,
		fd:     fd,
		size:   size,
		state:  Free,
	}, nil
}

// Fd returns the slot's memfd, for wl_shm.create_pool.
func (s *Slot) Fd() uintptr {
	return uintptr(s.fd)
}

// Size returns the slot's byte length, for wl_shm.create_pool.
func (s *Slot) Size() int32 {
	return int32(s.size)
}

// State returns the slot's current lifecycle state.
func (s *Slot) State() State {
	return s.state
}

// Acquire returns the next Free slot in the ring, or nil if every slot
// is still InFlight. Returned slots are reclaimed as Free lazily here
// rather than eagerly at release time, so a caller that never checks
// back in does not leak a usable slot.
func (r *Ring) Acquire() *Slot {
	for _, s := range r.slots {
		if s.state == Returned {
			s.state = Free
		}
	}
	for _, s := range r.slots {
		if s.state == Free {
			return s
		}
	}
	return nil
}

// MarkInFlight transitions slot to InFlight after it has been attached
// and committed to a wl_surface.
func (r *Ring) MarkInFlight(s *Slot) {
	s.state = InFlight
}

// Release transitions slot to Returned, called from the wl_buffer
// release event handler.
func (r *Ring) Release(s *Slot) {
	s.state = Returned
}

// Close unmaps and closes every slot's memfd.
func (r *Ring) Close() error {
	var firstErr error
	for _, s := range r.slots {
		if s == nil {
			continue
		}
		if err := unix.Munmap(s.Pix); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shmbuf: unmapping slot: %w", err)
		}
		if err := unix.Close(s.fd); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shmbuf: closing memfd: %w", err)
		}
	}
	return firstErr
}
