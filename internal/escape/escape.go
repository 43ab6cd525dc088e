// Package escape implements the escape-combo watcher: a multi-slot,
// alias-supporting key chord matched against live keyboard state
// (§3, §4.5 via the engine, §8 scenario 5).
package escape

import "fmt"

// Slot is a set of evdev key codes interpreted as aliases: any one of
// them being pressed activates the slot.
type Slot struct {
	Codes []uint16
}

// Watcher tracks per-slot activation against live key press/release
// events and reports when every slot is simultaneously active
// (conjunction across slots).
type Watcher struct {
	slots  []Slot
	active []bool
	// pressed records, per key code, whether that key is currently
	// held; slot activation is recomputed from it on every event.
	pressed map[uint16]bool
}

// New builds a watcher from the configured slots.
func New(slots []Slot) (*Watcher, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("escape: combo must have at least one slot")
	}
	for i, s := range slots {
		if len(s.Codes) == 0 {
			return nil, fmt.Errorf("escape: slot %d has no key codes", i)
		}
	}
	return &Watcher{
		slots:   slots,
		active:  make([]bool, len(slots)),
		pressed: make(map[uint16]bool),
	}, nil
}

// HandleKey updates watcher state for a key press/release and reports
// whether the combo is now fully satisfied (all slots active). A
// release of a key deactivates the slot(s) it belongs to unless another
// alias of that slot is still held, matching §8 scenario 5 ("Any prior
// release of Shift resets the slot").
func (w *Watcher) HandleKey(code uint16, pressed bool) (terminate bool) {
	w.pressed[code] = pressed

	for i, slot := range w.slots {
		w.active[i] = slotSatisfied(slot, w.pressed)
	}

	for _, a := range w.active {
		if !a {
			return false
		}
	}
	return true
}

func slotSatisfied(slot Slot, pressed map[uint16]bool) bool {
	for _, code := range slot.Codes {
		if pressed[code] {
			return true
		}
	}
	return false
}
