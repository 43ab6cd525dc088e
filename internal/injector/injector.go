// Package injector owns the compositor-side input sinks: the
// wlr-virtual-pointer and virtual-keyboard protocol clients the
// scheduler releases packets into (§4.3 "Release"). Grounded on
// third_party_subtrees/libwldevices-go/virtual_pointer/virtual_pointer.go
// and brain/libwldevices-go/virtual_keyboard/virtual_keyboard.go's
// public APIs, with the dispatch-by-kind structure of
// wayland_virtual_input.go's Inject* methods collapsed into one
// Device method keyed on packet.DeviceEventKind.
package injector

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/kloakd/internal/packet"
	"github.com/bnema/libwldevices-go/virtual_keyboard"
	"github.com/bnema/libwldevices-go/virtual_pointer"
)

// Sink wraps one virtual pointer and one virtual keyboard device, both
// bound against the running compositor. It is the engine's only path
// for replaying a released packet into the Wayland session.
type Sink struct {
	pointerMgr *virtual_pointer.VirtualPointerManager
	keyboardMgr *virtual_keyboard.VirtualKeyboardManager
	pointer     *virtual_pointer.VirtualPointer
	keyboard    *virtual_keyboard.VirtualKeyboard
}

// New creates the virtual pointer and virtual keyboard, each bound to
// its own Wayland connection per libwldevices-go's manager API. Both
// protocols are required (§6: "absence of any is fatal at startup with
// a named diagnostic").
func New(ctx context.Context) (*Sink, error) {
	pointerMgr, err := virtual_pointer.NewVirtualPointerManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("injector: virtual pointer protocol unavailable: %w", err)
	}
	pointer, err := pointerMgr.CreatePointer()
	if err != nil {
		_ = pointerMgr.Close()
		return nil, fmt.Errorf("injector: creating virtual pointer: %w", err)
	}

	keyboardMgr, err := virtual_keyboard.NewVirtualKeyboardManager(ctx)
	if err != nil {
		_ = pointer.Close()
		_ = pointerMgr.Close()
		return nil, fmt.Errorf("injector: virtual keyboard protocol unavailable: %w", err)
	}
	keyboard, err := keyboardMgr.CreateKeyboard()
	if err != nil {
		_ = pointer.Close()
		_ = pointerMgr.Close()
		_ = keyboardMgr.Close()
		return nil, fmt.Errorf("injector: creating virtual keyboard: %w", err)
	}

	return &Sink{
		pointerMgr:  pointerMgr,
		keyboardMgr: keyboardMgr,
		pointer:     pointer,
		keyboard:    keyboard,
	}, nil
}

// Close tears down both virtual devices and their managers.
func (s *Sink) Close() error {
	_ = s.pointer.Close()
	_ = s.pointerMgr.Close()
	_ = s.keyboard.Close()
	return s.keyboardMgr.Close()
}

// Device replays a released DeviceEvent at its scheduled timestamp
// (milliseconds since the daemon clock's epoch, carried in a
// time.Time via time.UnixMilli), dispatched by kind per §4.3.
func (s *Sink) Device(ev packet.DeviceEvent, schedMS int64) error {
	ts := time.UnixMilli(schedMS)
	switch ev.EventKind {
	case packet.DeviceEventKey:
		return s.key(ts, ev.Code, ev.Pressed)
	case packet.DeviceEventButton:
		return s.button(ts, ev.Code, ev.Pressed)
	case packet.DeviceEventScrollAxis:
		return s.scrollAxis(ts, ev.Axis, ev.Value)
	case packet.DeviceEventScrollStop:
		return s.pointer.AxisStop(ts, virtual_pointer.Axis(ev.Axis))
	case packet.DeviceEventScrollSource:
		return s.pointer.AxisSource(virtual_pointer.AxisSourceWheel)
	default:
		return fmt.Errorf("injector: unknown device event kind %d", ev.EventKind)
	}
}

func (s *Sink) key(ts time.Time, code uint16, pressed bool) error {
	state := virtual_keyboard.KeyStateReleased
	if pressed {
		state = virtual_keyboard.KeyStatePressed
	}
	return s.keyboard.Key(ts, uint32(code), state)
}

func (s *Sink) button(ts time.Time, code uint16, pressed bool) error {
	state := virtual_pointer.ButtonStateReleased
	if pressed {
		state = virtual_pointer.ButtonStatePressed
	}
	if err := s.pointer.Button(ts, uint32(code), state); err != nil {
		return err
	}
	return s.pointer.Frame()
}

// scrollAxis replays one scroll delta. Per §9's design-note on the
// observed-but-unexplained stray axis-source emission on a zero delta,
// AxisSource is sent unconditionally for the axis before the value,
// matching wayland_virtual_input.go's InjectMouseScroll shape.
func (s *Sink) scrollAxis(ts time.Time, axis uint32, value float64) error {
	if err := s.pointer.AxisSource(virtual_pointer.AxisSourceWheel); err != nil {
		return err
	}
	if err := s.pointer.Axis(ts, virtual_pointer.Axis(axis), value); err != nil {
		return err
	}
	return s.pointer.Frame()
}

// Move replays a released PointerMove as an absolute-motion event over
// the global pointer space's extent, translated into origin-relative
// coordinates per §4.3's release contract, followed by a frame marker.
func (s *Sink) Move(move packet.PointerMove, schedMS int64, originX, originY, spaceWidth, spaceHeight int32) error {
	ts := time.UnixMilli(schedMS)
	x := uint32(move.X - originX)
	y := uint32(move.Y - originY)
	extentX := uint32(spaceWidth - originX)
	extentY := uint32(spaceHeight - originY)
	if err := s.pointer.MotionAbsolute(ts, x, y, extentX, extentY); err != nil {
		return fmt.Errorf("injector: absolute motion: %w", err)
	}
	return s.pointer.Frame()
}
