// Package evdevio owns evdev device acquisition: opening device nodes,
// taking an exclusive grab, and decoding raw events into the packet
// package's DeviceEvent payloads. Collapsed from the teacher's
// goroutine-per-device capture loop (evdev_capture.go) into plain
// synchronous methods the single cooperative loop drives by fd
// readiness, per the redesign in §5.
package evdevio

import (
	"fmt"

	"github.com/bnema/kloakd/internal/packet"
	evdev "github.com/gvalkov/golang-evdev"
)

// Linux evdev event types relevant to key/pointer decoding.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
)

// Relative-axis codes (wl_pointer-style scroll/motion deltas).
const (
	relX      = 0x00
	relY      = 0x01
	relWheel  = 0x08
	relHWheel = 0x06
)

// Device wraps one exclusively-grabbed evdev node.
type Device struct {
	Name  string
	dev   *evdev.InputDevice
	codes map[uint16]bool
}

// Open opens path, exclusively grabs it, and returns a Device. The
// grab must succeed — without exclusivity the daemon's anonymization
// is trivially bypassable by reading the node directly (§5).
func Open(path string) (*Device, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("evdevio: opening %s: %w", path, err)
	}
	if err := dev.Grab(); err != nil {
		_ = dev.File.Close()
		return nil, fmt.Errorf("evdevio: exclusive grab on %s failed: %w", path, err)
	}
	return &Device{Name: path, dev: dev, codes: make(map[uint16]bool)}, nil
}

// HasEmittedCode reports whether this device has ever emitted the
// given key/button code, used to scope a closed device's queued
// packets for draining (packet.DeviceEvent itself carries no device
// identity, by design, so the caller matches on code instead).
func (d *Device) HasEmittedCode(code uint16) bool {
	return d.codes[code]
}

// Fd returns the underlying file descriptor for the event loop's poll
// set.
func (d *Device) Fd() uintptr {
	return d.dev.File.Fd()
}

// Close releases the exclusive grab and closes the device node.
func (d *Device) Close() error {
	_ = d.dev.Release()
	return d.dev.File.Close()
}

// Decoded is one decoded evdev event translated to the scheduler's
// vocabulary, or IsMove=true with an accumulated relative delta for
// REL_X/REL_Y motion (the engine turns these into PointerMove targets
// once combined with the current cursor position).
type Decoded struct {
	IsMove  bool
	DX, DY  int32
	Event   packet.DeviceEvent
	HasEvent bool
}

// ReadReady reads and decodes every currently available event from the
// device (called only after poll reports the fd readable, so the read
// never blocks in practice).
func (d *Device) ReadReady() ([]Decoded, error) {
	raw, err := d.dev.Read()
	if err != nil {
		return nil, fmt.Errorf("evdevio: reading %s: %w", d.Name, err)
	}

	var out []Decoded
	var accDX, accDY int32
	haveMove := false

	for _, ev := range raw {
		switch ev.Type {
		case evRel:
			switch ev.Code {
			case relX:
				accDX += int32(ev.Value)
				haveMove = true
			case relY:
				accDY += int32(ev.Value)
				haveMove = true
			case relWheel:
				out = append(out, Decoded{HasEvent: true, Event: packet.DeviceEvent{
					EventKind: packet.DeviceEventScrollAxis,
					Axis:      0,
					Value:     float64(ev.Value),
				}})
			case relHWheel:
				out = append(out, Decoded{HasEvent: true, Event: packet.DeviceEvent{
					EventKind: packet.DeviceEventScrollAxis,
					Axis:      1,
					Value:     float64(ev.Value),
				}})
			}
		case evKey:
			d.codes[ev.Code] = true
			out = append(out, Decoded{HasEvent: true, Event: packet.DeviceEvent{
				EventKind: keyEventKind(ev.Code),
				Code:      ev.Code,
				Pressed:   ev.Value != 0,
			}})
		case evSyn:
			// Frame boundary; motion accumulation is flushed below
			// regardless, since the engine drains all decoded events
			// per loop pass rather than per SYN_REPORT.
		}
	}

	if haveMove {
		out = append(out, Decoded{IsMove: true, DX: accDX, DY: accDY})
	}
	return out, nil
}

// keyEventKind classifies a key code as a pointer button (BTN_* range,
// 0x110-0x117) or a keyboard key, mirroring the BTN_LEFT..BTN_TASK
// range check in evdev_capture.go.
func keyEventKind(code uint16) packet.DeviceEventKind {
	if code >= 0x110 && code <= 0x117 {
		return packet.DeviceEventButton
	}
	return packet.DeviceEventKey
}

// List enumerates device nodes under /dev/input matching the event*
// glob, for hotplug reconciliation.
func List() ([]string, error) {
	devices, err := evdev.ListInputDevices("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("evdevio: listing input devices: %w", err)
	}
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Fn)
	}
	return names, nil
}
