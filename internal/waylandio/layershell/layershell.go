// Package layershell hand-writes the zwlr_layer_shell_v1/
// zwlr_layer_surface_v1 protocol binding carrying the overlay cursor
// surface on each output. No ready-made Go client for it exists in the
// retrieved pack; it follows the same opcode-wrapper shape as
// xdgoutput, grounded on
// third_party_subtrees/libwldevices-go/internal/protocols/output_management.go.
package layershell

import (
	"github.com/bnema/wlturbo/wl"
)

// ShellInterface is the global name this package binds.
const ShellInterface = "zwlr_layer_shell_v1"

// Layer selects the stacking band a surface is placed in. Values match
// the protocol's layer enum.
type Layer uint32

const (
	LayerBackground Layer = 0
	LayerBottom     Layer = 1
	LayerTop        Layer = 2
	LayerOverlay    Layer = 3
)

// Anchor bits select which edges of the output a surface is anchored
// to, combined with bitwise OR.
type Anchor uint32

const (
	AnchorTop    Anchor = 1
	AnchorBottom Anchor = 2
	AnchorLeft   Anchor = 4
	AnchorRight  Anchor = 8
)

// Shell wraps zwlr_layer_shell_v1.
type Shell struct {
	wl.BaseProxy
}

// NewShell constructs an unbound shell proxy for registry.Bind.
func NewShell(ctx *wl.Context) *Shell {
	s := &Shell{}
	s.SetContext(ctx)
	return s
}

// GetLayerSurface requests a layer surface for surface on output,
// named namespace, placed in layer. A nil output lets the compositor
// choose, which the overlay never relies on since it needs one surface
// per physical output.
func (s *Shell) GetLayerSurface(surface *wl.Surface, output *wl.Output, layer Layer, namespace string) (*Surface, error) {
	id := s.Context().AllocateID()
	ls := &Surface{}
	ls.SetContext(s.Context())
	ls.SetID(id)
	s.Context().Register(ls)

	// Opcode 0: get_layer_surface
	const opcode = 0
	if err := s.Context().SendRequest(s, opcode, ls, surface, output, uint32(layer), namespace); err != nil {
		s.Context().Unregister(ls)
		return nil, err
	}
	return ls, nil
}

// Destroy releases the shell global.
func (s *Shell) Destroy() error {
	// Opcode 1: destroy
	const opcode = 1
	err := s.Context().SendRequest(s, opcode)
	s.Context().Unregister(s)
	return err
}

// Dispatch is a no-op: zwlr_layer_shell_v1 has no events.
func (s *Shell) Dispatch(_ *wl.Event) {}

// Surface wraps one zwlr_layer_surface_v1 object.
type Surface struct {
	wl.BaseProxy
	configureHandler func(serial uint32, width, height uint32)
	closedHandler    func()
}

// SetConfigureHandler sets the handler for configure. The caller must
// call AckConfigure with the received serial before the next commit on
// the underlying wl_surface is considered valid.
func (s *Surface) SetConfigureHandler(handler func(serial uint32, width, height uint32)) {
	s.configureHandler = handler
}

// SetClosedHandler sets the handler for closed, sent when the
// compositor removes the surface (e.g. its output disappeared).
func (s *Surface) SetClosedHandler(handler func()) {
	s.closedHandler = handler
}

// SetSize requests the surface's logical size. 0 lets the compositor
// pick that dimension; the overlay always sets both explicitly to the
// cursor glyph's bounding box.
func (s *Surface) SetSize(width, height uint32) error {
	// Opcode 0: set_size
	const opcode = 0
	return s.Context().SendRequest(s, opcode, width, height)
}

// SetAnchor anchors the surface to one or more output edges. The
// overlay anchors top|left and repositions via margins, since
// zwlr_layer_surface_v1 has no absolute-position request.
func (s *Surface) SetAnchor(anchor Anchor) error {
	// Opcode 1: set_anchor
	const opcode = 1
	return s.Context().SendRequest(s, opcode, uint32(anchor))
}

// SetExclusiveZone reserves (positive) or clears (-1) space other
// surfaces must not occlude. The overlay always passes -1: a cursor
// glyph must never reserve screen space from the compositor.
func (s *Surface) SetExclusiveZone(zone int32) error {
	// Opcode 2: set_exclusive_zone
	const opcode = 2
	return s.Context().SendRequest(s, opcode, zone)
}

// SetMargin sets the distance from the anchored edges, used by the
// overlay to place the glyph at the cursor's logical coordinates.
func (s *Surface) SetMargin(top, right, bottom, left int32) error {
	// Opcode 3: set_margin
	const opcode = 3
	return s.Context().SendRequest(s, opcode, top, right, bottom, left)
}

// SetKeyboardInteractivity controls whether the surface can receive
// keyboard focus. The overlay always passes 0 (none): the cursor glyph
// must never steal focus from the real compositor seat.
func (s *Surface) SetKeyboardInteractivity(interactive uint32) error {
	// Opcode 4: set_keyboard_interactivity
	const opcode = 4
	return s.Context().SendRequest(s, opcode, interactive)
}

// AckConfigure acknowledges a configure event by serial.
func (s *Surface) AckConfigure(serial uint32) error {
	// Opcode 6: ack_configure
	const opcode = 6
	return s.Context().SendRequest(s, opcode, serial)
}

// Destroy releases the layer surface.
func (s *Surface) Destroy() error {
	// Opcode 7: destroy
	const opcode = 7
	err := s.Context().SendRequest(s, opcode)
	s.Context().Unregister(s)
	return err
}

// SetLayer moves the surface to a different stacking layer.
func (s *Surface) SetLayer(layer Layer) error {
	// Opcode 8: set_layer (since version 2)
	const opcode = 8
	return s.Context().SendRequest(s, opcode, uint32(layer))
}

// Dispatch handles incoming zwlr_layer_surface_v1 events.
func (s *Surface) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // configure
		serial := event.Uint32()
		width := event.Uint32()
		height := event.Uint32()
		if s.configureHandler != nil {
			s.configureHandler(serial, width, height)
		}
	case 1: // closed
		if s.closedHandler != nil {
			s.closedHandler()
		}
		s.Context().Unregister(s)
	}
}
