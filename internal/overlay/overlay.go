// Package overlay draws the virtual cursor glyph: a filled circle of
// the configured color, rasterized directly into a shmbuf slot and
// committed to a per-output zwlr_layer_surface_v1 surface. No pixel
// rasterization library appears anywhere in the retrieved pack, so
// this is a minimal software rasterizer written in the teacher's
// buffer-handling idiom (createSolidColorBuffer's fill-then-attach
// sequence) rather than adapted from one.
package overlay

import (
	"fmt"

	"github.com/bnema/kloakd/internal/shmbuf"
	"github.com/bnema/kloakd/internal/waylandio/layershell"
	"github.com/bnema/wlturbo/wl"
)

// Radius is the cursor glyph's radius in pixels. The glyph's bounding
// box (and therefore the layer surface and every shm slot) is always
// (2*Radius+1) square.
const Radius = 6

const glyphSize = 2*Radius + 1

// Output owns one physical output's overlay surface: its shm ring, its
// wl_surface and layer surface, and the color it draws.
type Output struct {
	Name    string
	surface *wl.Surface
	layer   *layershell.Surface
	pool    *wl.ShmPool
	ring    *shmbuf.Ring
	color   uint32

	lastX, lastY int32
	havePainted  bool
	configured   bool
}

// New creates the overlay surface for one output: a wl_surface from
// compositor, wrapped in a zwlr_layer_surface_v1 from shell, anchored
// top-left with no exclusive zone and no keyboard interactivity, sized
// to the glyph's bounding box.
func New(name string, compositor *wl.Compositor, shell *layershell.Shell, output *wl.Output, color uint32) (*Output, error) {
	surface, err := compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("overlay: creating surface for %s: %w", name, err)
	}

	ls, err := shell.GetLayerSurface(surface, output, layershell.LayerOverlay, "kloakd-cursor")
	if err != nil {
		return nil, fmt.Errorf("overlay: creating layer surface for %s: %w", name, err)
	}

	ring, err := shmbuf.New(glyphSize, glyphSize)
	if err != nil {
		return nil, fmt.Errorf("overlay: allocating buffer ring for %s: %w", name, err)
	}

	o := &Output{Name: name, surface: surface, layer: ls, ring: ring, color: color}

	if err := ls.SetAnchor(layershell.AnchorTop | layershell.AnchorLeft); err != nil {
		return nil, fmt.Errorf("overlay: anchoring %s: %w", name, err)
	}
	if err := ls.SetSize(glyphSize, glyphSize); err != nil {
		return nil, fmt.Errorf("overlay: sizing %s: %w", name, err)
	}
	if err := ls.SetExclusiveZone(-1); err != nil {
		return nil, fmt.Errorf("overlay: exclusive zone for %s: %w", name, err)
	}
	if err := ls.SetKeyboardInteractivity(0); err != nil {
		return nil, fmt.Errorf("overlay: keyboard interactivity for %s: %w", name, err)
	}

	ls.SetConfigureHandler(func(serial, width, height uint32) {
		_ = ls.AckConfigure(serial)
		o.configured = true
	})

	if err := surface.Commit(); err != nil {
		return nil, fmt.Errorf("overlay: initial commit for %s: %w", name, err)
	}

	return o, nil
}

// Move sets the glyph's local (output-relative) position and marks the
// output dirty, per §4.4 "mark the source and destination outputs'
// frame-pending flag". A call repeating the position already waiting
// to be drawn changes nothing; after a redraw, any call marks the
// output dirty again, even at the position just drawn.
func (o *Output) Move(localX, localY int32) {
	if o.havePainted && localX == o.lastX && localY == o.lastY {
		return
	}
	o.lastX, o.lastY = localX, localY
	o.havePainted = true
}

// Dirty reports whether this output needs a redraw before the next
// poll iteration.
func (o *Output) Dirty() bool {
	return o.havePainted
}

// Redraw paints the glyph into the next free shm slot and commits it,
// mirroring createSolidColorBuffer's mmap-fill-attach-damage-commit
// sequence but against a cycling ring instead of one static buffer.
func (o *Output) Redraw(shm *wl.Shm) error {
	if !o.configured {
		return nil
	}
	slot := o.ring.Acquire()
	if slot == nil {
		// Every slot still in flight; skip this frame rather than
		// block. The output stays dirty, so the next loop pass retries.
		return nil
	}

	paintCircle(slot.Pix, int(slot.Width), int(slot.Height), int(slot.Stride), o.color)

	// The surface is anchored top|left with a fixed glyph-sized extent,
	// so repositioning it to track the cursor means sliding it via
	// margins rather than re-anchoring or resizing (§4.4, §9 "Overlay
	// redraw" — zwlr_layer_surface_v1 has no absolute-position request).
	marginLeft := o.lastX - Radius
	marginTop := o.lastY - Radius
	if err := o.layer.SetMargin(marginTop, 0, 0, marginLeft); err != nil {
		return fmt.Errorf("overlay: repositioning %s: %w", o.Name, err)
	}

	pool, err := shm.CreatePool(slot.Fd(), slot.Size())
	if err != nil {
		return fmt.Errorf("overlay: creating shm pool for %s: %w", o.Name, err)
	}
	buf, err := pool.CreateBuffer(0, slot.Width, slot.Height, slot.Stride, wl.ShmFormatArgb8888)
	if err != nil {
		_ = pool.Destroy()
		return fmt.Errorf("overlay: creating buffer for %s: %w", o.Name, err)
	}

	o.ring.MarkInFlight(slot)
	buf.SetReleaseHandler(func() {
		o.ring.Release(slot)
	})

	if err := o.surface.Attach(buf, 0, 0); err != nil {
		return fmt.Errorf("overlay: attaching buffer for %s: %w", o.Name, err)
	}
	if err := o.surface.Damage(0, 0, slot.Width, slot.Height); err != nil {
		return fmt.Errorf("overlay: damaging %s: %w", o.Name, err)
	}
	if err := o.surface.Commit(); err != nil {
		return fmt.Errorf("overlay: committing %s: %w", o.Name, err)
	}

	_ = pool.Destroy()
	o.havePainted = false
	return nil
}

// Close releases the overlay's surfaces and buffers.
func (o *Output) Close() error {
	_ = o.layer.Destroy()
	_ = o.surface.Destroy()
	return o.ring.Close()
}

// paintCircle fills a filled circle of diameter glyphSize, centered in
// the buffer, in ARGB8888 little-endian byte order (B, G, R, A), and
// leaves every pixel outside the circle fully transparent.
func paintCircle(pix []byte, width, height, stride int, color uint32) {
	a := byte(color >> 24)
	r := byte(color >> 16)
	g := byte(color >> 8)
	b := byte(color)

	cx := width / 2
	cy := height / 2
	r2 := Radius * Radius

	for y := 0; y < height; y++ {
		dy := y - cy
		for x := 0; x < width; x++ {
			dx := x - cx
			off := y*stride + x*4
			if dx*dx+dy*dy <= r2 {
				pix[off+0] = b
				pix[off+1] = g
				pix[off+2] = r
				pix[off+3] = a
			} else {
				pix[off+0] = 0
				pix[off+1] = 0
				pix[off+2] = 0
				pix[off+3] = 0
			}
		}
	}
}
