// Package engine ties the scheduler, geometry model, cursor walker,
// escape watcher, input decoder, hotplug watcher, and Wayland
// connections together into the single-threaded cooperative loop of
// §4.5. Unlike the teacher's goroutine-per-device, channel-fanned
// design, every field here is owned by one Engine value driven from
// one loop iteration, matching the redesign decided in §9.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/kloakd/internal/clock"
	"github.com/bnema/kloakd/internal/cursor"
	"github.com/bnema/kloakd/internal/errs"
	"github.com/bnema/kloakd/internal/escape"
	"github.com/bnema/kloakd/internal/evdevio"
	"github.com/bnema/kloakd/internal/geometry"
	"github.com/bnema/kloakd/internal/hotplug"
	"github.com/bnema/kloakd/internal/injector"
	"github.com/bnema/kloakd/internal/logger"
	"github.com/bnema/kloakd/internal/overlay"
	"github.com/bnema/kloakd/internal/packet"
	"github.com/bnema/kloakd/internal/scheduler"
	"github.com/bnema/kloakd/internal/waylandio"
	"github.com/bnema/kloakd/internal/waylandio/layershell"
	"github.com/bnema/kloakd/internal/waylandio/xdgoutput"
	"github.com/bnema/wlturbo/wl"
	"golang.org/x/sys/unix"
)

// Options configures a new Engine from the CLI surface (§6).
type Options struct {
	MaxDelayMS   int64
	StartDelayMS int64
	Color        uint32
	ComboSlots   []escape.Slot
	InputDir     string // typically /dev/input
}

// outputState is everything the engine tracks for one wl_output: its
// geometry slot, its xdg-output extension handle, and (when the layer
// shell protocol is present) its overlay surface.
type outputState struct {
	slotIdx  int
	wlOutput *wl.Output
	xdgOut   *xdgoutput.Output
	ov       *overlay.Output
}

// Engine owns every piece of mutable daemon state. There are no
// goroutines and no locks: every method here runs on the one loop
// goroutine, and Wayland/evdev callbacks invoked from Dispatch/Read run
// synchronously within it (§5).
type Engine struct {
	opts Options

	clk   *clock.Clock
	sched *scheduler.Scheduler
	geo   *geometry.Model
	cur   cursor.State
	esc   *escape.Watcher
	sink  *injector.Sink

	wlc        *waylandio.Client
	xdgMgr     *xdgoutput.Manager
	shell      *layershell.Shell
	compositor *wl.Compositor
	shm        *wl.Shm
	haveOverlay bool

	hp      *hotplug.Watcher
	devices map[string]*evdevio.Device

	outputs map[uint32]*outputState
}

// New constructs an Engine and connects every external resource:
// Wayland, the virtual input sinks, the hotplug watcher, and every
// evdev device currently present. Per §6, a pre-init sleep of
// StartDelayMS lets the session settle before devices are grabbed.
func New(opts Options) (*Engine, error) {
	if opts.StartDelayMS > 0 {
		time.Sleep(time.Duration(opts.StartDelayMS) * time.Millisecond)
	}

	esc, err := escape.New(opts.ComboSlots)
	if err != nil {
		return nil, errs.Fatal("engine: escape combo: %v", err)
	}

	sink, err := injector.New(context.Background())
	if err != nil {
		return nil, errs.Fatal("engine: virtual input sinks: %v", err)
	}

	wlc, err := waylandio.New()
	if err != nil {
		_ = sink.Close()
		return nil, errs.Fatal("engine: wayland connection: %v", err)
	}

	if !wlc.HasXdgOutputManager() {
		_ = sink.Close()
		_ = wlc.Close()
		return nil, errs.Fatal("engine: compositor does not advertise zxdg_output_manager_v1")
	}

	clk := clock.New()
	e := &Engine{
		opts:    opts,
		clk:     clk,
		sched:   scheduler.New(clk, opts.MaxDelayMS),
		geo:     geometry.New(),
		esc:     esc,
		sink:    sink,
		wlc:     wlc,
		devices: make(map[string]*evdevio.Device),
		outputs: make(map[uint32]*outputState),
	}

	e.xdgMgr = xdgoutput.NewManager(wlc.Context())
	if err := wlc.BindXdgOutputManager(e.xdgMgr); err != nil {
		e.Close()
		return nil, errs.Fatal("engine: binding zxdg_output_manager_v1: %v", err)
	}

	if wlc.HasLayerShell() {
		shell := layershell.NewShell(wlc.Context())
		if err := wlc.BindLayerShell(shell); err != nil {
			logger.Warn("engine: binding zwlr_layer_shell_v1 failed, overlay disabled", "err", err)
		} else if compositor, err := wlc.BindCompositor(); err != nil {
			logger.Warn("engine: binding wl_compositor failed, overlay disabled", "err", err)
		} else if shm, err := wlc.BindShm(); err != nil {
			logger.Warn("engine: binding wl_shm failed, overlay disabled", "err", err)
		} else {
			e.shell = shell
			e.compositor = compositor
			e.shm = shm
			e.haveOverlay = true
		}
	} else {
		e.Close()
		return nil, errs.Fatal("engine: compositor does not advertise zwlr_layer_shell_v1")
	}

	wlc.SetOutputHandlers(e.onOutputAdded, e.onOutputRemoved)
	for _, og := range wlc.Outputs() {
		e.onOutputAdded(og)
	}
	if err := wlc.Roundtrip(); err != nil {
		e.Close()
		return nil, errs.Fatal("engine: initial output roundtrip: %v", err)
	}

	hp, err := hotplug.New(opts.InputDir)
	if err != nil {
		e.Close()
		return nil, errs.Fatal("engine: hotplug watcher: %v", err)
	}
	e.hp = hp

	names, err := evdevio.List()
	if err != nil {
		logger.Warn("engine: listing input devices", "err", err)
	}
	for _, name := range names {
		if err := e.attachDevice(name); err != nil {
			logger.Warn("engine: attaching device", "device", name, "err", err)
		}
	}

	return e, nil
}

// onOutputAdded reserves a geometry slot for a newly bound wl_output
// and requests its xdg-output extension object, mirroring the
// bind/listener/done-promotion shape of output_management.go adapted
// to logical_position/logical_size/done (§4.2).
func (e *Engine) onOutputAdded(og *waylandio.OutputGlobal) {
	idx, err := e.geo.Attach(fmt.Sprintf("output-%d", og.Name))
	if err != nil {
		logger.Warn("engine: output capacity reached", "err", err)
		return
	}

	xdgOut, err := e.xdgMgr.GetXdgOutput(og.Output)
	if err != nil {
		logger.Warn("engine: requesting xdg-output", "err", err)
		return
	}

	st := &outputState{slotIdx: idx, wlOutput: og.Output}
	e.outputs[og.Name] = st

	var pending geometry.Rect
	xdgOut.SetLogicalPositionHandler(func(x, y int32) {
		pending.X, pending.Y = x, y
	})
	xdgOut.SetLogicalSizeHandler(func(width, height int32) {
		pending.Width, pending.Height = width, height
	})
	xdgOut.SetDoneHandler(func() {
		if err := e.geo.StagePending(idx, pending); err != nil {
			logger.Warn("engine: staging output geometry", "err", err)
			return
		}
		if err := e.geo.Confirm(idx); err != nil {
			logger.Fatal(fmt.Errorf("engine: %w", err))
		}
		e.rehomeCursor()
		e.ensureOverlay(og.Name, st)
	})
	st.xdgOut = xdgOut
}

// onOutputRemoved tears down every object owned by a detached output
// and recomputes the global pointer space.
func (e *Engine) onOutputRemoved(name uint32) {
	st, ok := e.outputs[name]
	if !ok {
		return
	}
	delete(e.outputs, name)
	if st.ov != nil {
		_ = st.ov.Close()
	}
	if st.xdgOut != nil {
		_ = st.xdgOut.Destroy()
	}
	e.geo.Detach(st.slotIdx)
	e.rehomeCursor()
}

// rehomeCursor resets the cursor to output 0's origin whenever it no
// longer lies inside any confirmed output rectangle, per the Cursor
// State invariant: both cursor and prev_cursor must always lie inside
// some confirmed output, otherwise the engine re-homes to output 0's
// origin rather than leaving the cursor stranded in a void.
func (e *Engine) rehomeCursor() {
	if e.inBounds(e.cur.Cursor.X, e.cur.Cursor.Y) {
		return
	}
	for idx := 0; idx < geometry.MaxOutputs; idx++ {
		if r, ok := e.geo.Confirmed(idx); ok {
			e.cur.Move(cursor.Point{X: r.X, Y: r.Y})
			return
		}
	}
}

// ensureOverlay lazily creates the overlay surface for an output once
// its geometry is confirmed and the layer shell protocol is present.
func (e *Engine) ensureOverlay(name uint32, st *outputState) {
	if !e.haveOverlay || st.ov != nil {
		return
	}
	ov, err := overlay.New(fmt.Sprintf("output-%d", name), e.compositor, e.shell, st.wlOutput, e.opts.Color)
	if err != nil {
		logger.Warn("engine: creating overlay surface", "output", name, "err", err)
		return
	}
	st.ov = ov
}

// attachDevice opens and exclusively grabs an evdev node. A path that
// is already tracked is detached first, so a reappearing node is
// handled as detach-then-attach (§4.5 "Hotplug").
func (e *Engine) attachDevice(path string) error {
	if _, ok := e.devices[path]; ok {
		e.detachDevice(path)
	}
	dev, err := evdevio.Open(path)
	if err != nil {
		return err
	}
	e.devices[path] = dev
	return nil
}

// detachDevice releases and drains an evdev node's in-flight packets,
// so a closed device's queued events never reach release (§3). Packets
// carry no device identity by design (see packet.Queue.RemoveWhere), so
// draining scopes on every code the closing device has ever emitted.
func (e *Engine) detachDevice(path string) {
	dev, ok := e.devices[path]
	if !ok {
		return
	}
	delete(e.devices, path)
	e.sched.DrainDevice(dev.HasEmittedCode)
	_ = dev.Close()
}

// Run executes the single-threaded cooperative loop until the escape
// combo terminates it or an unrecoverable error occurs (§4.5).
func (e *Engine) Run() error {
	for {
		if err := e.wlc.Dispatch(); err != nil {
			return errs.Fatal("engine: wayland dispatch: %v", err)
		}

		terminate, err := e.drainInput()
		if err != nil {
			return err
		}
		if terminate {
			return nil
		}

		if _, err := e.sched.ReleaseDue(e.releaseDevice, e.releaseMove); err != nil {
			return errs.Fatal("engine: release: %v", err)
		}

		e.redrawDirty()

		if err := e.drainHotplug(); err != nil {
			logger.Warn("engine: hotplug drain", "err", err)
		}

		if err := e.poll(); err != nil {
			return errs.Fatal("engine: poll: %v", err)
		}
	}
}

// drainInput reads every currently available event from every open
// device, feeding the escape watcher and the scheduler per §4.5 step 3.
func (e *Engine) drainInput() (terminate bool, err error) {
	for path, dev := range e.devices {
		decoded, derr := dev.ReadReady()
		if derr != nil {
			logger.Warn("engine: reading device", "device", path, "err", derr)
			continue
		}
		for _, d := range decoded {
			if d.IsMove {
				e.handleMotion(d.DX, d.DY)
				continue
			}
			if !d.HasEvent {
				continue
			}
			if d.Event.EventKind == packet.DeviceEventKey {
				if e.esc.HandleKey(d.Event.Code, d.Event.Pressed) {
					return true, nil
				}
			}
			if err := e.sched.EnqueueDevice(d.Event); err != nil {
				return false, errs.Fatal("engine: enqueue device event: %v", err)
			}
		}
	}
	return false, nil
}

// handleMotion advances the cursor by a relative delta, walks the path
// from the previous position to the new one to enforce the void
// policy, enqueues the resulting target, and marks every crossed
// output's overlay dirty (§4.4).
func (e *Engine) handleMotion(dx, dy int32) {
	target := cursor.Point{X: e.cur.Cursor.X + dx, Y: e.cur.Cursor.Y + dy}
	target = e.clampToSpace(target)
	e.cur.Move(target)

	path, err := cursor.Walk(e.cur.PrevCursor, e.cur.Cursor, e.inBounds)
	if err != nil {
		logger.Fatal(fmt.Errorf("engine: %w", err))
		return
	}
	final := path[len(path)-1]
	e.cur.Cursor = final

	if err := e.sched.EnqueuePointerMove(packet.PointerMove{X: final.X, Y: final.Y}); err != nil {
		logger.Warn("engine: enqueue pointer move", "err", err)
	}

	for _, p := range path {
		e.markDirty(p)
	}
}

// clampToSpace pulls p back inside the global pointer space's bounding
// box, per "cursor <- clamp(new_position, pointer_space)" (§4.4). A
// relative delta can otherwise carry the target past every output's
// edge — cursor.Walk only steers around voids between confirmed
// outputs, it never bounds the space itself, so an unclamped target
// past the outer edge fails every inBounds check along the walk.
func (e *Engine) clampToSpace(p cursor.Point) cursor.Point {
	sp := e.geo.Space
	minX, maxX := sp.OriginX, sp.OriginX+sp.Width-1
	minY, maxY := sp.OriginY, sp.OriginY+sp.Height-1
	switch {
	case p.X < minX:
		p.X = minX
	case p.X > maxX:
		p.X = maxX
	}
	switch {
	case p.Y < minY:
		p.Y = minY
	case p.Y > maxY:
		p.Y = maxY
	}
	return p
}

// inBounds adapts geometry.Model to cursor.InBounds.
func (e *Engine) inBounds(x, y int32) bool {
	_, _, _, valid := e.geo.AbsToLocal(x, y)
	return valid
}

// markDirty flags the overlay of whichever output contains p, per
// "mark the source and destination outputs' frame pending flag"
// (§4.4).
func (e *Engine) markDirty(p cursor.Point) {
	idx, lx, ly, valid := e.geo.AbsToLocal(p.X, p.Y)
	if !valid {
		return
	}
	for _, st := range e.outputs {
		if st.slotIdx == idx && st.ov != nil {
			st.ov.Move(lx, ly)
			return
		}
	}
}

// redrawDirty repaints every output whose overlay is flagged
// frame-pending (§4.5 step 5).
func (e *Engine) redrawDirty() {
	if !e.haveOverlay {
		return
	}
	for _, st := range e.outputs {
		if st.ov == nil || !st.ov.Dirty() {
			continue
		}
		if err := st.ov.Redraw(e.shm); err != nil {
			logger.Warn("engine: overlay redraw", "err", err)
		}
	}
}

// releaseDevice replays a released DeviceEvent through the injector.
func (e *Engine) releaseDevice(ev packet.DeviceEvent, schedMS int64) error {
	return e.sink.Device(ev, schedMS)
}

// releaseMove replays a released PointerMove through the injector,
// translated into origin-relative coordinates over the global pointer
// space's extent (§4.3 "Release").
func (e *Engine) releaseMove(move packet.PointerMove, schedMS int64) error {
	sp := e.geo.Space
	return e.sink.Move(move, schedMS, sp.OriginX, sp.OriginY, sp.OriginX+sp.Width, sp.OriginY+sp.Height)
}

// drainHotplug reconciles device nodes appearing and disappearing
// under the input directory (§4.5 step 8, §4.5 "Hotplug").
func (e *Engine) drainHotplug() error {
	events, err := e.hp.Drain()
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.Attach {
			if err := e.attachDevice(ev.Name); err != nil {
				logger.Warn("engine: attaching hotplugged device", "device", ev.Name, "err", err)
			}
			continue
		}
		e.detachDevice(ev.Name)
	}
	return nil
}

// poll blocks on the Wayland socket, every open device, and the
// hotplug watcher, with a deadline derived from the scheduler's queue
// head (§4.3 "Poll deadline", §4.5 step 7).
func (e *Engine) poll() error {
	fds := make([]unix.PollFd, 0, 2+len(e.devices))
	fds = append(fds, unix.PollFd{Fd: int32(e.wlc.Fd()), Events: unix.POLLIN})
	fds = append(fds, unix.PollFd{Fd: int32(e.hp.Fd()), Events: unix.POLLIN})
	for _, dev := range e.devices {
		fds = append(fds, unix.PollFd{Fd: int32(dev.Fd()), Events: unix.POLLIN})
	}

	deadline := e.sched.PollDeadline()
	timeoutMS := -1
	if deadline >= 0 {
		timeoutMS = int(deadline / time.Millisecond)
	}

	_, err := unix.Poll(fds, timeoutMS)
	if err != nil && err != unix.EINTR {
		return err
	}
	return nil
}

// Close tears down every owned resource. Called on fatal exit and on
// escape-combo termination alike.
func (e *Engine) Close() {
	for path := range e.devices {
		e.detachDevice(path)
	}
	if e.hp != nil {
		_ = e.hp.Close()
	}
	for name := range e.outputs {
		e.onOutputRemoved(name)
	}
	if e.sink != nil {
		_ = e.sink.Close()
	}
	if e.wlc != nil {
		_ = e.wlc.Close()
	}
}
