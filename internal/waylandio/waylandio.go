// Package waylandio owns the output-geometry side's Wayland connection:
// the plain wl.Display/Registry handshake, tracking of the
// zxdg_output_manager_v1 and zwlr_layer_shell_v1 globals, and binding
// of each wl_output as it is announced. It is a separate connection
// from the one libwldevices-go opens internally for virtual input
// (internal/injector), mirroring that library's own
// one-connection-per-protocol-manager shape rather than fighting it.
// Grounded on third_party/libwldevices-go/internal/client/client.go's
// NewClient/HandleRegistryGlobal pattern.
package waylandio

import (
	"fmt"
	"sync"

	"github.com/bnema/wlturbo/wl"
)

// OutputGlobal is one wl_output announced by the registry, bound
// immediately so its name/geometry/mode events can be collected by the
// caller before the xdg-output extension is queried for logical
// coordinates.
type OutputGlobal struct {
	Name   uint32
	Output *wl.Output
}

// Client holds the shared display connection and the set of globals the
// engine's geometry and overlay components need: the core registry,
// one wl.Output per connected monitor, and the name IDs of the two
// extension managers this daemon hand-binds itself.
type Client struct {
	display  *wl.Display
	registry *wl.Registry
	context  *wl.Context

	mu                sync.Mutex
	outputs           map[uint32]*OutputGlobal
	xdgOutputMgrName  uint32
	xdgOutputMgrVer   uint32
	layerShellMgrName uint32
	layerShellMgrVer  uint32
	compositorName    uint32
	compositorVer     uint32
	shmName           uint32
	shmVer            uint32

	onOutputAdded   func(*OutputGlobal)
	onOutputRemoved func(uint32)
}

// New connects to the running compositor and performs the initial
// registry roundtrip, binding every wl_output it announces.
func New() (*Client, error) {
	display, err := wl.Connect("")
	if err != nil {
		return nil, fmt.Errorf("waylandio: connecting to display: %w", err)
	}

	c := &Client{
		display: display,
		context: display.Context(),
		outputs: make(map[uint32]*OutputGlobal),
	}

	c.registry = display.GetRegistry()
	c.registry.AddGlobalHandler(c)
	c.registry.AddGlobalRemoveHandler(c)

	if err := display.Roundtrip(); err != nil {
		return nil, fmt.Errorf("waylandio: initial roundtrip: %w", err)
	}

	return c, nil
}

// SetOutputHandlers installs the callbacks invoked as wl_output globals
// are bound and removed. Installed once, before the engine enters its
// poll loop, since Dispatch runs these synchronously.
func (c *Client) SetOutputHandlers(added func(*OutputGlobal), removed func(uint32)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOutputAdded = added
	c.onOutputRemoved = removed
}

// HandleRegistryGlobal implements wl.RegistryGlobalHandler.
func (c *Client) HandleRegistryGlobal(event wl.RegistryGlobalEvent) {
	switch event.Interface {
	case "wl_output":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err != nil {
			return
		}
		out := wl.NewOutput(c.context)
		out.SetID(id)
		c.context.Register(out)

		c.mu.Lock()
		og := &OutputGlobal{Name: event.Name, Output: out}
		c.outputs[event.Name] = og
		added := c.onOutputAdded
		c.mu.Unlock()

		if added != nil {
			added(og)
		}

	case "zxdg_output_manager_v1":
		c.mu.Lock()
		c.xdgOutputMgrName = event.Name
		c.xdgOutputMgrVer = event.Version
		c.mu.Unlock()

	case "zwlr_layer_shell_v1":
		c.mu.Lock()
		c.layerShellMgrName = event.Name
		c.layerShellMgrVer = event.Version
		c.mu.Unlock()

	case "wl_compositor":
		c.mu.Lock()
		c.compositorName = event.Name
		c.compositorVer = event.Version
		c.mu.Unlock()

	case "wl_shm":
		c.mu.Lock()
		c.shmName = event.Name
		c.shmVer = event.Version
		c.mu.Unlock()
	}
}

// HandleRegistryGlobalRemove implements wl.RegistryGlobalRemoveHandler.
func (c *Client) HandleRegistryGlobalRemove(event wl.RegistryGlobalRemoveEvent) {
	c.mu.Lock()
	_, tracked := c.outputs[event.Name]
	if tracked {
		delete(c.outputs, event.Name)
	}
	removed := c.onOutputRemoved
	c.mu.Unlock()

	if tracked && removed != nil {
		removed(event.Name)
	}
}

// Outputs returns every wl_output currently tracked, for a caller that
// installs SetOutputHandlers after New's initial roundtrip has already
// bound whatever outputs were present at startup.
func (c *Client) Outputs() []*OutputGlobal {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*OutputGlobal, 0, len(c.outputs))
	for _, og := range c.outputs {
		out = append(out, og)
	}
	return out
}

// HasXdgOutputManager reports whether zxdg_output_manager_v1 was
// announced. Its absence is a fatal startup condition per §6: logical
// output coordinates are not otherwise obtainable.
func (c *Client) HasXdgOutputManager() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.xdgOutputMgrName != 0
}

// BindXdgOutputManager binds the tracked zxdg_output_manager_v1 global
// name onto proxy, which the caller has already constructed via
// xdgoutput.NewManager(c.Context()).
func (c *Client) BindXdgOutputManager(proxy wl.Proxy) error {
	c.mu.Lock()
	name, ver := c.xdgOutputMgrName, c.xdgOutputMgrVer
	c.mu.Unlock()
	if name == 0 {
		return fmt.Errorf("waylandio: zxdg_output_manager_v1 not advertised by compositor")
	}
	return c.registry.Bind(name, "zxdg_output_manager_v1", ver, proxy)
}

// HasLayerShell reports whether zwlr_layer_shell_v1 was announced. Its
// absence is a fatal startup condition per §6.
func (c *Client) HasLayerShell() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layerShellMgrName != 0
}

// BindLayerShell binds the tracked zwlr_layer_shell_v1 global name onto
// proxy, which the caller has already constructed via
// layershell.NewShell(c.Context()).
func (c *Client) BindLayerShell(proxy wl.Proxy) error {
	c.mu.Lock()
	name, ver := c.layerShellMgrName, c.layerShellMgrVer
	c.mu.Unlock()
	if name == 0 {
		return fmt.Errorf("waylandio: zwlr_layer_shell_v1 not advertised by compositor")
	}
	return c.registry.Bind(name, "zwlr_layer_shell_v1", ver, proxy)
}

// BindCompositor binds wl_compositor, used by the overlay to create
// the wl_surface each layer-shell surface wraps.
func (c *Client) BindCompositor() (*wl.Compositor, error) {
	c.mu.Lock()
	name, ver := c.compositorName, c.compositorVer
	c.mu.Unlock()
	if name == 0 {
		return nil, fmt.Errorf("waylandio: wl_compositor not advertised by compositor")
	}
	comp := wl.NewCompositor(c.context)
	if err := c.registry.Bind(name, "wl_compositor", ver, comp); err != nil {
		return nil, fmt.Errorf("waylandio: binding wl_compositor: %w", err)
	}
	return comp, nil
}

// BindShm binds wl_shm, used by the overlay to wrap shmbuf's
// memfd-backed rings into wl_buffer objects.
func (c *Client) BindShm() (*wl.Shm, error) {
	c.mu.Lock()
	name, ver := c.shmName, c.shmVer
	c.mu.Unlock()
	if name == 0 {
		return nil, fmt.Errorf("waylandio: wl_shm not advertised by compositor")
	}
	shm := wl.NewShm(c.context)
	if err := c.registry.Bind(name, "wl_shm", ver, shm); err != nil {
		return nil, fmt.Errorf("waylandio: binding wl_shm: %w", err)
	}
	return shm, nil
}

// Context returns the shared wl.Context for binding extension protocol
// objects (xdgoutput, layershell) against this connection.
func (c *Client) Context() *wl.Context {
	return c.context
}

// Fd returns the Wayland socket's file descriptor for the event loop's
// poll set.
func (c *Client) Fd() uintptr {
	return c.display.Fd()
}

// Dispatch processes every currently buffered Wayland message (called
// after poll reports the socket fd readable).
func (c *Client) Dispatch() error {
	if n := c.display.Dispatch(); n < 0 {
		return fmt.Errorf("waylandio: dispatch failed")
	}
	return nil
}

// Roundtrip blocks until all requests sent so far have been processed
// by the compositor and their replies received. Used once at engine
// startup, after the outputs bound during New have requested their
// xdg-output objects, to fetch their initial geometry.
func (c *Client) Roundtrip() error {
	return c.display.Roundtrip()
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.context.Close()
}
