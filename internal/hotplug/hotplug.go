// Package hotplug watches /dev/input for device nodes appearing and
// disappearing, reconciling them into attach/detach calls for the
// engine (§4.5). Replaces the teacher's 2-second polling ticker
// (device_monitor.go) with event-driven inotify watching, whose fd is
// polled by the event loop alongside the Wayland socket and the device
// fds.
package hotplug

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher wraps an fsnotify watch on the input device directory.
type Watcher struct {
	fsw *fsnotify.Watcher
	dir string
}

// New starts watching dir (typically /dev/input) for event* node
// creation and removal.
func New(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hotplug: creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("hotplug: watching %s: %w", dir, err)
	}
	return &Watcher{fsw: fsw, dir: dir}, nil
}

// Fd returns the underlying inotify file descriptor for the event
// loop's poll set.
func (w *Watcher) Fd() uintptr {
	return w.fsw.Fd()
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Event is one reconciled hotplug transition.
type Event struct {
	Name    string
	Attach  bool // false means detach
}

// Drain consumes every pending fsnotify event and translates it into
// attach/detach calls: Create becomes an attach, Remove or Rename a
// detach. The engine handles an attach of a name it already tracks as
// a detach followed by an attach, matching §4.5.
func (w *Watcher) Drain() ([]Event, error) {
	var out []Event
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return out, nil
			}
			if !isEventNode(ev.Name) {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create) != 0:
				out = append(out, Event{Name: ev.Name, Attach: true})
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				out = append(out, Event{Name: ev.Name, Attach: false})
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return out, nil
			}
			return out, fmt.Errorf("hotplug: watch error: %w", err)
		default:
			return out, nil
		}
	}
}

func isEventNode(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "event")
}
