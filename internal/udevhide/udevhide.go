// Package udevhide hides and unhides source device kernel nodes so that
// only inputplumberd's own virtual targets are visible to other consumers
// on the system, per spec.md §4.5. IIO paths (sysfs, not a device node)
// are never touched.
package udevhide

import (
	"fmt"
	"strings"
	"sync"

	udev "github.com/jochenvg/go-udev"
	"golang.org/x/sys/unix"

	"github.com/charmbracelet/log"
)

const iioPrefix = "/sys/bus/iio/devices"

// Hider hides/unhides a set of kernel device-node paths, remembering each
// path's original permission bits so Unhide can restore them exactly.
type Hider struct {
	mu       sync.Mutex
	original map[string]uint32
	u        udev.Udev
}

// New returns a ready Hider.
func New() *Hider {
	return &Hider{original: make(map[string]uint32)}
}

// Hide removes group/other read-write access to path, so unprivileged
// consumers can no longer open the raw source device. A no-op for IIO
// paths, which are sysfs, never device nodes, and must stay visible.
func (h *Hider) Hide(path string) error {
	if strings.HasPrefix(path, iioPrefix) {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fmt.Errorf("udevhide: stat %s: %w", path, err)
	}
	h.original[path] = st.Mode & 0o777

	if err := unix.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("udevhide: chmod %s: %w", path, err)
	}

	if dev := h.lookupDevice(path); dev != nil {
		log.Debugf("udevhide: hid %s (udev syspath %s)", path, dev.Syspath())
	} else {
		log.Debugf("udevhide: hid %s", path)
	}
	return nil
}

// Unhide restores path's original permission bits recorded by Hide. A
// no-op for paths never hidden (IIO, or paths Hide never saw).
func (h *Hider) Unhide(path string) error {
	if strings.HasPrefix(path, iioPrefix) {
		return nil
	}

	h.mu.Lock()
	mode, ok := h.original[path]
	if ok {
		delete(h.original, path)
	}
	h.mu.Unlock()

	if !ok {
		return nil
	}
	if err := unix.Chmod(path, mode); err != nil {
		return fmt.Errorf("udevhide: restore %s: %w", path, err)
	}
	log.Debugf("udevhide: unhid %s", path)
	return nil
}

// lookupDevice resolves path to its udev device entry, for diagnostic
// logging only; nil if go-udev can't resolve it (e.g. running in a test
// sandbox with no udev database).
func (h *Hider) lookupDevice(path string) *udev.Device {
	e := h.u.NewEnumerate()
	if e == nil {
		return nil
	}
	devices, err := e.Devices()
	if err != nil {
		return nil
	}
	for _, d := range devices {
		if d.Devnode() == path {
			return d
		}
	}
	return nil
}
