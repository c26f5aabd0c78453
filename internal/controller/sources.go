package controller

import (
	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/source"
)

// ProcessEvent implements source.Controller: a source backend's own
// goroutine calls this to hand a decoded raw event to the controller,
// which posts it onto its own queue (source tasks use try_send so a
// jammed controller drops rather than stalls the I/O task, spec.md §5).
func (c *Controller) ProcessEvent(sourceID string, raw source.RawEvent) {
	c.Post(ProcessEventCommand{SourceID: sourceID, Raw: raw})
}

// SourceDeviceStopped implements source.Controller: called by a source
// backend's Run loop when it exits, for any reason.
func (c *Controller) SourceDeviceStopped(sourceID string) {
	c.Post(SourceDeviceStoppedCommand{ID: sourceID})
}

// onSourceDeviceAdded registers a newly resolved source device. If the
// configured block matcher rejects it, its id is recorded as blocked and
// its capabilities are never harvested; otherwise its capabilities are
// unioned into the exposed set, excluding anything the capability map
// already claims (spec.md §4.5, "Adding").
func (c *Controller) onSourceDeviceAdded(info source.Info, cmds chan<- source.Command, caps capability.Set) {
	if c.blocked != nil && c.blocked(info) {
		c.sourceDevicesBlocked[info.ID] = struct{}{}
		log.Warnf("controller %s: source %s blocked by configuration", c.name, info.ID)
		return
	}

	c.sourceDevices[info.ID] = cmds
	c.sourceDevicePaths[info.ID] = info.Path
	c.sourceDevicesUsed[info.ID] = struct{}{}

	for cp := range caps {
		if c.translatableCapabilities.Contains(cp) {
			continue
		}
		c.capabilities.Add(cp)
	}

	if c.hider != nil {
		if err := c.hider.Hide(info.Path); err != nil {
			log.Errorf("controller %s: hide %s: %v", c.name, info.Path, err)
		}
	}

	log.Infof("controller %s: source %s added (%s)", c.name, info.ID, info.Path)
}

// onSourceDeviceRemoved drops all three source registry entries for id
// (they are keyed by the full source id), and clears any blocked-status bookkeeping so a
// later reconnect under the same id is re-evaluated from scratch against
// current configuration (SPEC_FULL.md §4 point 3, matching
// on_source_device_removed in the original implementation).
func (c *Controller) onSourceDeviceRemoved(id string) {
	delete(c.sourceDevices, id)
	delete(c.sourceDevicePaths, id)
	delete(c.sourceDevicesUsed, id)
	delete(c.sourceDevicesBlocked, id)
	log.Infof("controller %s: source %s removed", c.name, id)
}

// stopIfSourceless terminates the controller once its last source has
// gone away (spec.md §4.1 table: "Deregister source; if none remain,
// terminate"). A freshly constructed controller with no source attached
// yet is not affected, since this only runs from the removal path.
func (c *Controller) stopIfSourceless() {
	if len(c.sourceDevices) == 0 {
		c.stopped = true
	}
}
