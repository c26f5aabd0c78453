package controller

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/source"
	"github.com/bnema/inputplumberd/internal/target"
	"github.com/bnema/inputplumberd/internal/udevhide"
)

// joinTimeout bounds how long shutdown waits for outstanding source tasks
// to report SourceDeviceStopped before giving up (spec.md's join_next loop
// has no such bound; a buggy source task would hang the daemon forever
// without one).
const joinTimeout = 5 * time.Second

// SetHider installs the udevhide.Hider used to unhide source paths during
// shutdown (and to hide them as sources are added, see sources.go).
func (c *Controller) SetHider(h *udevhide.Hider) { c.hider = h }

// shutdown runs the fixed sequence of spec.md §5: stop all targets,
// un-hide source paths, stop all sources, then wait for each to report
// SourceDeviceStopped ("join"). Source task failures do not propagate;
// outstanding-task timeouts are logged, not fatal, since Go's model has no
// equivalent of a propagating join error for a task that simply never
// replies.
func (c *Controller) shutdown() {
	for _, ch := range c.targetDevices {
		sendTargetStop(ch)
	}
	for _, ch := range c.targetDBusDevices {
		sendTargetStop(ch)
	}

	if c.hider != nil {
		for _, p := range c.sourceDevicePaths {
			if err := c.hider.Unhide(p); err != nil {
				log.Errorf("controller %s: unhide %s: %v", c.name, p, err)
			}
		}
	}

	for _, ch := range c.sourceDevices {
		sendSourceStop(ch)
	}

	c.joinSources()
}

func sendTargetStop(ch chan<- target.Command) {
	select {
	case ch <- target.StopCommand{}:
	default:
	}
}

func sendSourceStop(ch chan<- source.Command) {
	select {
	case ch <- source.StopCommand{}:
	default:
	}
}

// joinSources drains the command queue, honoring only SourceDeviceStopped
// and SourceDeviceRemoved, until every outstanding source has reported in
// or joinTimeout elapses.
func (c *Controller) joinSources() {
	if len(c.sourceDevices) == 0 {
		return
	}

	deadline := time.After(joinTimeout)
	for len(c.sourceDevices) > 0 {
		select {
		case cmd := <-c.cmds:
			switch cc := cmd.(type) {
			case SourceDeviceStoppedCommand:
				c.onSourceDeviceRemoved(cc.ID)
			case SourceDeviceRemovedCommand:
				c.onSourceDeviceRemoved(cc.ID)
			default:
				log.Debugf("controller %s: dropping %T received during shutdown", c.name, cmd)
			}
		case <-deadline:
			log.Errorf("controller %s: shutdown timed out waiting for %d source(s)", c.name, len(c.sourceDevices))
			return
		}
	}
}
