package controller

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/controldbus"
	"github.com/bnema/inputplumberd/internal/event"
)

// facadeReplyTimeout bounds how long a bus-facing call waits for the
// controller's own command loop to answer, so a saturated queue fails a
// bus call instead of leaking the caller's goroutine forever.
const facadeReplyTimeout = 2 * time.Second

// The methods below implement controldbus.ControllerFacade: each crosses
// into the controller's single-consumer actor the same way every other
// external caller does, by posting a Command and (where a reply is
// expected) waiting on a reply channel.

// GetInterceptMode implements controldbus.ControllerFacade.
func (c *Controller) GetInterceptMode() controldbus.InterceptMode {
	reply := make(chan InterceptMode, 1)
	c.Post(GetInterceptModeCommand{Reply: reply})
	select {
	case m := <-reply:
		return controldbus.InterceptMode(m)
	case <-time.After(facadeReplyTimeout):
		log.Errorf("controller %s: GetInterceptMode timed out", c.name)
		return controldbus.InterceptNone
	}
}

// SetInterceptMode implements controldbus.ControllerFacade.
func (c *Controller) SetInterceptMode(mode controldbus.InterceptMode) {
	c.Post(SetInterceptModeCommand{Mode: InterceptMode(mode)})
}

// SetInterceptActivation implements controldbus.ControllerFacade, parsing
// the bus-facing string forms back into capability.Capability values.
func (c *Controller) SetInterceptActivation(caps []string, targetStr string) {
	parsed := make([]capability.Capability, 0, len(caps))
	for _, s := range caps {
		cap, err := capability.Parse(s)
		if err != nil {
			log.Errorf("controller %s: SetInterceptActivation: %v", c.name, err)
			return
		}
		parsed = append(parsed, cap)
	}
	target, err := capability.Parse(targetStr)
	if err != nil {
		log.Errorf("controller %s: SetInterceptActivation: %v", c.name, err)
		return
	}
	c.Post(SetInterceptActivationCommand{Caps: parsed, Target: target})
}

// LoadProfilePath implements controldbus.ControllerFacade.
func (c *Controller) LoadProfilePath(path string) error {
	reply := make(chan error, 1)
	c.Post(LoadProfilePathCommand{Path: path, Reply: reply})
	select {
	case err := <-reply:
		return err
	case <-time.After(facadeReplyTimeout):
		return fmt.Errorf("controller %s: LoadProfilePath(%s) timed out", c.name, path)
	}
}

// WriteEvent implements controldbus.ControllerFacade: the direct emission
// path, bypassing translation.
func (c *Controller) WriteEvent(evt event.NativeEvent) { c.Post(WriteEventCommand{Event: evt}) }

// WriteChordEvent implements controldbus.ControllerFacade.
func (c *Controller) WriteChordEvent(evts []event.NativeEvent) {
	c.Post(WriteChordEventCommand{Events: evts})
}

// WriteSendEvent implements controldbus.ControllerFacade.
func (c *Controller) WriteSendEvent(evt event.NativeEvent) {
	c.Post(WriteSendEventCommand{Event: evt})
}
