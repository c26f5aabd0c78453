package controller

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/manager"
	"github.com/bnema/inputplumberd/internal/target"
)

// targetTeardownPause separates stopping the old target set from requesting
// the new one, giving uinput device nodes time to disappear before their
// replacements are created (spec.md §4.6).
const targetTeardownPause = 80 * time.Millisecond

// setTargetDevices replaces the attached target set. Requests are
// serialized: if a prior SetTargetDevices is still waiting on outstanding
// create/attach RPCs, this one re-posts itself rather than racing it (spec.md
// §4.6, "at most one in flight").
func (c *Controller) setTargetDevices(kinds []target.Kind) {
	if len(c.targetDevicesQueued) > 0 {
		c.Post(SetTargetDevicesCommand{Kinds: kinds})
		return
	}

	for _, ch := range c.targetDevices {
		sendTargetStop(ch)
	}
	for _, ch := range c.targetDBusDevices {
		sendTargetStop(ch)
	}
	c.targetDevices = make(map[string]chan<- target.Command)
	c.targetDeviceKinds = make(map[string]target.Kind)
	c.targetDBusDevices = make(map[string]chan<- target.Command)

	tokens := make([]string, len(kinds))
	for i, k := range kinds {
		token := fmt.Sprintf("%s#%d", k, i)
		c.targetDevicesQueued[token] = struct{}{}
		tokens[i] = token
	}

	go func() {
		time.Sleep(targetTeardownPause)
		for i, k := range kinds {
			c.requestTarget(k, tokens[i])
		}
	}()
}

// requestTarget runs the create+attach RPC round trip for one requested
// kind on its own goroutine (mirroring the original's per-kind spawned
// task) and posts the result back onto the controller's own queue, never
// touching controller state directly.
func (c *Controller) requestTarget(kind target.Kind, token string) {
	createReply := make(chan manager.CreateTargetDeviceResult, 1)
	c.mgr.CreateTargetDevice(manager.CreateTargetDeviceRequest{Kind: kind, Reply: createReply})
	created := <-createReply
	if created.Err != nil {
		log.Errorf("controller %s: create target %s: %v", c.name, kind, created.Err)
		c.Post(clearQueuedTargetCommand{Token: token})
		return
	}

	attachReply := make(chan error, 1)
	c.mgr.AttachTargetDevice(manager.AttachTargetDeviceRequest{
		TargetPath:    created.Path,
		CompositePath: c.name,
		Reply:         attachReply,
	})
	if err := <-attachReply; err != nil {
		log.Errorf("controller %s: attach target %s: %v", c.name, created.Path, err)
		c.Post(clearQueuedTargetCommand{Token: token})
		return
	}

	c.Post(AttachTargetDevicesCommand{
		Token: token,
		Targets: map[string]attachedTarget{
			created.Path: {Kind: kind, Commands: created.Commands},
		},
	})
}

// attachTargetDevices moves newly attached targets from the pending request
// into the live registries, sorting DBus targets into their own map so
// emission (emit.go) can address the two groups separately (SPEC_FULL.md §4
// point 2). Each target is told about this controller as its composite
// sender so force-feedback replies can flow back (spec.md §4.4).
func (c *Controller) attachTargetDevices(targets map[string]attachedTarget) {
	for path, at := range targets {
		if at.Kind == target.KindDBus {
			c.targetDBusDevices[path] = at.Commands
		} else {
			c.targetDevices[path] = at.Commands
			c.targetDeviceKinds[path] = at.Kind
		}

		select {
		case at.Commands <- target.SetCompositeDeviceCommand{Sender: c}:
		default:
			log.Errorf("controller %s: target %s command queue full on attach", c.name, path)
		}

		log.Infof("controller %s: target %s attached (%s)", c.name, path, at.Kind)
	}
}
