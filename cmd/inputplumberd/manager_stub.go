package main

import (
	"fmt"

	"github.com/bnema/inputplumberd/internal/manager"
)

// unavailableManager answers every target-device request with an error. The
// device-discovery/creation manager that issues SourceDeviceAdded
// notifications and actually instantiates uinput/dbus target backends is an
// out-of-scope external collaborator (spec.md §1, §6); this stub lets the
// daemon link and run its controller loop standalone, with target creation
// failing loudly instead of silently doing nothing.
type unavailableManager struct{}

func (unavailableManager) CreateTargetDevice(req manager.CreateTargetDeviceRequest) {
	req.Reply <- manager.CreateTargetDeviceResult{
		Err: fmt.Errorf("device manager not wired in this build"),
	}
}

func (unavailableManager) AttachTargetDevice(req manager.AttachTargetDeviceRequest) {
	req.Reply <- fmt.Errorf("device manager not wired in this build")
}
