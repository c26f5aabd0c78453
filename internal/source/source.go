// Package source implements the controller's view of a physical input
// source: the scheme/path contract of spec.md §6, the command channel the
// controller uses to drive a source, and the concrete backends
// (evdev today; hidraw/iio share the same contract but are out of scope
// for this repo's minimal backend set).
package source

import (
	"context"
	"fmt"
	"strings"
)

// Scheme identifies which kernel subsystem backs a source device.
type Scheme string

const (
	SchemeEvdev  Scheme = "evdev"
	SchemeHidraw Scheme = "hidraw"
	SchemeIIO    Scheme = "iio"
)

// Split parses a source id of the form "<scheme>://<name>" into its scheme
// and kernel-level name.
func Split(id string) (scheme Scheme, name string, err error) {
	parts := strings.SplitN(id, "://", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("source: malformed id %q", id)
	}
	return Scheme(parts[0]), parts[1], nil
}

// KernelPath derives the backing kernel device-node path for a source id,
// per the fixed mapping in spec.md §6. IIO paths live under sysfs and are
// never hidden by internal/udevhide.
func KernelPath(id string) (string, error) {
	scheme, name, err := Split(id)
	if err != nil {
		return "", err
	}
	switch scheme {
	case SchemeEvdev:
		return "/dev/input/" + name, nil
	case SchemeHidraw:
		return "/dev/" + name, nil
	case SchemeIIO:
		return "/sys/bus/iio/devices/" + name, nil
	default:
		return "", fmt.Errorf("source: unknown scheme %q in id %q", scheme, id)
	}
}

// IsIIO reports whether id names an IIO source; IIO kernel nodes are never
// hidden (spec.md §4.5).
func IsIIO(id string) bool {
	scheme, _, err := Split(id)
	return err == nil && scheme == SchemeIIO
}

// Info describes a source device as passed to the controller in
// SourceDeviceAdded.
type Info struct {
	ID   string
	Path string
}

// RawEvent is the kernel-level event a backend decodes from the device and
// hands to the controller's ProcessEvent command.
type RawEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// UploadResult is the reply to an UploadEffect command: the source-local
// effect id the kernel assigned, or an error.
type UploadResult struct {
	EffectID int
	Err      error
}

// Command is the controller-to-source command contract of spec.md §6.
// Concrete commands are the typed structs below; a backend's Run loop
// selects on its command channel alongside its own event-read loop.
type Command interface{ isSourceCommand() }

// StopCommand requests the source task terminate.
type StopCommand struct{}

func (StopCommand) isSourceCommand() {}

// WriteEventCommand asks the source to emit a raw event to its backing
// device (used for force-feedback play passthrough).
type WriteEventCommand struct{ Event RawEvent }

func (WriteEventCommand) isSourceCommand() {}

// UploadEffectCommand asks the source to upload force-feedback effect data
// and reply with the source-local effect id it was assigned.
type UploadEffectCommand struct {
	Data  []byte
	Reply chan<- UploadResult
}

func (UploadEffectCommand) isSourceCommand() {}

// UpdateEffectCommand asks the source to replace the data of an
// already-uploaded effect in place.
type UpdateEffectCommand struct {
	EffectID int
	Data     []byte
}

func (UpdateEffectCommand) isSourceCommand() {}

// EraseEffectCommand asks the source to erase a previously uploaded effect
// and reply once done (or with an error).
type EraseEffectCommand struct {
	EffectID int
	Reply    chan<- error
}

func (EraseEffectCommand) isSourceCommand() {}

// Controller is the narrow callback surface a source backend needs from
// the composite device controller, kept separate from the controller
// package to avoid an import cycle (controller imports source, not the
// reverse).
type Controller interface {
	ProcessEvent(sourceID string, raw RawEvent)
	SourceDeviceStopped(sourceID string)
}

// Backend is a running source device: something with a command channel and
// a blocking Run loop, per spec.md §4.5 ("Running").
type Backend interface {
	Info() Info
	Commands() chan<- Command
	Run(ctx context.Context) error
}
