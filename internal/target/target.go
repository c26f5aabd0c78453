// Package target implements the controller's view of a virtual target
// device: the command channel contract of spec.md §6 and the concrete
// uinput- and dbus-backed emitters.
package target

import (
	"context"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/event"
)

// Kind identifies which concrete virtual device a target emits as.
type Kind int

const (
	KindKeyboard Kind = iota
	KindMouse
	KindGamepad
	KindDBus
)

func (k Kind) String() string {
	switch k {
	case KindKeyboard:
		return "keyboard"
	case KindMouse:
		return "mouse"
	case KindGamepad:
		return "gamepad"
	case KindDBus:
		return "dbus"
	default:
		return "unknown"
	}
}

// CompositeSender is the narrow callback surface a target backend needs
// from the composite device controller (output events, e.g. rumble),
// kept separate to avoid an import cycle.
type CompositeSender interface {
	ProcessOutputEvent(targetPath string, evt OutputEvent)
}

// OutputEventKind discriminates the three force-feedback requests a target
// sink can make of the composite device (spec.md §4.4).
type OutputEventKind int

const (
	// OutputPlay asks the broker to rewrite a FORCEFEEDBACK play event
	// (effect id + magnitude) to each source's own effect id.
	OutputPlay OutputEventKind = iota
	// OutputUpload asks the broker to upload (or update, if EffectID names
	// an effect already known) rumble effect Data, replying on Reply with
	// the virtual effect id, or -1 if no source accepted it.
	OutputUpload
	// OutputErase asks the broker to erase a previously uploaded effect.
	OutputErase
)

// OutputEvent is an event flowing from a target sink back to the
// controller (e.g. a force-feedback play request) for broker translation
// and fan-out to source devices (spec.md §4.4).
type OutputEvent struct {
	Kind     OutputEventKind
	EffectID int
	Value    int32
	Data     []byte
	Reply    chan<- int
}

// Command is the controller-to-target command contract of spec.md §6.
type Command interface{ isTargetCommand() }

// StopCommand requests the target task terminate and release its device.
type StopCommand struct{}

func (StopCommand) isTargetCommand() {}

// WriteEventCommand asks the target to emit a NativeEvent.
type WriteEventCommand struct{ Event event.NativeEvent }

func (WriteEventCommand) isTargetCommand() {}

// SetCompositeDeviceCommand attaches the target to its owning controller
// so it can report output events back.
type SetCompositeDeviceCommand struct{ Sender CompositeSender }

func (SetCompositeDeviceCommand) isTargetCommand() {}

// GetCapabilitiesCommand asks the target to report the capabilities it can
// emit, on the given reply channel.
type GetCapabilitiesCommand struct{ Reply chan<- capability.Set }

func (GetCapabilitiesCommand) isTargetCommand() {}

// Backend is a running target device.
type Backend interface {
	Path() string
	Kind() Kind
	Commands() chan<- Command
	Run(ctx context.Context) error
}
