package source

import (
	"context"
	"fmt"
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/event"
	"github.com/charmbracelet/log"
)

// Linux input-event-codes.h boundaries used to classify an EV_KEY code
// into a capability family. BTN_MOUSE..BTN_TASK (0x110-0x117) are mouse
// buttons; BTN_GAMEPAD up to but not including BTN_DPAD_UP (0x130-0x21f)
// are gamepad buttons numbered from BTN_GAMEPAD; every other code up to
// KEY_MAX, the BTN_JOYSTICK range included, is a keyboard key.
const (
	btnMisc    = 0x100
	btnMouse   = 0x110
	btnJoyHigh = 0x110 + 8 // BTN_MOUSE..BTN_TASK spans mouse buttons
	btnGamepad = 0x130
	btnDPad    = 0x220
	keyMax     = 0x2ff
)

// classifyKey converts an EV_KEY code into the capability it represents.
func classifyKey(code uint16) capability.Capability {
	switch {
	case code >= btnMouse && code < btnJoyHigh:
		return capability.MouseButton(int(code - btnMouse))
	case code >= btnGamepad && code < btnDPad:
		return capability.GamepadButton(int(code - btnGamepad))
	case code < btnMisc || code <= keyMax:
		return capability.Keyboard(int(code))
	default:
		return capability.NotImplemented
	}
}

// classifyRel converts an EV_REL code into the capability it represents.
// Relative axes are always treated as mouse motion; the two-axis value is
// assembled by the caller from REL_X/REL_Y pairs.
func classifyRel(code uint16) capability.Capability {
	const (
		relX = 0
		relY = 1
	)
	if code == relX || code == relY {
		return capability.MouseMotion
	}
	return capability.NotImplemented
}

// Decode classifies a raw kernel event into its capability and value,
// following the same EV_KEY/EV_REL rules as HarvestCapabilities. Any other
// event type (EV_SYN, EV_MSC, ...) decodes to capability.NotImplemented and
// is silently dropped by the caller.
func Decode(raw RawEvent) (capability.Capability, event.Value) {
	switch raw.Type {
	case evdev.EV_KEY:
		return classifyKey(raw.Code), event.BoolValue(raw.Value != 0)
	case evdev.EV_REL:
		const relX = 0
		c := classifyRel(raw.Code)
		if c == capability.NotImplemented {
			return c, event.NoneValue
		}
		if raw.Code == relX {
			return c, event.Axis2DValue(float64(raw.Value), 0)
		}
		return c, event.Axis2DValue(0, float64(raw.Value))
	default:
		return capability.NotImplemented, event.NoneValue
	}
}

// HarvestCapabilities inspects an opened evdev device's advertised
// capabilities and returns the set of inputplumberd capabilities it can
// produce. Capabilities already claimed by the static capability map
// (exclude) are left out, per spec.md §4.5.
func HarvestCapabilities(dev *evdev.InputDevice, exclude capability.Set) capability.Set {
	out := capability.NewSet()
	for capType, codes := range dev.Capabilities {
		for _, code := range codes {
			var c capability.Capability
			switch capType.Type {
			case evdev.EV_KEY:
				c = classifyKey(uint16(code.Code))
			case evdev.EV_REL:
				c = classifyRel(uint16(code.Code))
			default:
				continue
			}
			if c == capability.NotImplemented {
				continue
			}
			if exclude.Contains(c) {
				continue
			}
			out.Add(c)
		}
	}
	return out
}

// EvdevDevice is a running evdev-backed source. It owns the open kernel
// device handle, reads its event stream, and forwards decoded events to a
// Controller, while also accepting the source command contract.
type EvdevDevice struct {
	id       string
	path     string
	dev      *evdev.InputDevice
	commands chan Command
	ctrl     Controller
}

// OpenEvdev opens the kernel device at path and wraps it as a running
// source backend identified by id (of the form "evdev://evN").
func OpenEvdev(id, path string, ctrl Controller) (*EvdevDevice, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open evdev device %s: %w", path, err)
	}
	return &EvdevDevice{
		id:       id,
		path:     path,
		dev:      dev,
		commands: make(chan Command, 64),
		ctrl:     ctrl,
	}, nil
}

// Info implements Backend.
func (d *EvdevDevice) Info() Info { return Info{ID: d.id, Path: d.path} }

// Commands implements Backend.
func (d *EvdevDevice) Commands() chan<- Command { return d.commands }

// Run implements Backend: it grabs the device (exclusive input), reads
// events until ctx is cancelled or a StopCommand arrives, and always
// notifies the controller it has stopped on exit (spec.md §4.5, "Running").
func (d *EvdevDevice) Run(ctx context.Context) error {
	defer d.ctrl.SourceDeviceStopped(d.id)

	if err := d.dev.Grab(); err != nil {
		log.Warnf("source: grab %s failed: %v", d.id, err)
	}
	defer d.dev.Release()

	events := make(chan evdev.InputEvent, 64)
	errs := make(chan error, 1)
	go d.readLoop(events, errs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-d.commands:
			if _, ok := cmd.(StopCommand); ok {
				return nil
			}
			d.handleCommand(cmd)
		case ev := <-events:
			d.ctrl.ProcessEvent(d.id, RawEvent{Type: ev.Type, Code: ev.Code, Value: ev.Value})
		case err := <-errs:
			return err
		}
	}
}

func (d *EvdevDevice) readLoop(out chan<- evdev.InputEvent, errs chan<- error) {
	for {
		evs, err := d.dev.Read()
		if err != nil {
			errs <- fmt.Errorf("source: read %s: %w", d.id, err)
			return
		}
		for _, ev := range evs {
			out <- ev
		}
	}
}

func (d *EvdevDevice) handleCommand(cmd Command) {
	switch c := cmd.(type) {
	case WriteEventCommand:
		if err := writeFFPlay(d.dev, c.Event); err != nil {
			log.Errorf("source: %s: write event: %v", d.id, err)
		}
	case UploadEffectCommand:
		id, err := uploadFFEffect(d.dev, c.Data)
		select {
		case c.Reply <- UploadResult{EffectID: id, Err: err}:
		case <-time.After(time.Second):
			log.Warnf("source: %s: upload effect reply timed out", d.id)
		}
	case UpdateEffectCommand:
		if err := updateFFEffect(d.dev, c.EffectID, c.Data); err != nil {
			log.Errorf("source: %s: update effect %d: %v", d.id, c.EffectID, err)
		}
	case EraseEffectCommand:
		err := eraseFFEffect(d.dev, c.EffectID)
		select {
		case c.Reply <- err:
		case <-time.After(time.Second):
			log.Warnf("source: %s: erase effect reply timed out", d.id)
		}
	}
}
