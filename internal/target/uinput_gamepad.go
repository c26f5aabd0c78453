package target

import (
	"context"
	"fmt"

	"github.com/ThomasT75/uinput"
	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/event"
)

// GamepadTarget emits NativeEvents as a virtual uinput gamepad: buttons,
// two analog sticks, and two analog triggers.
type GamepadTarget struct {
	path     string
	dev      uinput.Gamepad
	commands chan Command
	sender   CompositeSender
}

// NewGamepadTarget creates a virtual gamepad at path, named name, with the
// given USB vendor/product ids.
func NewGamepadTarget(path string, name []byte, vendor, product uint16) (*GamepadTarget, error) {
	dev, err := uinput.CreateGamepad(path, name, vendor, product)
	if err != nil {
		return nil, fmt.Errorf("target: create gamepad %s: %w", path, err)
	}
	return &GamepadTarget{path: path, dev: dev, commands: make(chan Command, 64)}, nil
}

func (t *GamepadTarget) Path() string             { return t.path }
func (t *GamepadTarget) Kind() Kind               { return KindGamepad }
func (t *GamepadTarget) Commands() chan<- Command { return t.commands }

// Run implements Backend.
func (t *GamepadTarget) Run(ctx context.Context) error {
	defer t.dev.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-t.commands:
			switch c := cmd.(type) {
			case StopCommand:
				return nil
			case SetCompositeDeviceCommand:
				t.sender = c.Sender
			case GetCapabilitiesCommand:
				caps := capability.NewSet(
					capability.GamepadAxis(capability.GamepadAxisLeftStick),
					capability.GamepadAxis(capability.GamepadAxisRightStick),
					capability.GamepadTrigger(capability.GamepadTriggerLeft),
					capability.GamepadTrigger(capability.GamepadTriggerRight),
				)
				for b := capability.GamepadButtonSouth; b <= capability.GamepadButtonDPadRight; b++ {
					caps.Add(capability.GamepadButton(b))
				}
				c.Reply <- caps
			case WriteEventCommand:
				if err := t.write(c.Event); err != nil {
					log.Errorf("target: gamepad %s: %v", t.path, err)
				}
			}
		}
	}
}

func (t *GamepadTarget) write(e event.NativeEvent) error {
	c := e.Capability()
	switch c.Kind {
	case capability.KindGamepadButton:
		if e.Pressed() {
			return t.dev.ButtonDown(c.Code)
		}
		return t.dev.ButtonUp(c.Code)
	case capability.KindGamepadAxis:
		x, y := float32(e.Value.X), float32(e.Value.Y)
		if c.Code == capability.GamepadAxisLeftStick {
			return t.dev.LeftStickMove(x, y)
		}
		return t.dev.RightStickMove(x, y)
	case capability.KindGamepadTrigger:
		if c.Code == capability.GamepadTriggerLeft {
			return t.dev.LeftTriggerMove(float32(e.Value.F))
		}
		return t.dev.RightTriggerMove(float32(e.Value.F))
	default:
		return fmt.Errorf("gamepad target cannot emit capability %v", c)
	}
}
