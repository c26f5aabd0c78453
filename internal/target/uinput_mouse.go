package target

import (
	"context"
	"fmt"

	"github.com/ThomasT75/uinput"
	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/event"
)

// MouseTarget emits NativeEvents as a virtual uinput mouse: relative
// motion and the three standard buttons.
type MouseTarget struct {
	path     string
	dev      uinput.Mouse
	commands chan Command
	sender   CompositeSender
}

// NewMouseTarget creates a virtual mouse at path, named name.
func NewMouseTarget(path string, name []byte) (*MouseTarget, error) {
	dev, err := uinput.CreateMouse(path, name)
	if err != nil {
		return nil, fmt.Errorf("target: create mouse %s: %w", path, err)
	}
	return &MouseTarget{path: path, dev: dev, commands: make(chan Command, 64)}, nil
}

func (t *MouseTarget) Path() string             { return t.path }
func (t *MouseTarget) Kind() Kind               { return KindMouse }
func (t *MouseTarget) Commands() chan<- Command { return t.commands }

// Run implements Backend.
func (t *MouseTarget) Run(ctx context.Context) error {
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
				c.Reply <- capability.NewSet(
					capability.MouseMotion,
					capability.MouseButton(capability.MouseButtonLeft),
					capability.MouseButton(capability.MouseButtonRight),
					capability.MouseButton(capability.MouseButtonMiddle),
				)
			case WriteEventCommand:
				if err := t.write(c.Event); err != nil {
					log.Errorf("target: mouse %s: %v", t.path, err)
				}
			}
		}
	}
}

func (t *MouseTarget) write(e event.NativeEvent) error {
	c := e.Capability()
	switch c.Kind {
	case capability.KindMouseMotion:
		return t.dev.Move(int32(e.Value.X), int32(e.Value.Y))
	case capability.KindMouseButton:
		return t.writeButton(c.Code, e.Pressed())
	default:
		return fmt.Errorf("mouse target cannot emit capability %v", c)
	}
}

func (t *MouseTarget) writeButton(code int, pressed bool) error {
	switch code {
	case capability.MouseButtonLeft:
		if pressed {
			return t.dev.LeftPress()
		}
		return t.dev.LeftRelease()
	case capability.MouseButtonRight:
		if pressed {
			return t.dev.RightPress()
		}
		return t.dev.RightRelease()
	case capability.MouseButtonMiddle:
		if pressed {
			return t.dev.MiddlePress()
		}
		return t.dev.MiddleRelease()
	default:
		return fmt.Errorf("unknown mouse button %d", code)
	}
}
