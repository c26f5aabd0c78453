package target

import (
	"context"
	"fmt"

	"github.com/ThomasT75/uinput"
	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/event"
)

// KeyboardTarget emits NativeEvents as a virtual uinput keyboard.
type KeyboardTarget struct {
	path     string
	dev      uinput.Keyboard
	commands chan Command
	sender   CompositeSender
}

// NewKeyboardTarget creates a virtual keyboard at path, named name.
func NewKeyboardTarget(path string, name []byte) (*KeyboardTarget, error) {
	dev, err := uinput.CreateKeyboard(path, name)
	if err != nil {
		return nil, fmt.Errorf("target: create keyboard %s: %w", path, err)
	}
	return &KeyboardTarget{path: path, dev: dev, commands: make(chan Command, 64)}, nil
}

func (t *KeyboardTarget) Path() string             { return t.path }
func (t *KeyboardTarget) Kind() Kind               { return KindKeyboard }
func (t *KeyboardTarget) Commands() chan<- Command { return t.commands }

// Run implements Backend.
func (t *KeyboardTarget) Run(ctx context.Context) error {
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
				c.Reply <- capability.NewSet() // always empty; write accepts any Keyboard code
			case WriteEventCommand:
				if err := t.write(c.Event); err != nil {
					log.Errorf("target: keyboard %s: %v", t.path, err)
				}
			}
		}
	}
}

func (t *KeyboardTarget) write(e event.NativeEvent) error {
	c := e.Capability()
	if c.Kind != capability.KindKeyboard {
		return fmt.Errorf("keyboard target cannot emit capability %v", c)
	}
	if e.Pressed() {
		return t.dev.KeyDown(c.Code)
	}
	return t.dev.KeyUp(c.Code)
}
