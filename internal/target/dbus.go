package target

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/event"
)

// DBusTarget delivers NativeEvents as signals on the session bus, under a
// fixed object path per target. This is the target the intercept state
// machine routes to while intercept_mode is Always, and the permanent home
// of DBus(...) capability events (spec.md §4.2.3).
type DBusTarget struct {
	path     string
	objPath  dbus.ObjectPath
	conn     *dbus.Conn
	commands chan Command
	sender   CompositeSender
}

// NewDBusTarget connects to the session bus and creates a dbus-routed
// target identified by path (used to derive its object path).
func NewDBusTarget(path string) (*DBusTarget, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("target: connect session bus for %s: %w", path, err)
	}
	return &DBusTarget{
		path:     path,
		objPath:  dbus.ObjectPath("/org/inputplumberd/Target/" + sanitize(path)),
		conn:     conn,
		commands: make(chan Command, 64),
	}, nil
}

func sanitize(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out[i] = c
		} else {
			out[i] = '_'
		}
	}
	return string(out)
}

func (t *DBusTarget) Path() string             { return t.path }
func (t *DBusTarget) Kind() Kind               { return KindDBus }
func (t *DBusTarget) Commands() chan<- Command { return t.commands }

// Run implements Backend.
func (t *DBusTarget) Run(ctx context.Context) error {
	defer t.conn.Close()
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
				c.Reply <- capability.NewSet()
			case WriteEventCommand:
				if err := t.write(c.Event); err != nil {
					log.Errorf("target: dbus %s: %v", t.path, err)
				}
			}
		}
	}
}

func (t *DBusTarget) write(e event.NativeEvent) error {
	c := e.Capability()
	return t.conn.Emit(t.objPath, "org.inputplumberd.Target.Event", c.String(), e.Pressed(), e.Value.X, e.Value.Y, e.Value.F)
}
