// Package capability defines the tagged Capability value used throughout
// inputplumberd to identify one semantic input class (a gamepad button, a
// keyboard key, a mouse axis, a control-bus signal, ...).
package capability

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variant carried by a Capability.
type Kind int

const (
	KindNone Kind = iota
	KindNotImplemented
	KindSync
	KindKeyboard
	KindMouseMotion
	KindMouseButton
	KindGamepadButton
	KindGamepadAxis
	KindGamepadTrigger
	KindGamepadAccelerometer
	KindGamepadGyro
	KindTouchpad
	KindDBus
)

// Capability is a tagged value identifying one semantic input class. It is
// comparable and safe to use as a map key.
type Capability struct {
	Kind Kind
	Code int
	Name string
}

// NotImplemented is the sentinel capability for events that have no
// recognized meaning. Commands carrying it are dropped (spec.md §4.1, §7).
var NotImplemented = Capability{Kind: KindNotImplemented}

// None is the zero-value capability, used for sync/padding events that are
// never filtered or routed specially.
var None = Capability{Kind: KindNone}

// Sync is the EV_SYN passthrough capability.
var Sync = Capability{Kind: KindSync}

// Keyboard key codes, named for readability (values are Linux evdev keycodes).
const (
	KeyA     = 30
	KeyB     = 48
	KeyC     = 46
	KeyEsc   = 1
	KeySpace = 57
)

// Keyboard builds a Keyboard(code) capability.
func Keyboard(code int) Capability { return Capability{Kind: KindKeyboard, Code: code} }

// Gamepad button identifiers.
const (
	GamepadButtonSouth = iota
	GamepadButtonEast
	GamepadButtonNorth
	GamepadButtonWest
	GamepadButtonGuide
	GamepadButtonStart
	GamepadButtonSelect
	GamepadButtonLeftBumper
	GamepadButtonRightBumper
	GamepadButtonLeftStick
	GamepadButtonRightStick
	GamepadButtonDPadUp
	GamepadButtonDPadDown
	GamepadButtonDPadLeft
	GamepadButtonDPadRight
)

// GamepadButton builds a Gamepad.Button(code) capability.
func GamepadButton(code int) Capability { return Capability{Kind: KindGamepadButton, Code: code} }

// Gamepad axis identifiers.
const (
	GamepadAxisLeftStick = iota
	GamepadAxisRightStick
)

// GamepadAxis builds a Gamepad.Axis(code) capability.
func GamepadAxis(code int) Capability { return Capability{Kind: KindGamepadAxis, Code: code} }

// Gamepad trigger identifiers.
const (
	GamepadTriggerLeft = iota
	GamepadTriggerRight
)

// GamepadTrigger builds a Gamepad.Trigger(code) capability.
func GamepadTrigger(code int) Capability { return Capability{Kind: KindGamepadTrigger, Code: code} }

// GamepadAccelerometer and GamepadGyro are singleton capabilities.
var (
	GamepadAccelerometer = Capability{Kind: KindGamepadAccelerometer}
	GamepadGyro          = Capability{Kind: KindGamepadGyro}
)

// Mouse button identifiers.
const (
	MouseButtonLeft = iota
	MouseButtonRight
	MouseButtonMiddle
)

// MouseMotion is the relative-motion mouse capability.
var MouseMotion = Capability{Kind: KindMouseMotion}

// MouseButton builds a Mouse.Button(code) capability.
func MouseButton(code int) Capability { return Capability{Kind: KindMouseButton, Code: code} }

// Touchpad builds a Touchpad(code) capability; code distinguishes finger
// slots or axes as defined by the source device.
func Touchpad(code int) Capability { return Capability{Kind: KindTouchpad, Code: code} }

// DBus builds a DBus(name) capability used for control-bus-routed signals.
func DBus(name string) Capability { return Capability{Kind: KindDBus, Name: name} }

// IsDBus reports whether c carries the DBus variant.
func (c Capability) IsDBus() bool { return c.Kind == KindDBus }

func (c Capability) String() string {
	switch c.Kind {
	case KindNone:
		return "None"
	case KindNotImplemented:
		return "NotImplemented"
	case KindSync:
		return "Sync"
	case KindKeyboard:
		return fmt.Sprintf("Keyboard(%d)", c.Code)
	case KindMouseMotion:
		return "Mouse.Motion"
	case KindMouseButton:
		return fmt.Sprintf("Mouse.Button(%d)", c.Code)
	case KindGamepadButton:
		return fmt.Sprintf("Gamepad.Button(%d)", c.Code)
	case KindGamepadAxis:
		return fmt.Sprintf("Gamepad.Axis(%d)", c.Code)
	case KindGamepadTrigger:
		return fmt.Sprintf("Gamepad.Trigger(%d)", c.Code)
	case KindGamepadAccelerometer:
		return "Gamepad.Accelerometer"
	case KindGamepadGyro:
		return "Gamepad.Gyro"
	case KindTouchpad:
		return fmt.Sprintf("Touchpad(%d)", c.Code)
	case KindDBus:
		return fmt.Sprintf("DBus(%s)", c.Name)
	default:
		return "Unknown"
	}
}

// Parse converts a capability's String() form back into a Capability, for
// bus-facing callers (e.g. SetInterceptActivation) that only have the
// string form to work with.
func Parse(s string) (Capability, error) {
	switch s {
	case "None":
		return None, nil
	case "NotImplemented":
		return NotImplemented, nil
	case "Sync":
		return Sync, nil
	case "Mouse.Motion":
		return MouseMotion, nil
	case "Gamepad.Accelerometer":
		return GamepadAccelerometer, nil
	case "Gamepad.Gyro":
		return GamepadGyro, nil
	}

	if code, ok := parseCoded(s, "Keyboard("); ok {
		return Keyboard(code), nil
	}
	if code, ok := parseCoded(s, "Mouse.Button("); ok {
		return MouseButton(code), nil
	}
	if code, ok := parseCoded(s, "Gamepad.Button("); ok {
		return GamepadButton(code), nil
	}
	if code, ok := parseCoded(s, "Gamepad.Axis("); ok {
		return GamepadAxis(code), nil
	}
	if code, ok := parseCoded(s, "Gamepad.Trigger("); ok {
		return GamepadTrigger(code), nil
	}
	if code, ok := parseCoded(s, "Touchpad("); ok {
		return Touchpad(code), nil
	}
	if name, ok := strings.CutPrefix(s, "DBus("); ok {
		if trimmed, ok := strings.CutSuffix(name, ")"); ok {
			return DBus(trimmed), nil
		}
	}

	return Capability{}, fmt.Errorf("capability: cannot parse %q", s)
}

func parseCoded(s, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ")")
	if !ok {
		return 0, false
	}
	code, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return code, true
}

// Set is a small capability set built on a map, matching the teacher's
// habit of using plain map[K]struct{} for membership sets.
type Set map[Capability]struct{}

// NewSet builds a Set from the given capabilities.
func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts c into the set.
func (s Set) Add(c Capability) { s[c] = struct{}{} }

// Contains reports whether c is a member.
func (s Set) Contains(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Slice returns the set's members in unspecified order.
func (s Set) Slice() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	return out
}
