// Package event defines the canonical in-core event representation used by
// the composite device controller.
package event

import "github.com/bnema/inputplumberd/internal/capability"

// ValueKind discriminates the variant carried by a Value.
type ValueKind int

const (
	// ValueNone carries no information; events of this kind are dropped by
	// a translator to mean "nothing to emit".
	ValueNone ValueKind = iota
	ValueBool
	ValueAxis2D
	ValueAxisF
)

// Value is the tagged value carried by a NativeEvent.
type Value struct {
	Kind ValueKind
	Bool bool
	X, Y float64
	F    float64
}

// BoolValue builds a Bool value.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// Axis2DValue builds an Axis2D value.
func Axis2DValue(x, y float64) Value { return Value{Kind: ValueAxis2D, X: x, Y: y} }

// AxisFValue builds a single-axis float value (triggers, gyro/accel axes).
func AxisFValue(f float64) Value { return Value{Kind: ValueAxisF, F: f} }

// NoneValue is the empty value.
var NoneValue = Value{Kind: ValueNone}

// Pressed reports whether this value represents an active/press state:
// Bool(true), or a nonzero axis.
func (v Value) Pressed() bool {
	switch v.Kind {
	case ValueBool:
		return v.Bool
	case ValueAxis2D:
		return v.X != 0 || v.Y != 0
	case ValueAxisF:
		return v.F != 0
	default:
		return false
	}
}

// NativeEvent is the canonical in-core event. Source is always set; Target
// and Translated are only meaningful once the event has passed through
// profile translation (event.Capability() returns whichever applies).
type NativeEvent struct {
	Source     capability.Capability
	Target     capability.Capability
	Translated bool
	Value      Value
}

// New builds an untranslated NativeEvent for the given capability.
func New(cap capability.Capability, value Value) NativeEvent {
	return NativeEvent{Source: cap, Value: value}
}

// NewTranslated builds a NativeEvent that records both the originating
// source capability and the translated target capability.
func NewTranslated(source, target capability.Capability, value Value) NativeEvent {
	return NativeEvent{Source: source, Target: target, Translated: true, Value: value}
}

// Capability returns the event's effective capability: the target
// capability if translated, otherwise the source capability.
func (e NativeEvent) Capability() capability.Capability {
	if e.Translated {
		return e.Target
	}
	return e.Source
}

// Pressed reports whether the event's value represents a press/active state.
func (e NativeEvent) Pressed() bool { return e.Value.Pressed() }
