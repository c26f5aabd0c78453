package profile

import (
	"github.com/bnema/inputplumberd/internal/event"
)

// Matcher decides whether a ProfileMapping applies to an observed source
// value. The zero Matcher (all fields nil) always accepts.
type Matcher struct {
	// Pressed, if non-nil, requires the source value's Pressed() to equal
	// *Pressed.
	Pressed *bool
	// Min/Max, if non-nil, require an AxisF/Axis2D.X value within range
	// (inclusive).
	Min *float64
	Max *float64
}

// Accepts reports whether v satisfies m.
func (m Matcher) Accepts(v event.Value) bool {
	if m.Pressed != nil && v.Pressed() != *m.Pressed {
		return false
	}
	if m.Min != nil || m.Max != nil {
		x := axisValue(v)
		if m.Min != nil && x < *m.Min {
			return false
		}
		if m.Max != nil && x > *m.Max {
			return false
		}
	}
	return true
}

func axisValue(v event.Value) float64 {
	switch v.Kind {
	case event.ValueAxisF:
		return v.F
	case event.ValueAxis2D:
		return v.X
	default:
		return 0
	}
}

// Translator converts one source value into zero-or-one target values.
// Returning event.NoneValue, false, nil drops the event silently (the
// "None" translator outcome in the spec's taxonomy); returning a non-nil
// error is one of the four TranslationError kinds.
type Translator func(v event.Value) (out event.Value, emit bool, err error)

// Passthrough emits the source value unchanged.
func Passthrough(v event.Value) (event.Value, bool, error) {
	return v, true, nil
}

// BoolTranslator emits Bool(v.Pressed()) regardless of the source value's
// native kind, letting an axis or trigger drive a button-shaped target.
func BoolTranslator(v event.Value) (event.Value, bool, error) {
	return event.BoolValue(v.Pressed()), true, nil
}

// Invert negates an AxisF or Axis2D value; fails ImpossibleTranslation on
// Bool/None, since there is nothing to invert.
func Invert(v event.Value) (event.Value, bool, error) {
	switch v.Kind {
	case event.ValueAxisF:
		return event.AxisFValue(-v.F), true, nil
	case event.ValueAxis2D:
		return event.Axis2DValue(-v.X, -v.Y), true, nil
	default:
		return event.NoneValue, false, impossibleTranslation("cannot invert a %v value", v.Kind)
	}
}

// Scale multiplies an AxisF/Axis2D value by factor.
func Scale(factor float64) Translator {
	return func(v event.Value) (event.Value, bool, error) {
		switch v.Kind {
		case event.ValueAxisF:
			return event.AxisFValue(v.F * factor), true, nil
		case event.ValueAxis2D:
			return event.Axis2DValue(v.X*factor, v.Y*factor), true, nil
		default:
			return event.NoneValue, false, impossibleTranslation("cannot scale a %v value", v.Kind)
		}
	}
}

// Deadzone converts an AxisF value to a Bool, pressed when its magnitude
// exceeds threshold. This is how an analog trigger drives a button-shaped
// target capability.
func Deadzone(threshold float64) Translator {
	return func(v event.Value) (event.Value, bool, error) {
		if v.Kind != event.ValueAxisF {
			return event.NoneValue, false, impossibleTranslation("deadzone translator requires an AxisF value, got %v", v.Kind)
		}
		mag := v.F
		if mag < 0 {
			mag = -mag
		}
		return event.BoolValue(mag > threshold), true, nil
	}
}
