package controller

import (
	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/event"
)

// defaultInterceptActivation is the Gamepad.Button(Guide) chord the
// original uses when a profile leaves intercept_mode_target_cap and
// intercept_activation_caps unset (SPEC_FULL.md §4 point 1).
func defaultInterceptActivation() ([]capability.Capability, capability.Capability) {
	guide := capability.GamepadButton(capability.GamepadButtonGuide)
	return []capability.Capability{guide}, guide
}

// tracksActiveInputs reports whether cap belongs to one of the three
// capability classes gated by the new-active and intercept filters
// (spec.md §4.2.2): Keyboard, Gamepad.Button, Mouse.Button. Everything
// else (axes, triggers, accelerometer, gyro, touchpad, sync, DBus) is
// unconditional.
func tracksActiveInputs(cap capability.Capability) bool {
	switch cap.Kind {
	case capability.KindKeyboard, capability.KindGamepadButton, capability.KindMouseButton:
		return true
	default:
		return false
	}
}

// isNewActiveEvent implements the new-active filter of spec.md §4.3: a
// press of a capability not already active is recorded and processed; a
// release of one that is active is cleared and processed; a release of one
// that is not active is dropped (suppressing doubled releases); a repeat
// press is processed without changing the active set.
func (c *Controller) isNewActiveEvent(cap capability.Capability, pressed bool) bool {
	active := c.activeInputs.Contains(cap)
	if pressed && !active {
		c.activeInputs.Add(cap)
	}
	if !pressed && !active {
		return false
	}
	if !pressed && active {
		delete(c.activeInputs, cap)
	}
	return true
}

// isInterceptEvent implements the intercept filter of spec.md §4.3,
// dispatching to the singleton or multi-capability regime depending on the
// size of the configured activation chord. Returns true if the event was
// fully consumed (drop), false if the caller should keep processing it.
func (c *Controller) isInterceptEvent(e event.NativeEvent, pressed, pass bool) bool {
	if len(c.interceptActivationCaps) == 1 {
		return c.isInterceptEventSingle(e, pressed, pass)
	}
	return c.isInterceptEventMulti(e, pressed, pass)
}

// isInterceptEventSingle handles the |activation_caps| = 1 regime.
func (c *Controller) isInterceptEventSingle(e event.NativeEvent, pressed, pass bool) bool {
	cap := e.Capability()
	activation := c.interceptActivationCaps[0]

	if pass && cap == activation && pressed {
		if c.interceptActiveInputs.Contains(cap) {
			return true
		}
		c.interceptActiveInputs.Add(cap)
		c.interceptMode = InterceptAlways
		c.writeChordEvent([]event.NativeEvent{event.New(c.interceptModeTargetCap, e.Value)})
		return true
	}

	if cap == activation && c.interceptActiveInputs.Contains(cap) && !pressed {
		delete(c.interceptActiveInputs, cap)
		delete(c.activeInputs, cap)
		c.writeChordEvent([]event.NativeEvent{event.New(cap, e.Value)})
		return true
	}

	return false
}

// shouldHoldIntercept reports whether a press of cap should be held as a
// candidate partial match: either it is the first capability in the
// activation chord and nothing else is held yet, or some partial match is
// already in progress (spec.md §4.3, "held").
func (c *Controller) shouldHoldIntercept(cap capability.Capability) bool {
	if len(c.interceptActivationCaps) == 0 {
		return false
	}
	first := c.interceptActivationCaps[0]
	if len(c.interceptActiveInputs) == 0 {
		return cap == first
	}
	return true
}

// isInterceptEventMulti handles the |activation_caps| > 1 regime.
func (c *Controller) isInterceptEventMulti(e event.NativeEvent, pressed, pass bool) bool {
	cap := e.Capability()

	if pass && containsCap(c.interceptActivationCaps, cap) {
		if pressed && c.shouldHoldIntercept(cap) {
			if c.interceptActiveInputs.Contains(cap) {
				return true
			}
			c.interceptActiveInputs.Add(cap)
			if len(c.interceptActiveInputs) != len(c.interceptActivationCaps) {
				return true
			}

			for _, ac := range c.interceptActivationCaps {
				delete(c.activeInputs, ac)
			}
			c.interceptActiveInputs = capability.NewSet()
			c.interceptMode = InterceptAlways
			c.writeChordEvent([]event.NativeEvent{
				event.New(c.interceptModeTargetCap, event.BoolValue(true)),
				event.New(c.interceptModeTargetCap, event.BoolValue(false)),
			})
			return true
		}
		if !pressed && c.interceptActiveInputs.Contains(cap) {
			// A partial match was abandoned by one of its own held
			// capabilities releasing before the chord completed: release
			// every held capability as a press+release pair, in activation
			// chord order, then let the intruding release continue through
			// normal processing, the same unified consequence as the
			// unrelated-press trigger below (spec.md §4.3).
			chord := make([]event.NativeEvent, 0, len(c.interceptActiveInputs)*2)
			for _, h := range c.interceptActivationCaps {
				if !c.interceptActiveInputs.Contains(h) {
					continue
				}
				chord = append(chord, event.New(h, event.BoolValue(true)), event.New(h, event.BoolValue(false)))
			}
			c.interceptActiveInputs = capability.NewSet()
			c.writeChordEvent(chord)
			return false
		}
		return false
	}

	if len(c.interceptActiveInputs) > 0 && pressed {
		// A partial match was abandoned by an unrelated press: release
		// every held capability as a press+release pair, in activation chord
		// order, then let the intruding event continue through normal
		// processing (spec.md §4.3).
		chord := make([]event.NativeEvent, 0, len(c.interceptActiveInputs)*2)
		for _, h := range c.interceptActivationCaps {
			if !c.interceptActiveInputs.Contains(h) {
				continue
			}
			chord = append(chord, event.New(h, event.BoolValue(true)), event.New(h, event.BoolValue(false)))
		}
		c.interceptActiveInputs = capability.NewSet()
		c.writeChordEvent(chord)
		return false
	}

	return false
}

func containsCap(caps []capability.Capability, cap capability.Capability) bool {
	for _, c := range caps {
		if c == cap {
			return true
		}
	}
	return false
}
