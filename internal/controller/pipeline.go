package controller

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/event"
	"github.com/bnema/inputplumberd/internal/source"
)

// scheduleMS posts fn to run once after delayMS milliseconds.
func scheduleMS(delayMS int64, fn func()) {
	time.AfterFunc(time.Duration(delayMS)*time.Millisecond, fn)
}

// processEvent implements the ProcessEvent command: decode, drop invalid or
// blocked events, then route into capability-map translation or straight
// into handle_event (spec.md §4.2). A target send failure anywhere in this
// call chain is fatal, per spec.md §4.1's table and its Open Question note
// preserving that asymmetry with every other *Event* handler.
func (c *Controller) processEvent(sourceID string, raw source.RawEvent) error {
	if _, blocked := c.sourceDevicesBlocked[sourceID]; blocked {
		return nil
	}

	cap, value := source.Decode(raw)
	if cap == capability.NotImplemented {
		return nil
	}

	e := event.New(cap, value)

	if c.capabilityMap != nil && c.capabilityMap.Translatable(cap) {
		return c.translateCapabilityMap(e)
	}
	return c.handleEvent(e)
}

// translateCapabilityMap implements §4.2.1: maintain
// translatable_active_inputs, then walk the capability map in declaration
// order firing release and press chords as their source sets complete or
// empty out.
func (c *Controller) translateCapabilityMap(e event.NativeEvent) error {
	cap := e.Capability()
	pressed := e.Pressed()

	if pressed {
		if c.translatableActiveInputs.Contains(cap) {
			return nil
		}
		c.translatableActiveInputs.Add(cap)
	} else {
		if !c.translatableActiveInputs.Contains(cap) {
			return nil
		}
		delete(c.translatableActiveInputs, cap)
	}

	var firstErr error
	for _, m := range c.capabilityMap.Mapping {
		_, emitted := c.emittedMappings[m.Name]
		if !pressed && emitted {
			if m.NoSourceActive(c.translatableActiveInputs) {
				if err := c.enqueueChordEvent(event.New(m.TargetEvent, event.BoolValue(false))); err != nil && firstErr == nil {
					firstErr = err
				}
				delete(c.emittedMappings, m.Name)
			}
			continue
		}
		if pressed && m.AllSourcesActive(c.translatableActiveInputs) {
			if err := c.enqueueChordEvent(event.New(m.TargetEvent, event.BoolValue(true))); err != nil && firstErr == nil {
				firstErr = err
			}
			c.emittedMappings[m.Name] = struct{}{}
		}
	}
	return firstErr
}

// translateProfile runs the loaded device profile's translation for one
// native event, returning (nil, false, nil) when there is no profile or no
// matching mapping, meaning the caller should pass the event through
// unchanged (spec.md §4.2.2).
func (c *Controller) translateProfile(e event.NativeEvent) ([]event.NativeEvent, bool, error) {
	if c.profile == nil {
		return nil, false, nil
	}
	return c.profile.Translate(e.Capability(), e.Value)
}

// handleEvent implements §4.2.2: profile translation, chord detection and
// reversal on release, the new-active/intercept filter for
// Keyboard/Gamepad.Button/Mouse.Button events, and staggered or direct
// emission. Only the non-chord, directly-emitted path can return a
// non-nil error; chord writes are always scheduled and so never fail
// synchronously (matching the original, where the spawned chord task logs
// its own send failures).
func (c *Controller) handleEvent(e event.NativeEvent) error {
	pressed := e.Pressed()

	events, matched, terr := c.translateProfile(e)
	if terr != nil {
		log.Warnf("controller %s: profile translate %v: %v", c.name, e.Capability(), terr)
	}
	if !matched {
		events = []event.NativeEvent{e}
	}

	chord := len(events) > 1
	var staggerMS int64
	if chord && !pressed {
		events = reverseEvents(events)
		staggerMS = 80 * int64(len(events))
	}

	pass := c.interceptMode == InterceptPass

	var firstErr error
	for _, out := range events {
		cap := out.Capability()
		if tracksActiveInputs(cap) {
			if !c.isNewActiveEvent(cap, pressed) {
				continue
			}
			if c.isInterceptEvent(out, pressed, pass) {
				continue
			}
		}

		if chord {
			ev := out
			delay := staggerMS
			staggerMS += 80
			scheduleMS(delay, func() { c.Post(WriteEventCommand{Event: ev}) })
			continue
		}

		if err := c.emit(out); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// reverseEvents returns a new slice with events in reverse order, so "down"
// chord members finish emitting before their paired "up" members begin
// (spec.md §4.2.2).
func reverseEvents(events []event.NativeEvent) []event.NativeEvent {
	out := make([]event.NativeEvent, len(events))
	for i, e := range events {
		out[len(events)-1-i] = e
	}
	return out
}
