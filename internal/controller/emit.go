package controller

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/event"
	"github.com/bnema/inputplumberd/internal/target"
)

// chordStagger separates successive writes of a staggered chord (spec.md
// §4.2.2, §9).
const chordStagger = 80 * time.Millisecond

// debounceWindow is how long a capability is held in translated_recent_events
// before a duplicate of it is let back through immediately (spec.md §4.2.1,
// §4.2.3).
const debounceWindow = 4 * time.Millisecond

// emit applies the fan-out rule of spec.md §4.2.3 and reports an error if
// the try-send to any destination target's command queue failed (its
// buffer was full) — the Go analogue of a send failure against a dead
// peer, since target command channels are never explicitly closed.
func (c *Controller) emit(e event.NativeEvent) error {
	if e.Capability().IsDBus() || c.interceptMode == InterceptAlways {
		return c.sendToAll(c.targetDBusDevices, e)
	}
	return c.sendToAll(c.targetDevices, e)
}

func (c *Controller) sendToAll(targets map[string]chan<- target.Command, e event.NativeEvent) error {
	var failed []string
	for path, ch := range targets {
		select {
		case ch <- target.WriteEventCommand{Event: e}:
		default:
			failed = append(failed, path)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("controller %s: target queue(s) full: %v", c.name, failed)
	}
	return nil
}

// writeEvent implements the WriteEvent command: direct emission bypassing
// translation. Failures are logged, not propagated (spec.md §4.1 table).
func (c *Controller) writeEvent(e event.NativeEvent) {
	if err := c.emit(e); err != nil {
		log.Errorf("%v", err)
	}
}

// writeChordEvent implements WriteChordEvent: emit a sequence of events
// 80ms apart, using a stagger counter local to this call so concurrent
// chord writes don't interfere with each other's cadence (SPEC_FULL.md §4
// point 5). Every write is scheduled, even the first at zero delay,
// matching the original's uniform per-event spawn.
func (c *Controller) writeChordEvent(events []event.NativeEvent) {
	var stagger time.Duration
	for _, e := range events {
		ev := e
		delay := stagger
		stagger += chordStagger
		time.AfterFunc(delay, func() { c.Post(WriteEventCommand{Event: ev}) })
	}
}

// writeSendEvent implements WriteSendEvent: external injection that first
// runs the new-active filter (so intercept bookkeeping stays consistent)
// then applies the same 4ms debounce as capability-map translation before
// emitting (spec.md §4.2.3).
func (c *Controller) writeSendEvent(e event.NativeEvent) {
	cap := e.Capability()
	if tracksActiveInputs(cap) {
		c.isNewActiveEvent(cap, e.Pressed())
	}

	if c.translatedRecentEvents.Contains(cap) {
		ev := e
		time.AfterFunc(debounceWindow, func() { c.Post(WriteEventCommand{Event: ev}) })
		return
	}
	c.translatedRecentEvents.Add(cap)
	time.AfterFunc(debounceWindow, func() { c.Post(RemoveRecentEventCommand{Cap: cap}) })
	c.writeEvent(e)
}

// enqueueChordEvent implements §4.2.1's "Enqueue": debounce-gate a
// synthesized capability-map target event before it re-enters the
// pipeline through handle_event. Called from inside the capability-map
// translation path that runs as part of ProcessEvent, so an emission
// failure here propagates like any other ProcessEvent-originated target
// write.
func (c *Controller) enqueueChordEvent(e event.NativeEvent) error {
	cap := e.Capability()
	if c.translatedRecentEvents.Contains(cap) {
		ev := e
		time.AfterFunc(debounceWindow, func() { c.Post(HandleEventCommand{Event: ev}) })
		return nil
	}
	c.translatedRecentEvents.Add(cap)
	time.AfterFunc(debounceWindow, func() { c.Post(RemoveRecentEventCommand{Cap: cap}) })
	return c.handleEvent(e)
}
