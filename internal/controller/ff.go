package controller

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/source"
	"github.com/bnema/inputplumberd/internal/target"
)

// evFF is the Linux EV_FF event type, used to rewrite a force-feedback play
// request onto a source device's own command channel (spec.md §4.4).
const evFF = 0x15

// uploadReplyTimeout bounds how long the broker waits for one source's
// upload/erase reply before giving up on that source (spec.md §4.4).
const uploadReplyTimeout = time.Second

// ProcessOutputEvent implements target.CompositeSender: a target backend's
// own goroutine calls this to report an output event (force-feedback
// upload/erase/play) back to the controller, which posts it onto its own
// queue.
func (c *Controller) ProcessOutputEvent(targetPath string, evt target.OutputEvent) {
	c.Post(ProcessOutputEventCommand{TargetPath: targetPath, Event: evt})
}

// processOutputEvent dispatches one output event to the force-feedback
// broker. Unlike ProcessEvent, failures here are logged and do not break
// the controller loop (spec.md §4.1 table).
func (c *Controller) processOutputEvent(targetPath string, evt target.OutputEvent) {
	switch evt.Kind {
	case target.OutputUpload:
		c.uploadEffect(evt.Data, evt.EffectID, evt.Reply)
	case target.OutputErase:
		c.eraseEffect(evt.EffectID)
	case target.OutputPlay:
		c.playEffect(evt.EffectID, evt.Value)
	default:
		log.Warnf("controller %s: target %s: unknown output event kind %v", c.name, targetPath, evt.Kind)
	}
}

// uploadEffect implements spec.md §4.4 Upload. If effectID already names a
// known virtual effect, its data is replaced in place on every source that
// holds it. Otherwise the data is uploaded fresh to every source, and a new
// virtual id is popped from the pool for whichever sources accepted it.
func (c *Controller) uploadEffect(data []byte, effectID int, reply chan<- int) {
	if existing, ok := c.ffEffectIDSourceMap[effectID]; ok {
		for sourceID, srcEffectID := range existing {
			ch, ok := c.sourceDevices[sourceID]
			if !ok {
				continue
			}
			select {
			case ch <- source.UpdateEffectCommand{EffectID: srcEffectID, Data: data}:
			default:
				log.Errorf("controller %s: source %s command queue full on update effect", c.name, sourceID)
			}
		}
		c.reply(reply, effectID)
		return
	}

	sourceEffectIDs := make(ffEntry)
	for sourceID, ch := range c.sourceDevices {
		replyCh := make(chan source.UploadResult, 1)
		select {
		case ch <- source.UploadEffectCommand{Data: data, Reply: replyCh}:
		default:
			log.Errorf("controller %s: source %s command queue full on upload effect", c.name, sourceID)
			continue
		}
		select {
		case res := <-replyCh:
			if res.Err != nil {
				log.Debugf("controller %s: source %s failed to upload effect: %v", c.name, sourceID, res.Err)
				continue
			}
			sourceEffectIDs[sourceID] = res.EffectID
		case <-time.After(uploadReplyTimeout):
			log.Errorf("controller %s: source %s upload effect reply timed out", c.name, sourceID)
		}
	}

	if len(sourceEffectIDs) == 0 {
		log.Debugf("controller %s: no source accepted force-feedback upload", c.name)
		c.reply(reply, -1)
		return
	}

	virtualID, ok := c.popFreeFFID()
	if !ok {
		log.Warnf("controller %s: force-feedback effect id pool exhausted", c.name)
		c.reply(reply, -1)
		return
	}
	c.ffEffectIDSourceMap[virtualID] = sourceEffectIDs
	c.reply(reply, virtualID)
}

// eraseEffect implements spec.md §4.4 Erase.
func (c *Controller) eraseEffect(virtualID int) {
	sourceEffectIDs, ok := c.ffEffectIDSourceMap[virtualID]
	if ok {
		for sourceID, srcEffectID := range sourceEffectIDs {
			ch, ok := c.sourceDevices[sourceID]
			if !ok {
				continue
			}
			replyCh := make(chan error, 1)
			select {
			case ch <- source.EraseEffectCommand{EffectID: srcEffectID, Reply: replyCh}:
			default:
				log.Errorf("controller %s: source %s command queue full on erase effect", c.name, sourceID)
				continue
			}
			select {
			case err := <-replyCh:
				if err != nil {
					log.Debugf("controller %s: source %s failed to erase effect: %v", c.name, sourceID, err)
				}
			case <-time.After(uploadReplyTimeout):
				log.Errorf("controller %s: source %s erase effect reply timed out", c.name, sourceID)
			}
		}
	}
	delete(c.ffEffectIDSourceMap, virtualID)
	c.ffEffectIDs[virtualID] = struct{}{}
}

// playEffect rewrites a force-feedback play request (virtual effect id +
// magnitude) to each source's own effect id and writes it down that
// source's command channel.
func (c *Controller) playEffect(virtualID int, value int32) {
	sourceEffectIDs, ok := c.ffEffectIDSourceMap[virtualID]
	if !ok {
		log.Warnf("controller %s: play request for unknown effect id %d", c.name, virtualID)
		return
	}
	for sourceID, srcEffectID := range sourceEffectIDs {
		ch, ok := c.sourceDevices[sourceID]
		if !ok {
			continue
		}
		raw := source.RawEvent{Type: evFF, Code: uint16(srcEffectID), Value: value}
		select {
		case ch <- source.WriteEventCommand{Event: raw}:
		default:
			log.Errorf("controller %s: source %s command queue full on play effect", c.name, sourceID)
		}
	}
}

// popFreeFFID removes and returns the smallest free virtual effect id, or
// (0, false) if the pool is exhausted.
func (c *Controller) popFreeFFID() (int, bool) {
	best := -1
	for id := range c.ffEffectIDs {
		if best == -1 || id < best {
			best = id
		}
	}
	if best == -1 {
		return 0, false
	}
	delete(c.ffEffectIDs, best)
	return best, true
}

func (c *Controller) reply(ch chan<- int, v int) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
		log.Errorf("controller %s: force-feedback reply channel full", c.name)
	}
}
