// Package capabilitymap loads and evaluates the static, multi-source-to-one
// capability translation table (the "chord table"): an ordered list of
// mappings, each firing a single target capability once all of its source
// capabilities are simultaneously active.
package capabilitymap

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/bnema/inputplumberd/internal/capability"
)

// CapabilityConfig is the YAML schema for one capability reference. Exactly
// one of its fields should be set; ToCapability converts it to the runtime
// Capability value.
type CapabilityConfig struct {
	Gamepad  *GamepadCapabilityConfig `yaml:"gamepad,omitempty"`
	Keyboard *int                     `yaml:"keyboard,omitempty"`
	Mouse    *MouseCapabilityConfig   `yaml:"mouse,omitempty"`
	DBus     *string                  `yaml:"dbus,omitempty"`
}

// GamepadCapabilityConfig names one gamepad-family sub-capability.
type GamepadCapabilityConfig struct {
	Button  *int `yaml:"button,omitempty"`
	Axis    *int `yaml:"axis,omitempty"`
	Trigger *int `yaml:"trigger,omitempty"`
	Accel   bool `yaml:"accelerometer,omitempty"`
	Gyro    bool `yaml:"gyro,omitempty"`
}

// MouseCapabilityConfig names one mouse-family sub-capability.
type MouseCapabilityConfig struct {
	Motion bool `yaml:"motion,omitempty"`
	Button *int `yaml:"button,omitempty"`
}

// ToCapability converts the YAML-level description into a runtime
// capability.Capability, returning an error if the config names none or
// more than one variant.
func (c CapabilityConfig) ToCapability() (capability.Capability, error) {
	set := 0
	for _, present := range []bool{c.Gamepad != nil, c.Keyboard != nil, c.Mouse != nil, c.DBus != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return capability.Capability{}, fmt.Errorf("capabilitymap: capability config names more than one variant")
	}
	switch {
	case c.Gamepad != nil:
		g := c.Gamepad
		switch {
		case g.Button != nil:
			return capability.GamepadButton(*g.Button), nil
		case g.Axis != nil:
			return capability.GamepadAxis(*g.Axis), nil
		case g.Trigger != nil:
			return capability.GamepadTrigger(*g.Trigger), nil
		case g.Accel:
			return capability.GamepadAccelerometer, nil
		case g.Gyro:
			return capability.GamepadGyro, nil
		default:
			return capability.Capability{}, fmt.Errorf("capabilitymap: empty gamepad capability config")
		}
	case c.Keyboard != nil:
		return capability.Keyboard(*c.Keyboard), nil
	case c.Mouse != nil:
		m := c.Mouse
		switch {
		case m.Motion:
			return capability.MouseMotion, nil
		case m.Button != nil:
			return capability.MouseButton(*m.Button), nil
		default:
			return capability.Capability{}, fmt.Errorf("capabilitymap: empty mouse capability config")
		}
	case c.DBus != nil:
		return capability.DBus(*c.DBus), nil
	default:
		return capability.Capability{}, fmt.Errorf("capabilitymap: capability config names no variant")
	}
}

// Mapping is one chord: a set of source capabilities that, when all
// simultaneously active, fire a single target capability.
type Mapping struct {
	Name         string
	SourceEvents []capability.Capability
	TargetEvent  capability.Capability
}

// mappingConfig is the YAML-level shape of a Mapping.
type mappingConfig struct {
	Name         string             `yaml:"name"`
	SourceEvents []CapabilityConfig `yaml:"source_events"`
	TargetEvent  CapabilityConfig   `yaml:"target_event"`
}

// fileConfig is the top-level YAML document shape.
type fileConfig struct {
	Mapping []mappingConfig `yaml:"mapping"`
}

// CapabilityMap is the loaded, ordered chord table. Declaration order is
// preserved and used as the tiebreak when multiple mappings could fire on
// the same event (the controller walks Mapping in this order).
type CapabilityMap struct {
	Mapping []Mapping

	// translatable is the set of source capabilities any mapping listens
	// for; membership here is what routes an event through the map at all.
	translatable capability.Set
}

// LoadFile reads and parses a capability map YAML document from path.
func LoadFile(path string) (*CapabilityMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capabilitymap: read %s: %w", path, err)
	}
	return Load(data)
}

// Load parses a capability map YAML document from raw bytes.
func Load(data []byte) (*CapabilityMap, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("capabilitymap: parse: %w", err)
	}

	cm := &CapabilityMap{translatable: make(capability.Set)}
	for i, mc := range fc.Mapping {
		target, err := mc.TargetEvent.ToCapability()
		if err != nil {
			return nil, fmt.Errorf("capabilitymap: mapping %d (%s): target_event: %w", i, mc.Name, err)
		}

		sources := make([]capability.Capability, 0, len(mc.SourceEvents))
		for j, sc := range mc.SourceEvents {
			c, err := sc.ToCapability()
			if err != nil {
				return nil, fmt.Errorf("capabilitymap: mapping %d (%s): source_events[%d]: %w", i, mc.Name, j, err)
			}
			sources = append(sources, c)
			cm.translatable.Add(c)
		}

		cm.Mapping = append(cm.Mapping, Mapping{
			Name:         mc.Name,
			SourceEvents: sources,
			TargetEvent:  target,
		})
	}

	log.Debugf("capabilitymap: loaded %d mapping(s)", len(cm.Mapping))
	return cm, nil
}

// Translatable reports whether c is a source capability listened for by any
// mapping in the map.
func (cm *CapabilityMap) Translatable(c capability.Capability) bool {
	if cm == nil {
		return false
	}
	return cm.translatable.Contains(c)
}

// TranslatableCapabilities returns the set of all source capabilities any
// mapping in the map listens for.
func (cm *CapabilityMap) TranslatableCapabilities() capability.Set {
	if cm == nil {
		return capability.NewSet()
	}
	out := make(capability.Set, len(cm.translatable))
	for c := range cm.translatable {
		out.Add(c)
	}
	return out
}

// AllSourcesActive reports whether every one of m's source capabilities is
// a member of active.
func (m Mapping) AllSourcesActive(active capability.Set) bool {
	for _, c := range m.SourceEvents {
		if !active.Contains(c) {
			return false
		}
	}
	return true
}

// NoSourceActive reports whether none of m's source capabilities remain in
// active.
func (m Mapping) NoSourceActive(active capability.Set) bool {
	for _, c := range m.SourceEvents {
		if active.Contains(c) {
			return false
		}
	}
	return true
}
