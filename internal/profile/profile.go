// Package profile implements the dynamic, hot-reloadable device profile:
// a per-source-capability ordered list of mappings that translate one
// native event into zero or more target events using a numeric translator.
package profile

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/capabilitymap"
	"github.com/bnema/inputplumberd/internal/event"
)

// TargetMapping describes one output side of a ProfileMapping: the target
// capability, the translator applied to the source value, and an optional
// override of which target device kinds should receive it.
type TargetMapping struct {
	Capability  capability.Capability
	Translate   Translator
	DeviceKinds []string
}

// ProfileMapping is one entry in a source capability's mapping list: a
// matcher that gates whether it applies, and the target events it produces
// when it does.
type ProfileMapping struct {
	Name    string
	Matcher Matcher
	Targets []TargetMapping
}

// DeviceProfile is the loaded, reloadable translation table.
type DeviceProfile struct {
	Name     string
	Mappings map[capability.Capability][]ProfileMapping

	// TargetDeviceKinds, if non-empty, names the target device kinds this
	// profile expects the composite device to expose; the controller may
	// use this to drive SetTargetDevices at load time.
	TargetDeviceKinds []string

	// InterceptActivationCaps and InterceptModeTargetCap override the
	// intercept activation chord (spec.md §4.3). Both are empty/zero
	// unless the profile names them explicitly; the controller falls
	// back to its default Gamepad.Button(Guide) chord (SPEC_FULL.md §4
	// point 1) when they are.
	InterceptActivationCaps []capability.Capability
	InterceptModeTargetCap  capability.Capability
}

// translatorConfig is the YAML schema for one named translator.
type translatorConfig struct {
	Kind      string   `yaml:"kind"`
	Factor    *float64 `yaml:"factor,omitempty"`
	Threshold *float64 `yaml:"threshold,omitempty"`
}

func (tc translatorConfig) build() (Translator, error) {
	switch tc.Kind {
	case "", "passthrough":
		return Passthrough, nil
	case "bool":
		return BoolTranslator, nil
	case "invert":
		return Invert, nil
	case "scale":
		if tc.Factor == nil {
			return nil, invalidTargetConfig("scale translator requires factor")
		}
		return Scale(*tc.Factor), nil
	case "deadzone":
		if tc.Threshold == nil {
			return nil, invalidTargetConfig("deadzone translator requires threshold")
		}
		return Deadzone(*tc.Threshold), nil
	default:
		return nil, notImplemented("unknown translator kind %q", tc.Kind)
	}
}

type matcherConfig struct {
	Pressed *bool    `yaml:"pressed,omitempty"`
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
}

func (mc matcherConfig) build() Matcher {
	return Matcher{Pressed: mc.Pressed, Min: mc.Min, Max: mc.Max}
}

type targetMappingConfig struct {
	Event       capabilitymap.CapabilityConfig `yaml:"event"`
	Translator  translatorConfig               `yaml:"translator"`
	DeviceKinds []string                        `yaml:"device_kinds,omitempty"`
}

type mappingConfig struct {
	Source  capabilitymap.CapabilityConfig `yaml:"source"`
	Name    string                         `yaml:"name"`
	Matcher matcherConfig                  `yaml:"matcher"`
	Targets []targetMappingConfig          `yaml:"targets"`
}

type fileConfig struct {
	Name                    string                            `yaml:"name"`
	TargetDeviceKinds       []string                          `yaml:"target_device_kinds,omitempty"`
	InterceptActivationCaps []capabilitymap.CapabilityConfig `yaml:"intercept_activation_caps,omitempty"`
	InterceptModeTargetCap  *capabilitymap.CapabilityConfig  `yaml:"intercept_mode_target_cap,omitempty"`
	Mappings                []mappingConfig                   `yaml:"mappings"`
}

// LoadFile reads and parses a device profile YAML document from path.
func LoadFile(path string) (*DeviceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	return Load(data)
}

// Load parses a device profile YAML document from raw bytes.
func Load(data []byte) (*DeviceProfile, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("profile: parse: %w", err)
	}

	dp := &DeviceProfile{
		Name:              fc.Name,
		Mappings:          make(map[capability.Capability][]ProfileMapping),
		TargetDeviceKinds: fc.TargetDeviceKinds,
	}

	for i, cc := range fc.InterceptActivationCaps {
		cap, err := cc.ToCapability()
		if err != nil {
			return nil, fmt.Errorf("profile: intercept_activation_caps[%d]: %w", i, err)
		}
		dp.InterceptActivationCaps = append(dp.InterceptActivationCaps, cap)
	}
	if fc.InterceptModeTargetCap != nil {
		cap, err := fc.InterceptModeTargetCap.ToCapability()
		if err != nil {
			return nil, fmt.Errorf("profile: intercept_mode_target_cap: %w", err)
		}
		dp.InterceptModeTargetCap = cap
	}

	for i, mc := range fc.Mappings {
		source, err := mc.Source.ToCapability()
		if err != nil {
			return nil, fmt.Errorf("profile: mapping %d (%s): source: %w", i, mc.Name, err)
		}

		targets := make([]TargetMapping, 0, len(mc.Targets))
		for j, tc := range mc.Targets {
			targetCap, err := tc.Event.ToCapability()
			if err != nil {
				return nil, fmt.Errorf("profile: mapping %d (%s): targets[%d]: %w", i, mc.Name, j, err)
			}
			translator, err := tc.Translator.build()
			if err != nil {
				return nil, fmt.Errorf("profile: mapping %d (%s): targets[%d]: %w", i, mc.Name, j, err)
			}
			targets = append(targets, TargetMapping{
				Capability:  targetCap,
				Translate:   translator,
				DeviceKinds: tc.DeviceKinds,
			})
		}

		dp.Mappings[source] = append(dp.Mappings[source], ProfileMapping{
			Name:    mc.Name,
			Matcher: mc.Matcher.build(),
			Targets: targets,
		})
	}

	log.Debugf("profile: loaded %q with %d source mapping(s)", dp.Name, len(dp.Mappings))
	return dp, nil
}

// Translate runs the profile's translation for a source event, returning
// zero or more target NativeEvents. If no mapping exists for source, or no
// mapping's matcher accepts value, Translate returns (nil, false, nil): the
// caller should pass the original event through unchanged (spec.md §4.2.2).
// A translator's own failure is logged here and that one target is
// skipped; the returned error is always nil.
func (dp *DeviceProfile) Translate(source capability.Capability, value event.Value) (events []event.NativeEvent, matched bool, err error) {
	mappings, ok := dp.Mappings[source]
	if !ok {
		return nil, false, nil
	}

	for _, m := range mappings {
		if !m.Matcher.Accepts(value) {
			continue
		}
		matched = true
		for _, t := range m.Targets {
			out, emit, terr := t.Translate(value)
			if terr != nil {
				log.Warnf("profile: mapping %q: target %v: %v", m.Name, t.Capability, terr)
				continue
			}
			if !emit {
				continue
			}
			events = append(events, event.NewTranslated(source, t.Capability, out))
		}
		return events, true, nil
	}

	return nil, false, nil
}
