package capabilitymap

import (
	"testing"

	"github.com/bnema/inputplumberd/internal/capability"
)

const sampleYAML = `
mapping:
  - name: guide_chord
    source_events:
      - gamepad: {button: 6}
      - gamepad: {button: 7}
    target_event:
      gamepad: {button: 4}
  - name: overlay_toggle
    source_events:
      - keyboard: 1
    target_event:
      dbus: overlay.toggle
`

func TestLoadParsesMappingsInOrder(t *testing.T) {
	cm, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cm.Mapping) != 2 {
		t.Fatalf("len(Mapping) = %d, want 2", len(cm.Mapping))
	}
	if cm.Mapping[0].Name != "guide_chord" {
		t.Errorf("Mapping[0].Name = %q, want guide_chord", cm.Mapping[0].Name)
	}
	if cm.Mapping[1].Name != "overlay_toggle" {
		t.Errorf("Mapping[1].Name = %q, want overlay_toggle", cm.Mapping[1].Name)
	}

	want := capability.GamepadButton(4)
	if cm.Mapping[0].TargetEvent != want {
		t.Errorf("Mapping[0].TargetEvent = %v, want %v", cm.Mapping[0].TargetEvent, want)
	}
}

func TestTranslatableCapabilities(t *testing.T) {
	cm, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cm.Translatable(capability.GamepadButton(6)) {
		t.Errorf("expected GamepadButton(6) to be translatable")
	}
	if !cm.Translatable(capability.Keyboard(1)) {
		t.Errorf("expected Keyboard(1) to be translatable")
	}
	if cm.Translatable(capability.GamepadButton(99)) {
		t.Errorf("did not expect GamepadButton(99) to be translatable")
	}
}

func TestMappingAllSourcesActive(t *testing.T) {
	m := Mapping{
		SourceEvents: []capability.Capability{
			capability.GamepadButton(6),
			capability.GamepadButton(7),
		},
	}

	active := capability.NewSet(capability.GamepadButton(6))
	if m.AllSourcesActive(active) {
		t.Errorf("expected not all sources active with only one held")
	}

	active.Add(capability.GamepadButton(7))
	if !m.AllSourcesActive(active) {
		t.Errorf("expected all sources active with both held")
	}
}

func TestMappingNoSourceActive(t *testing.T) {
	m := Mapping{
		SourceEvents: []capability.Capability{
			capability.GamepadButton(6),
			capability.GamepadButton(7),
		},
	}

	active := capability.NewSet(capability.GamepadButton(6))
	if m.NoSourceActive(active) {
		t.Errorf("expected NoSourceActive = false while one source remains held")
	}

	active = capability.NewSet()
	if !m.NoSourceActive(active) {
		t.Errorf("expected NoSourceActive = true with nothing held")
	}
}

func TestLoadRejectsEmptyCapabilityConfig(t *testing.T) {
	const badYAML = `
mapping:
  - name: bad
    source_events:
      - {}
    target_event:
      gamepad: {button: 1}
`
	if _, err := Load([]byte(badYAML)); err == nil {
		t.Errorf("expected error for empty capability config")
	}
}
