package profile

import (
	"errors"
	"testing"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/event"
)

const sampleYAML = `
name: chord-split
mappings:
  - name: split_a
    source:
      keyboard: 30
    targets:
      - event:
          keyboard: 48
        translator:
          kind: passthrough
      - event:
          keyboard: 46
        translator:
          kind: passthrough
  - name: trigger_to_button
    source:
      gamepad: {trigger: 0}
    targets:
      - event:
          gamepad: {button: 8}
        translator:
          kind: deadzone
          threshold: 0.2
`

func TestLoadAndTranslateOneToMany(t *testing.T) {
	dp, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	events, matched, err := dp.Translate(capability.Keyboard(30), event.BoolValue(true))
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if !matched {
		t.Fatalf("expected a match for keyboard 30")
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Target != capability.Keyboard(48) {
		t.Errorf("events[0].Target = %v, want Keyboard(48)", events[0].Target)
	}
	if events[1].Target != capability.Keyboard(46) {
		t.Errorf("events[1].Target = %v, want Keyboard(46)", events[1].Target)
	}
}

func TestTranslateNoMappingPassesThrough(t *testing.T) {
	dp, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	events, matched, err := dp.Translate(capability.Keyboard(99), event.BoolValue(true))
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if matched {
		t.Errorf("expected no match for an unmapped source")
	}
	if events != nil {
		t.Errorf("expected nil events for an unmapped source")
	}
}

func TestDeadzoneTranslator(t *testing.T) {
	dp, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	events, _, err := dp.Translate(capability.GamepadTrigger(0), event.AxisFValue(0.1))
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if len(events) != 1 || events[0].Pressed() {
		t.Errorf("expected unpressed button below threshold, got %v", events)
	}

	events, _, err = dp.Translate(capability.GamepadTrigger(0), event.AxisFValue(0.9))
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if len(events) != 1 || !events[0].Pressed() {
		t.Errorf("expected pressed button above threshold, got %v", events)
	}
}

func TestInvertRejectsBoolValue(t *testing.T) {
	_, _, err := Invert(event.BoolValue(true))
	if !errors.Is(err, ErrImpossibleTranslation) {
		t.Errorf("Invert(Bool) error = %v, want ImpossibleTranslation", err)
	}
}

func TestMatcherPressedGate(t *testing.T) {
	pressed := true
	m := Matcher{Pressed: &pressed}

	if !m.Accepts(event.BoolValue(true)) {
		t.Errorf("expected matcher to accept a press")
	}
	if m.Accepts(event.BoolValue(false)) {
		t.Errorf("expected matcher to reject a release")
	}
}

func TestTranslationErrorIsComparesKindOnly(t *testing.T) {
	e1 := &TranslationError{Kind: InvalidTargetConfig, Msg: "a"}
	e2 := &TranslationError{Kind: InvalidTargetConfig, Msg: "b"}

	if !errors.Is(e1, e2) {
		t.Errorf("expected two TranslationErrors of the same kind to match via errors.Is")
	}
	if errors.Is(e1, ErrNotImplemented) {
		t.Errorf("did not expect InvalidTargetConfig to match ErrNotImplemented")
	}
}
