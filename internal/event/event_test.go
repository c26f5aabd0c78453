package event

import (
	"testing"

	"github.com/bnema/inputplumberd/internal/capability"
)

func TestValuePressed(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"none", NoneValue, false},
		{"bool true", BoolValue(true), true},
		{"bool false", BoolValue(false), false},
		{"axis2d zero", Axis2DValue(0, 0), false},
		{"axis2d nonzero x", Axis2DValue(1, 0), true},
		{"axis2d nonzero y", Axis2DValue(0, -1), true},
		{"axisf zero", AxisFValue(0), false},
		{"axisf nonzero", AxisFValue(0.5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Pressed(); got != tt.want {
				t.Errorf("Pressed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUntranslated(t *testing.T) {
	e := New(capability.GamepadButton(capability.GamepadButtonSouth), BoolValue(true))

	if e.Translated {
		t.Errorf("New() event should not be translated")
	}
	if got := e.Capability(); got != capability.GamepadButton(capability.GamepadButtonSouth) {
		t.Errorf("Capability() = %v, want source capability", got)
	}
	if !e.Pressed() {
		t.Errorf("Pressed() = false, want true")
	}
}

func TestNewTranslated(t *testing.T) {
	source := capability.GamepadButton(capability.GamepadButtonSouth)
	target := capability.Keyboard(capability.KeySpace)
	e := NewTranslated(source, target, BoolValue(true))

	if !e.Translated {
		t.Errorf("NewTranslated() event should be translated")
	}
	if got := e.Capability(); got != target {
		t.Errorf("Capability() = %v, want target %v", got, target)
	}
	if e.Source != source {
		t.Errorf("Source = %v, want %v", e.Source, source)
	}
}
