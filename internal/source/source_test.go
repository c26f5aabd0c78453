package source

import (
	"testing"

	"github.com/bnema/inputplumberd/internal/capability"
)

func TestKernelPath(t *testing.T) {
	tests := []struct {
		id      string
		want    string
		wantErr bool
	}{
		{"evdev://event3", "/dev/input/event3", false},
		{"hidraw://hidraw0", "/dev/hidraw0", false},
		{"iio://accel_3d", "/sys/bus/iio/devices/accel_3d", false},
		{"nonsense", "", true},
		{"ps2://kbd0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := KernelPath(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("KernelPath(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("KernelPath(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestIsIIO(t *testing.T) {
	if !IsIIO("iio://accel_3d") {
		t.Errorf("expected iio:// id to be IIO")
	}
	if IsIIO("evdev://event3") {
		t.Errorf("did not expect evdev:// id to be IIO")
	}
}

func TestClassifyKey(t *testing.T) {
	tests := []struct {
		code uint16
		want capability.Capability
	}{
		{30, capability.Keyboard(30)},           // KEY_A
		{0x110, capability.MouseButton(0)},       // BTN_LEFT
		{0x111, capability.MouseButton(1)},       // BTN_RIGHT
		{0x130, capability.GamepadButton(0)},     // BTN_A / South
		{0x131, capability.GamepadButton(1)},     // BTN_B / East
	}

	for _, tt := range tests {
		if got := classifyKey(tt.code); got != tt.want {
			t.Errorf("classifyKey(%#x) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestClassifyRel(t *testing.T) {
	if got := classifyRel(0); got != capability.MouseMotion {
		t.Errorf("classifyRel(REL_X) = %v, want MouseMotion", got)
	}
	if got := classifyRel(1); got != capability.MouseMotion {
		t.Errorf("classifyRel(REL_Y) = %v, want MouseMotion", got)
	}
}

func TestSplitRejectsMissingName(t *testing.T) {
	if _, _, err := Split("evdev://"); err == nil {
		t.Errorf("expected error for id with empty name")
	}
}
