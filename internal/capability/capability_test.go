package capability

import "testing"

func TestCapabilityEquality(t *testing.T) {
	tests := []struct {
		name string
		a    Capability
		b    Capability
		want bool
	}{
		{"same gamepad button", GamepadButton(GamepadButtonSouth), GamepadButton(GamepadButtonSouth), true},
		{"different gamepad button", GamepadButton(GamepadButtonSouth), GamepadButton(GamepadButtonNorth), false},
		{"different kind same code", GamepadButton(0), MouseButton(0), false},
		{"dbus by name", DBus("overlay"), DBus("overlay"), true},
		{"dbus different name", DBus("overlay"), DBus("other"), false},
		{"keyboard code", Keyboard(KeyA), Keyboard(KeyA), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a == tt.b; got != tt.want {
				t.Errorf("%v == %v = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCapabilityAsMapKey(t *testing.T) {
	m := map[Capability]string{
		GamepadButton(GamepadButtonSouth): "south",
		MouseButton(MouseButtonLeft):      "left click",
	}

	if got := m[GamepadButton(GamepadButtonSouth)]; got != "south" {
		t.Errorf("got %q, want %q", got, "south")
	}
	if _, ok := m[GamepadButton(GamepadButtonNorth)]; ok {
		t.Errorf("unexpected hit for unrelated capability")
	}
}

func TestIsDBus(t *testing.T) {
	if !DBus("x").IsDBus() {
		t.Errorf("DBus(x).IsDBus() = false, want true")
	}
	if MouseMotion.IsDBus() {
		t.Errorf("MouseMotion.IsDBus() = true, want false")
	}
}

func TestSet(t *testing.T) {
	s := NewSet(GamepadButton(GamepadButtonSouth), MouseMotion)

	if !s.Contains(GamepadButton(GamepadButtonSouth)) {
		t.Errorf("set should contain south button")
	}
	if s.Contains(GamepadButton(GamepadButtonNorth)) {
		t.Errorf("set should not contain north button")
	}

	s.Add(GamepadButton(GamepadButtonNorth))
	if !s.Contains(GamepadButton(GamepadButtonNorth)) {
		t.Errorf("set should contain north button after Add")
	}

	if got := len(s.Slice()); got != 3 {
		t.Errorf("len(Slice()) = %d, want 3", got)
	}
}

func TestStringVariants(t *testing.T) {
	tests := []struct {
		c    Capability
		want string
	}{
		{None, "None"},
		{NotImplemented, "NotImplemented"},
		{Sync, "Sync"},
		{Keyboard(KeyA), "Keyboard(30)"},
		{GamepadButton(GamepadButtonSouth), "Gamepad.Button(0)"},
		{DBus("overlay"), "DBus(overlay)"},
	}

	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}
