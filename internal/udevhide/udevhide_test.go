package udevhide

import "testing"

func TestHideIsNoopForIIOPaths(t *testing.T) {
	h := New()
	if err := h.Hide("/sys/bus/iio/devices/iio:device0"); err != nil {
		t.Errorf("Hide(iio path) error = %v, want nil", err)
	}
	if _, ok := h.original["/sys/bus/iio/devices/iio:device0"]; ok {
		t.Errorf("Hide(iio path) should not record original permissions")
	}
}

func TestUnhideIsNoopWhenNeverHidden(t *testing.T) {
	h := New()
	if err := h.Unhide("/dev/input/event3"); err != nil {
		t.Errorf("Unhide(never hidden) error = %v, want nil", err)
	}
}

func TestUnhideIsNoopForIIOPaths(t *testing.T) {
	h := New()
	if err := h.Unhide("/sys/bus/iio/devices/iio:device0"); err != nil {
		t.Errorf("Unhide(iio path) error = %v, want nil", err)
	}
}
