package controller

import (
	"context"
	"os"
	"testing"
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/capabilitymap"
	"github.com/bnema/inputplumberd/internal/controldbus"
	"github.com/bnema/inputplumberd/internal/event"
	"github.com/bnema/inputplumberd/internal/manager"
	"github.com/bnema/inputplumberd/internal/source"
	"github.com/bnema/inputplumberd/internal/target"
)

// btnGamepad is BTN_GAMEPAD (0x130): classifyKey's base for GamepadButton(0).
const btnGamepad = 0x130

func gamepadRaw(button int, pressed bool) source.RawEvent {
	v := int32(0)
	if pressed {
		v = 1
	}
	return source.RawEvent{Type: evdev.EV_KEY, Code: uint16(btnGamepad + button), Value: v}
}

// fakeManager satisfies manager.Manager without ever creating a real
// target; tests attach fake target channels directly via AttachTargetDevicesCommand.
type fakeManager struct{}

func (fakeManager) CreateTargetDevice(req manager.CreateTargetDeviceRequest) {
	req.Reply <- manager.CreateTargetDeviceResult{Err: assert.AnError}
}

func (fakeManager) AttachTargetDevice(req manager.AttachTargetDeviceRequest) {
	req.Reply <- nil
}

// recordingTarget is a fake target command sink: it records every
// WriteEventCommand it receives.
type recordingTarget struct {
	cmds chan target.Command
	got  chan event.NativeEvent
}

func newRecordingTarget() *recordingTarget {
	rt := &recordingTarget{
		cmds: make(chan target.Command, 64),
		got:  make(chan event.NativeEvent, 64),
	}
	go rt.run()
	return rt
}

func (rt *recordingTarget) run() {
	for cmd := range rt.cmds {
		if wc, ok := cmd.(target.WriteEventCommand); ok {
			rt.got <- wc.Event
		}
	}
}

func startController(t *testing.T, c *Controller) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}

func attachTarget(c *Controller, path string, kind target.Kind, ch chan<- target.Command) {
	reply := make(chan error, 1)
	c.mgr.AttachTargetDevice(manager.AttachTargetDeviceRequest{TargetPath: path, CompositePath: c.name, Reply: reply})
	<-reply
	c.Post(AttachTargetDevicesCommand{
		Token:   path,
		Targets: map[string]attachedTarget{path: {Kind: kind, Commands: ch}},
	})
}

func waitForEvent(t *testing.T, ch <-chan event.NativeEvent, timeout time.Duration) event.NativeEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
		return event.NativeEvent{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan event.NativeEvent, wait time.Duration) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event: %+v", e)
	case <-time.After(wait):
	}
}

// TestDirectWriteEventRoutesToNormalTargets exercises the facade's
// WriteEvent path (spec.md §4.1 table, "direct emission, bypassing
// translation").
func TestDirectWriteEventRoutesToNormalTargets(t *testing.T) {
	c := New("composite0", fakeManager{})
	rt := newRecordingTarget()
	attachTarget(c, "/org/inputplumberd/Target/0", target.KindGamepad, rt.cmds)
	stop := startController(t, c)
	defer stop()

	c.WriteEvent(event.New(capability.GamepadButton(capability.GamepadButtonSouth), event.BoolValue(true)))

	got := waitForEvent(t, rt.got, time.Second)
	assert.Equal(t, capability.GamepadButton(capability.GamepadButtonSouth), got.Capability())
	assert.True(t, got.Pressed())
}

// TestSingletonInterceptActivationChord exercises the default Guide-button
// activation chord (SPEC_FULL.md §4 point 1): pressing it switches the
// controller into InterceptAlways and routes the activation target to the
// DBus target set, not the normal one.
func TestSingletonInterceptActivationChord(t *testing.T) {
	c := New("composite0", fakeManager{})
	normal := newRecordingTarget()
	dbus := newRecordingTarget()
	attachTarget(c, "/org/inputplumberd/Target/0", target.KindGamepad, normal.cmds)
	attachTarget(c, "/org/inputplumberd/Target/dbus0", target.KindDBus, dbus.cmds)
	stop := startController(t, c)
	defer stop()

	c.SetInterceptMode(controldbus.InterceptPass)

	guide := capability.GamepadButton(capability.GamepadButtonGuide)
	c.Post(ProcessEventCommand{SourceID: "evdev://pad0", Raw: gamepadRaw(capability.GamepadButtonGuide, true)})

	got := waitForEvent(t, dbus.got, time.Second)
	assert.Equal(t, guide, got.Capability())
	assert.True(t, got.Pressed())
	assertNoEvent(t, normal.got, 50*time.Millisecond)

	assert.Equal(t, controldbus.InterceptAlways, c.GetInterceptMode())
}

// TestMultiCapabilityActivationChord exercises the multi-cap activation
// regime (spec.md §8 scenario B): pressing LeftBumper then RightBumper
// completes the chord and synthesizes a Guide press+release on the DBus
// target, while the normal target never sees either bumper or the guide
// signal.
func TestMultiCapabilityActivationChord(t *testing.T) {
	c := New("composite0", fakeManager{})
	normal := newRecordingTarget()
	dbus := newRecordingTarget()
	attachTarget(c, "/org/inputplumberd/Target/0", target.KindGamepad, normal.cmds)
	attachTarget(c, "/org/inputplumberd/Target/dbus0", target.KindDBus, dbus.cmds)
	stop := startController(t, c)
	defer stop()

	leftBumper := capability.GamepadButton(capability.GamepadButtonLeftBumper)
	rightBumper := capability.GamepadButton(capability.GamepadButtonRightBumper)
	guide := capability.GamepadButton(capability.GamepadButtonGuide)

	c.Post(SetInterceptActivationCommand{
		Caps:   []capability.Capability{leftBumper, rightBumper},
		Target: guide,
	})
	c.SetInterceptMode(controldbus.InterceptPass)

	c.Post(ProcessEventCommand{SourceID: "evdev://pad0", Raw: gamepadRaw(capability.GamepadButtonLeftBumper, true)})
	c.Post(ProcessEventCommand{SourceID: "evdev://pad0", Raw: gamepadRaw(capability.GamepadButtonRightBumper, true)})

	press := waitForEvent(t, dbus.got, time.Second)
	release := waitForEvent(t, dbus.got, time.Second)
	assert.Equal(t, guide, press.Capability())
	assert.True(t, press.Pressed())
	assert.Equal(t, guide, release.Capability())
	assert.False(t, release.Pressed())
	assertNoEvent(t, normal.got, 50*time.Millisecond)

	assert.Equal(t, controldbus.InterceptAlways, c.GetInterceptMode())
}

// TestCapabilityMapChord exercises §4.2.1: two source capabilities must
// both be active before the mapped target capability fires, and it
// releases only once both sources have released.
func TestCapabilityMapChord(t *testing.T) {
	cm, err := capabilitymap.Load([]byte(`
mapping:
  - name: combo
    source_events:
      - gamepad: {button: 0}
      - gamepad: {button: 1}
    target_event:
      gamepad: {button: 5}
`))
	require.NoError(t, err)

	c := New("composite0", fakeManager{}, WithCapabilityMap(cm))
	normal := newRecordingTarget()
	attachTarget(c, "/org/inputplumberd/Target/0", target.KindGamepad, normal.cmds)
	stop := startController(t, c)
	defer stop()

	target5 := capability.GamepadButton(5)

	c.Post(ProcessEventCommand{SourceID: "evdev://pad0", Raw: gamepadRaw(0, true)})
	c.Post(ProcessEventCommand{SourceID: "evdev://pad0", Raw: gamepadRaw(1, true)})

	got := waitForEvent(t, normal.got, time.Second)
	assert.Equal(t, target5, got.Capability())
	assert.True(t, got.Pressed())

	c.Post(ProcessEventCommand{SourceID: "evdev://pad0", Raw: gamepadRaw(0, false)})
	assertNoEvent(t, normal.got, 50*time.Millisecond)

	c.Post(ProcessEventCommand{SourceID: "evdev://pad0", Raw: gamepadRaw(1, false)})
	got = waitForEvent(t, normal.got, time.Second)
	assert.Equal(t, target5, got.Capability())
	assert.False(t, got.Pressed())
}

// TestForceFeedbackRoundTrip exercises §4.4: upload assigns a virtual id
// from the pool, play rewrites it to the source-local id, erase returns the
// virtual id to the pool for reuse.
func TestForceFeedbackRoundTrip(t *testing.T) {
	c := New("composite0", fakeManager{}, WithFFPoolSize(2))
	src := make(chan source.Command, 16)
	go func() {
		for cmd := range src {
			switch cc := cmd.(type) {
			case source.UploadEffectCommand:
				cc.Reply <- source.UploadResult{EffectID: 7}
			case source.EraseEffectCommand:
				cc.Reply <- nil
			}
		}
	}()
	stop := startController(t, c)
	defer stop()

	c.Post(SourceDeviceAddedCommand{
		Info:         source.Info{ID: "evdev://pad0", Path: "/dev/input/pad0"},
		Commands:     src,
		Capabilities: capability.NewSet(),
	})
	time.Sleep(20 * time.Millisecond)

	reply := make(chan int, 1)
	c.ProcessOutputEvent("", target.OutputEvent{Kind: target.OutputUpload, Data: []byte{1, 2, 3}, Reply: reply})
	virtualID := <-reply
	assert.GreaterOrEqual(t, virtualID, 0)

	c.ProcessOutputEvent("", target.OutputEvent{Kind: target.OutputErase, EffectID: virtualID})

	reply2 := make(chan int, 1)
	c.ProcessOutputEvent("", target.OutputEvent{Kind: target.OutputUpload, Data: []byte{4, 5, 6}, Reply: reply2})
	assert.GreaterOrEqual(t, <-reply2, 0)
}

// TestProfileSplitsOneSourceIntoChord exercises §4.2.2: a profile mapping
// with more than one target turns a single source press into a staggered
// chord whose members arrive in declaration order. Only the press is
// checked here.
func TestProfileSplitsOneSourceIntoChord(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/profile.yaml"
	require.NoError(t, os.WriteFile(path, []byte(`
name: split-test
mappings:
  - source:
      gamepad: {button: 7}
    targets:
      - event:
          keyboard: 29
      - event:
          keyboard: 56
`), 0o644))

	c := New("composite0", fakeManager{})
	normal := newRecordingTarget()
	attachTarget(c, "/org/inputplumberd/Target/0", target.KindKeyboard, normal.cmds)
	stop := startController(t, c)
	defer stop()

	require.NoError(t, c.LoadProfilePath(path))

	c.Post(ProcessEventCommand{SourceID: "evdev://pad0", Raw: gamepadRaw(7, true)})

	first := waitForEvent(t, normal.got, time.Second)
	second := waitForEvent(t, normal.got, time.Second)
	assert.Equal(t, capability.Keyboard(29), first.Capability())
	assert.Equal(t, capability.Keyboard(56), second.Capability())
}

// TestLoadProfilePathMissingFileReturnsError exercises the facade's
// synchronous LoadProfilePath wrapper and its reply-channel plumbing.
func TestLoadProfilePathMissingFileReturnsError(t *testing.T) {
	c := New("composite0", fakeManager{})
	stop := startController(t, c)
	defer stop()

	err := c.LoadProfilePath("/nonexistent/profile.yaml")
	assert.Error(t, err)
}

// TestControllerTerminatesWhenLastSourceGoes exercises spec.md §3's
// lifecycle note: a controller with no source attached yet must not
// terminate on its own, but must terminate once its one attached source
// reports stopped.
func TestControllerTerminatesWhenLastSourceGoes(t *testing.T) {
	c := New("composite0", fakeManager{})
	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	c.Post(SourceDeviceAddedCommand{
		Info:         source.Info{ID: "evdev://pad0", Path: "/dev/input/pad0"},
		Commands:     make(chan source.Command, 1),
		Capabilities: capability.NewSet(),
	})

	select {
	case <-done:
		t.Fatal("controller terminated before its source stopped")
	case <-time.After(50 * time.Millisecond):
	}

	c.Post(SourceDeviceStoppedCommand{ID: "evdev://pad0"})

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("controller did not terminate after its last source stopped")
	}
}
