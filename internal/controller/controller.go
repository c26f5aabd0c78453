// Package controller implements the composite device controller: the
// single-consumer actor that owns all per-logical-device state and
// performs the capability-map/profile translation pipeline, the intercept
// state machine, the force-feedback broker, and source/target lifecycle.
package controller

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/capability"
	"github.com/bnema/inputplumberd/internal/capabilitymap"
	"github.com/bnema/inputplumberd/internal/event"
	"github.com/bnema/inputplumberd/internal/manager"
	"github.com/bnema/inputplumberd/internal/profile"
	"github.com/bnema/inputplumberd/internal/source"
	"github.com/bnema/inputplumberd/internal/target"
	"github.com/bnema/inputplumberd/internal/udevhide"
)

// InterceptMode is the intercept routing policy (spec.md §4.3).
type InterceptMode int

const (
	InterceptNone InterceptMode = iota
	InterceptPass
	InterceptAlways
)

func (m InterceptMode) String() string {
	switch m {
	case InterceptNone:
		return "None"
	case InterceptPass:
		return "Pass"
	case InterceptAlways:
		return "Always"
	default:
		return "Unknown"
	}
}

// defaultFFPoolSize is the virtual force-feedback effect-id pool size used
// unless a caller overrides it at construction (SPEC_FULL.md §4 point 4).
const defaultFFPoolSize = 64

// commandBufferSize bounds the controller's inbound queue (spec.md §5).
const commandBufferSize = 16 * 1024

// cmdBase gives every Command implementation its marker method, so command
// structs need no boilerplate beyond their fields.
type cmdBase struct{}

func (cmdBase) isControllerCommand() {}

// Command is the controller's public command contract (spec.md §4.1).
type Command interface{ isControllerCommand() }

type ProcessEventCommand struct {
	cmdBase
	SourceID string
	Raw      source.RawEvent
}

type ProcessOutputEventCommand struct {
	cmdBase
	TargetPath string
	Event      target.OutputEvent
}

type GetCapabilitiesCommand struct {
	cmdBase
	Reply chan<- []string
}

type GetTargetCapabilitiesCommand struct {
	cmdBase
	Reply chan<- []string
}

type GetInterceptModeCommand struct {
	cmdBase
	Reply chan<- InterceptMode
}

type GetNameCommand struct {
	cmdBase
	Reply chan<- string
}

type GetProfileNameCommand struct {
	cmdBase
	Reply chan<- string
}

type GetSourceDevicePathsCommand struct {
	cmdBase
	Reply chan<- []string
}

type GetTargetDevicePathsCommand struct {
	cmdBase
	Reply chan<- []string
}

type GetDBusDevicePathsCommand struct {
	cmdBase
	Reply chan<- []string
}

type SetInterceptModeCommand struct {
	cmdBase
	Mode InterceptMode
}

type SetInterceptActivationCommand struct {
	cmdBase
	Caps   []capability.Capability
	Target capability.Capability
}

type SourceDeviceAddedCommand struct {
	cmdBase
	Info         source.Info
	Commands     chan<- source.Command
	Capabilities capability.Set
}

type SourceDeviceStoppedCommand struct {
	cmdBase
	ID string
}

type SourceDeviceRemovedCommand struct {
	cmdBase
	ID string
}

type SetTargetDevicesCommand struct {
	cmdBase
	Kinds []target.Kind
}

type AttachTargetDevicesCommand struct {
	cmdBase
	Token   string
	Targets map[string]attachedTarget
}

type attachedTarget struct {
	Kind     target.Kind
	Commands chan<- target.Command
}

// clearQueuedTargetCommand drops a pending SetTargetDevices request token
// whose create/attach RPC failed (spec.md §7, RpcError: "that kind
// skipped").
type clearQueuedTargetCommand struct {
	cmdBase
	Token string
}

type LoadProfilePathCommand struct {
	cmdBase
	Path  string
	Reply chan<- error
}

type WriteEventCommand struct {
	cmdBase
	Event event.NativeEvent
}

type WriteChordEventCommand struct {
	cmdBase
	Events []event.NativeEvent
}

type WriteSendEventCommand struct {
	cmdBase
	Event event.NativeEvent
}

type HandleEventCommand struct {
	cmdBase
	Event event.NativeEvent
}

type RemoveRecentEventCommand struct {
	cmdBase
	Cap capability.Capability
}

type StopCommand struct{ cmdBase }

// ffEntry records which source-local effect id each source holds for one
// virtual effect id.
type ffEntry map[string]int

// Controller is one composite device: a single-consumer actor owning all
// mutable per-device state, per spec.md §3 and §5.
type Controller struct {
	name string
	cmds chan Command
	mgr  manager.Manager

	capabilities             capability.Set
	capabilityMap            *capabilitymap.CapabilityMap
	translatableCapabilities capability.Set
	profile                  *profile.DeviceProfile
	profileName              string

	translatableActiveInputs capability.Set
	emittedMappings          map[string]struct{}
	translatedRecentEvents   capability.Set

	interceptMode           InterceptMode
	interceptActivationCaps []capability.Capability
	interceptModeTargetCap  capability.Capability
	interceptActiveInputs   capability.Set

	activeInputs capability.Set

	sourceDevices        map[string]chan<- source.Command
	sourceDevicesBlocked map[string]struct{}
	sourceDevicePaths    map[string]string
	sourceDevicesUsed    map[string]struct{}

	targetDevices       map[string]chan<- target.Command
	targetDeviceKinds   map[string]target.Kind
	targetDBusDevices   map[string]chan<- target.Command
	targetDevicesQueued map[string]struct{}

	ffEffectIDs         map[int]struct{}
	ffEffectIDSourceMap map[int]ffEntry
	ffPoolSize          int

	hider   *udevhide.Hider
	blocked func(source.Info) bool

	stopped bool
	stopErr error
}

// Option configures a Controller at construction.
type Option func(*Controller)

// WithFFPoolSize overrides the default 64-slot force-feedback pool size,
// used by tests to exercise pool exhaustion without 64 uploads
// (SPEC_FULL.md §4 point 4).
func WithFFPoolSize(n int) Option {
	return func(c *Controller) { c.ffPoolSize = n }
}

// WithBlockMatcher installs the configuration-driven predicate used to
// decide whether a newly added source should be blocked (spec.md §4.5).
// Configuration parsing itself is an out-of-scope collaborator (spec.md
// §1); the controller only needs the yes/no verdict.
func WithBlockMatcher(f func(source.Info) bool) Option {
	return func(c *Controller) { c.blocked = f }
}

// WithCapabilityMap installs the static multi-in/one-out chord table
// (spec.md §4.2.1) and records its translatable capabilities, which sources
// added later leave out of the exposed capability set.
func WithCapabilityMap(cm *capabilitymap.CapabilityMap) Option {
	return func(c *Controller) {
		c.capabilityMap = cm
		c.translatableCapabilities = cm.TranslatableCapabilities()
	}
}

// New constructs a Controller for logical device name, talking to mgr for
// target creation/attachment.
func New(name string, mgr manager.Manager, opts ...Option) *Controller {
	defaultCaps, defaultTarget := defaultInterceptActivation()
	c := &Controller{
		name: name,
		cmds: make(chan Command, commandBufferSize),
		mgr:  mgr,

		capabilities:             capability.NewSet(),
		translatableCapabilities: capability.NewSet(),

		translatableActiveInputs: capability.NewSet(),
		emittedMappings:          make(map[string]struct{}),
		translatedRecentEvents:   capability.NewSet(),

		interceptMode:           InterceptNone,
		interceptActivationCaps: defaultCaps,
		interceptModeTargetCap:  defaultTarget,
		interceptActiveInputs:   capability.NewSet(),

		activeInputs: capability.NewSet(),

		sourceDevices:        make(map[string]chan<- source.Command),
		sourceDevicesBlocked: make(map[string]struct{}),
		sourceDevicePaths:    make(map[string]string),
		sourceDevicesUsed:    make(map[string]struct{}),

		targetDevices:       make(map[string]chan<- target.Command),
		targetDeviceKinds:   make(map[string]target.Kind),
		targetDBusDevices:   make(map[string]chan<- target.Command),
		targetDevicesQueued: make(map[string]struct{}),

		ffEffectIDs:         make(map[int]struct{}),
		ffEffectIDSourceMap: make(map[int]ffEntry),
		ffPoolSize:          defaultFFPoolSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	for i := 0; i < c.ffPoolSize; i++ {
		c.ffEffectIDs[i] = struct{}{}
	}
	return c
}

// Commands returns the controller's inbound command channel.
func (c *Controller) Commands() chan<- Command { return c.cmds }

// Post submits cmd to the controller's own queue without blocking,
// matching the try_send discipline used for re-entrant translation and
// scheduled (debounce/stagger) commands (spec.md §9).
func (c *Controller) Post(cmd Command) {
	select {
	case c.cmds <- cmd:
	default:
		log.Errorf("controller %s: command queue full, dropping %T", c.name, cmd)
	}
}

// Run drains the command queue to completion, one command at a time,
// until Stop, a fatal error, or ctx cancellation. Shutdown always runs
// before Run returns (spec.md §4.1, §5).
func (c *Controller) Run(ctx context.Context) error {
	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-c.cmds:
			if err := c.dispatch(cmd); err != nil {
				return err
			}
			if c.stopped {
				return c.stopErr
			}
		}
	}
}

func (c *Controller) dispatch(cmd Command) error {
	switch cc := cmd.(type) {
	case ProcessEventCommand:
		return c.processEvent(cc.SourceID, cc.Raw)
	case ProcessOutputEventCommand:
		c.processOutputEvent(cc.TargetPath, cc.Event)
	case GetCapabilitiesCommand:
		cc.Reply <- c.Capabilities()
	case GetTargetCapabilitiesCommand:
		cc.Reply <- c.TargetCapabilities()
	case GetInterceptModeCommand:
		cc.Reply <- c.interceptMode
	case GetNameCommand:
		cc.Reply <- c.name
	case GetProfileNameCommand:
		cc.Reply <- c.profileName
	case GetSourceDevicePathsCommand:
		cc.Reply <- c.SourceDevicePaths()
	case GetTargetDevicePathsCommand:
		cc.Reply <- c.TargetDevicePaths()
	case GetDBusDevicePathsCommand:
		cc.Reply <- c.DBusDevicePaths()
	case SetInterceptModeCommand:
		c.interceptMode = cc.Mode
	case SetInterceptActivationCommand:
		c.interceptActivationCaps = cc.Caps
		c.interceptModeTargetCap = cc.Target
		c.interceptActiveInputs = capability.NewSet()
	case SourceDeviceAddedCommand:
		c.onSourceDeviceAdded(cc.Info, cc.Commands, cc.Capabilities)
	case SourceDeviceStoppedCommand:
		c.onSourceDeviceRemoved(cc.ID)
		c.stopIfSourceless()
	case SourceDeviceRemovedCommand:
		c.onSourceDeviceRemoved(cc.ID)
		c.stopIfSourceless()
	case SetTargetDevicesCommand:
		c.setTargetDevices(cc.Kinds)
	case AttachTargetDevicesCommand:
		delete(c.targetDevicesQueued, cc.Token)
		c.attachTargetDevices(cc.Targets)
	case clearQueuedTargetCommand:
		delete(c.targetDevicesQueued, cc.Token)
	case LoadProfilePathCommand:
		err := c.loadProfilePath(cc.Path)
		if cc.Reply != nil {
			cc.Reply <- err
		}
	case WriteEventCommand:
		c.writeEvent(cc.Event)
	case WriteChordEventCommand:
		c.writeChordEvent(cc.Events)
	case WriteSendEventCommand:
		c.writeSendEvent(cc.Event)
	case HandleEventCommand:
		c.handleEvent(cc.Event)
	case RemoveRecentEventCommand:
		delete(c.translatedRecentEvents, cc.Cap)
	case StopCommand:
		c.stopped = true
	default:
		return fmt.Errorf("controller %s: unknown command %T", c.name, cmd)
	}
	return nil
}

// Capabilities returns the capability set this composite device exposes,
// rendered as strings for the control-bus surface.
func (c *Controller) Capabilities() []string { return stringify(c.capabilities) }

// TargetCapabilities returns the union of capabilities every attached
// normal target can emit. In this minimal implementation it mirrors the
// exposed capability set; a fuller manager integration would instead poll
// each target's GetCapabilitiesCommand.
func (c *Controller) TargetCapabilities() []string { return stringify(c.capabilities) }

// SourceDevicePaths lists attached source kernel device paths.
func (c *Controller) SourceDevicePaths() []string {
	out := make([]string, 0, len(c.sourceDevicePaths))
	for _, p := range c.sourceDevicePaths {
		out = append(out, p)
	}
	return out
}

// TargetDevicePaths lists attached normal (non-DBus) target paths.
func (c *Controller) TargetDevicePaths() []string { return keys(c.targetDevices) }

// DBusDevicePaths lists attached DBus target paths; always disjoint from
// TargetDevicePaths (SPEC_FULL.md §4 point 2).
func (c *Controller) DBusDevicePaths() []string { return keys(c.targetDBusDevices) }

// Name returns the composite device's logical name.
func (c *Controller) Name() string { return c.name }

// ProfileName returns the currently loaded profile's name, or "".
func (c *Controller) ProfileName() string { return c.profileName }

func stringify(s capability.Set) []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c.String())
	}
	return out
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
