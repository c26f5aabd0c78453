// Package controldbus exposes the composite device controller's control-bus
// object surface (spec.md §6): intercept mode/activation get-set,
// capability and path introspection, profile load, and the three direct
// write operations, plus change-notification signals.
package controldbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/charmbracelet/log"

	"github.com/bnema/inputplumberd/internal/event"
)

// InterceptMode mirrors controller.InterceptMode without importing the
// controller package (which imports controldbus), keeping the dependency
// one-directional.
type InterceptMode int

const (
	InterceptNone InterceptMode = iota
	InterceptPass
	InterceptAlways
)

// ControllerFacade is the narrow surface controldbus needs from a composite
// device controller to answer bus calls and relay writes.
type ControllerFacade interface {
	Name() string
	ProfileName() string
	Capabilities() []string
	TargetCapabilities() []string
	SourceDevicePaths() []string
	TargetDevicePaths() []string
	DBusDevicePaths() []string
	GetInterceptMode() InterceptMode
	SetInterceptMode(mode InterceptMode)
	SetInterceptActivation(caps []string, target string)
	LoadProfilePath(path string) error
	WriteEvent(evt event.NativeEvent)
	WriteChordEvent(evts []event.NativeEvent)
	WriteSendEvent(evt event.NativeEvent)
}

const busInterface = "org.inputplumberd.CompositeDevice"

// Object is the exported D-Bus object for one composite device.
type Object struct {
	conn *dbus.Conn
	path dbus.ObjectPath
	ctrl ControllerFacade
}

// Export connects to the session bus and exports ctrl's surface at
// objPath, named for the composite device path.
func Export(objPath string, ctrl ControllerFacade) (*Object, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("controldbus: connect session bus: %w", err)
	}

	o := &Object{conn: conn, path: dbus.ObjectPath(objPath), ctrl: ctrl}
	if err := conn.Export(o, o.path, busInterface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("controldbus: export %s: %w", objPath, err)
	}
	log.Debugf("controldbus: exported %s at %s", busInterface, objPath)
	return o, nil
}

// Close releases the bus connection.
func (o *Object) Close() error { return o.conn.Close() }

// GetName returns the composite device's name.
func (o *Object) GetName() (string, *dbus.Error) {
	return o.ctrl.Name(), nil
}

// GetProfileName returns the currently loaded profile's name, or "" if none.
func (o *Object) GetProfileName() (string, *dbus.Error) {
	return o.ctrl.ProfileName(), nil
}

// GetCapabilities lists the capabilities this composite device exposes.
func (o *Object) GetCapabilities() ([]string, *dbus.Error) {
	return o.ctrl.Capabilities(), nil
}

// GetTargetCapabilities lists the union of capabilities all attached
// targets can emit.
func (o *Object) GetTargetCapabilities() ([]string, *dbus.Error) {
	return o.ctrl.TargetCapabilities(), nil
}

// GetSourceDevicePaths lists attached source device kernel paths.
func (o *Object) GetSourceDevicePaths() ([]string, *dbus.Error) {
	return o.ctrl.SourceDevicePaths(), nil
}

// GetTargetDevicePaths lists attached normal target device paths.
func (o *Object) GetTargetDevicePaths() ([]string, *dbus.Error) {
	return o.ctrl.TargetDevicePaths(), nil
}

// GetDBusDevicePaths lists attached DBus target device paths. This is
// always disjoint from GetTargetDevicePaths (see SPEC_FULL.md §4 point 2).
func (o *Object) GetDBusDevicePaths() ([]string, *dbus.Error) {
	return o.ctrl.DBusDevicePaths(), nil
}

// GetInterceptMode returns the current intercept mode as an integer
// (0=None, 1=Pass, 2=Always).
func (o *Object) GetInterceptMode() (int32, *dbus.Error) {
	return int32(o.ctrl.GetInterceptMode()), nil
}

// SetInterceptMode switches the controller's intercept mode.
func (o *Object) SetInterceptMode(mode int32) *dbus.Error {
	o.ctrl.SetInterceptMode(InterceptMode(mode))
	return nil
}

// SetInterceptActivation replaces the activation chord and its synthesized
// target capability.
func (o *Object) SetInterceptActivation(caps []string, target string) *dbus.Error {
	o.ctrl.SetInterceptActivation(caps, target)
	return nil
}

// LoadProfilePath reloads the device profile from path, replying with an
// error string (empty on success).
func (o *Object) LoadProfilePath(path string) (string, *dbus.Error) {
	if err := o.ctrl.LoadProfilePath(path); err != nil {
		return err.Error(), nil
	}
	return "", nil
}

// SignalSourceDevicePathsChanged emits the SourceDevicePathsChanged signal.
func (o *Object) SignalSourceDevicePathsChanged(paths []string) error {
	return o.conn.Emit(o.path, busInterface+".SourceDevicePathsChanged", paths)
}

// SignalTargetDevicesChanged emits the TargetDevicesChanged signal.
func (o *Object) SignalTargetDevicesChanged(paths []string) error {
	return o.conn.Emit(o.path, busInterface+".TargetDevicesChanged", paths)
}

// IIOObject is the per-source-id interface an IIO source additionally
// exposes on the bus (spec.md §6).
type IIOObject struct {
	conn     *dbus.Conn
	path     dbus.ObjectPath
	sourceID string
}

const iioInterface = "org.inputplumberd.IIODevice"

// ExportIIO exports an IIO source's own object, keyed on its source id.
func ExportIIO(objPath, sourceID string) (*IIOObject, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("controldbus: connect session bus: %w", err)
	}
	o := &IIOObject{conn: conn, path: dbus.ObjectPath(objPath), sourceID: sourceID}
	if err := conn.Export(o, o.path, iioInterface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("controldbus: export iio %s: %w", objPath, err)
	}
	return o, nil
}

// GetSourceID returns the IIO source's id.
func (o *IIOObject) GetSourceID() (string, *dbus.Error) { return o.sourceID, nil }

// Close releases the bus connection.
func (o *IIOObject) Close() error { return o.conn.Close() }
