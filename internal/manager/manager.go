// Package manager defines the narrow interfaces the composite device
// controller uses to talk to its out-of-scope collaborators: the device
// manager that creates/attaches target devices and pushes source-added
// notifications (spec.md §1, §6 — "out of scope... the device-discovery
// manager").
package manager

import "github.com/bnema/inputplumberd/internal/target"

// CreateTargetDeviceRequest asks the manager to instantiate a new target
// device of the given kind. Sender receives the reply on the reply channel
// embedded in the request.
type CreateTargetDeviceRequest struct {
	Kind  target.Kind
	Reply chan<- CreateTargetDeviceResult
}

// CreateTargetDeviceResult carries the new target's path and its command
// channel, or an error if creation failed (RpcError in spec.md §7 — "that
// kind skipped"). The manager owns the target.Backend and its Run loop; the
// controller only ever talks to it through Commands.
type CreateTargetDeviceResult struct {
	Path     string
	Commands chan<- target.Command
	Err      error
}

// AttachTargetDeviceRequest asks the manager to attach a previously created
// target device back onto its owning composite device.
type AttachTargetDeviceRequest struct {
	TargetPath    string
	CompositePath string
	Reply         chan<- error
}

// SourceDeviceAdded is the notification the manager pushes to a
// controller when it has discovered (and resolved) a new source device
// belonging to that controller's composite device.
type SourceDeviceAdded struct {
	ID   string
	Path string
}

// Manager is the controller-facing surface of the device manager
// collaborator. A controller holds one Manager per composite device (or a
// shared one keyed by composite path, at the manager's discretion).
type Manager interface {
	// CreateTargetDevice requests a new target device of kind, returning
	// its path once the manager replies.
	CreateTargetDevice(req CreateTargetDeviceRequest)
	// AttachTargetDevice requests the manager bind targetPath onto
	// compositePath, answering on req.Reply; on success the controller
	// then posts AttachTargetDevices onto its own queue.
	AttachTargetDevice(req AttachTargetDeviceRequest)
}
