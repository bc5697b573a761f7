package model

import "fmt"

// GuestKind selects the Proxmox guest family a resource id belongs to.
type GuestKind string

const (
	GuestKindContainer GuestKind = "lxc"
	GuestKindVM        GuestKind = "qemu"
)

// ParseGuestKind maps a config option value to a GuestKind. Empty input
// yields GuestKindContainer, which is what the module provisions by default.
func ParseGuestKind(s string) (GuestKind, error) {
	switch s {
	case "", "lxc", "container":
		return GuestKindContainer, nil
	case "qemu", "kvm", "vm":
		return GuestKindVM, nil
	default:
		return "", fmt.Errorf("unknown guest type %q", s)
	}
}

// APIPath returns the path segment used by the REST API for this kind.
// Unknown or empty kinds address the qemu endpoints.
func (k GuestKind) APIPath() string {
	if k == GuestKindContainer {
		return "lxc"
	}
	return "qemu"
}

// ConsoleType returns the console query value understood by the web UI.
func (k GuestKind) ConsoleType() string {
	if k == GuestKindContainer {
		return "lxc"
	}
	return "kvm"
}

// Guest addresses a single VM or container on a node.
type Guest struct {
	Node string
	VMID int
	Kind GuestKind
}

// GuestStatus is a point-in-time read of a guest's runtime state.
type GuestStatus struct {
	Status string // "running", "stopped", ...
	Name   string
	Uptime int64
	CPU    float64
	Mem    int64
	MaxMem int64
}

// ConsoleTicket is the response of a VNC proxy request.
type ConsoleTicket struct {
	Ticket string
	Port   string
	User   string
	UPID   string
}
