package model

import "time"

// VMBinding maps a billing service to the guest that was provisioned for it.
// Password holds the plaintext guest root password when creating a binding;
// stores encrypt it at rest and leave it empty on lookup.
type VMBinding struct {
	ID        int64
	ServiceID int64
	VMID      int
	Node      string
	Kind      GuestKind
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Guest returns the hypervisor reference for the bound guest.
func (b VMBinding) Guest() Guest {
	return Guest{Node: b.Node, VMID: b.VMID, Kind: b.Kind}
}
