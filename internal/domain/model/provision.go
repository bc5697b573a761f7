package model

// DHCP is the IP option value that requests a dynamically assigned address.
const DHCP = "dhcp"

// GuestSpec carries everything a create call needs besides node and vmid.
// Memory is in MB, Disk in GB.
type GuestSpec struct {
	Hostname   string
	OSTemplate string
	Cores      int
	Memory     int
	Swap       int
	Disk       int
	IP         string
	Gateway    string
	Netmask    string
	Password   string
	Storage    string
	Bridge     string
}

// UsesDHCP reports whether the spec asks for a dynamic address.
func (s GuestSpec) UsesDHCP() bool {
	return s.IP == "" || s.IP == DHCP
}
