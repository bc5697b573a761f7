package proxmox

import (
	"fmt"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

const (
	defaultStorage = "local-lvm"
	defaultBridge  = "vmbr0"
)

// ContainerNetwork builds the net0 descriptor for an LXC container:
// a static address with gateway, or DHCP.
func ContainerNetwork(spec model.GuestSpec) string {
	if spec.UsesDHCP() {
		return fmt.Sprintf("name=eth0,bridge=%s,ip=dhcp", bridgeOf(spec))
	}
	return fmt.Sprintf("name=eth0,bridge=%s,ip=%s/%s,gw=%s", bridgeOf(spec), spec.IP, spec.Netmask, spec.Gateway)
}

// VMIPConfig builds the cloud-init ipconfig0 value for a QEMU guest.
func VMIPConfig(spec model.GuestSpec) string {
	if spec.UsesDHCP() {
		return "ip=dhcp"
	}
	return fmt.Sprintf("ip=%s/%s,gw=%s", spec.IP, spec.Netmask, spec.Gateway)
}

func storageOf(spec model.GuestSpec) string {
	if spec.Storage == "" {
		return defaultStorage
	}
	return spec.Storage
}

func bridgeOf(spec model.GuestSpec) string {
	if spec.Bridge == "" {
		return defaultBridge
	}
	return spec.Bridge
}
