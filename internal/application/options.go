package application

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

// Product option defaults, applied when the host sends an empty value.
const (
	DefaultOSTemplate = "local:vztmpl/debian-11-standard_11.3-1_amd64.tar.gz"
	DefaultCores      = 1
	DefaultMemoryMB   = 512
	DefaultDiskGB     = 10
	DefaultBandwidth  = 100
	DefaultNetmask    = "24"
)

// productOptions is the typed view of configoption1..configoption11.
type productOptions struct {
	Node       string
	VMID       int // 0 means allocate
	OSTemplate string
	Cores      int
	MemoryMB   int
	DiskGB     int
	Bandwidth  int
	IP         string
	Gateway    string
	Netmask    string
	Kind       model.GuestKind
}

func parseOptions(p model.ModuleParams) (productOptions, error) {
	opts := productOptions{
		Node:       strings.TrimSpace(p.ConfigOption1),
		OSTemplate: stringOr(p.ConfigOption3, DefaultOSTemplate),
		Cores:      intOr(p.ConfigOption4, DefaultCores),
		MemoryMB:   intOr(p.ConfigOption5, DefaultMemoryMB),
		DiskGB:     intOr(p.ConfigOption6, DefaultDiskGB),
		Bandwidth:  intOr(p.ConfigOption7, DefaultBandwidth),
		IP:         stringOr(p.ConfigOption8, model.DHCP),
		Gateway:    strings.TrimSpace(p.ConfigOption9),
		Netmask:    stringOr(p.ConfigOption10, DefaultNetmask),
	}

	if opts.Node == "" {
		return productOptions{}, errors.New("node is required (configoption1)")
	}

	if raw := strings.TrimSpace(p.ConfigOption2); raw != "" {
		vmid, err := strconv.Atoi(raw)
		if err != nil || vmid <= 0 {
			return productOptions{}, fmt.Errorf("invalid VMID %q", raw)
		}
		opts.VMID = vmid
	}

	kind, err := model.ParseGuestKind(strings.ToLower(strings.TrimSpace(p.ConfigOption11)))
	if err != nil {
		return productOptions{}, err
	}
	opts.Kind = kind

	return opts, nil
}

func stringOr(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func intOr(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
