package web

import (
	"fmt"
	"strings"

	vm "github.com/ericfisherdev/proxmoxvm/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/proxmoxvm/internal/application"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

// toClientAreaViewModel flattens the client-area template variables into
// display strings. Missing variables render as empty strings.
func toClientAreaViewModel(res model.ClientAreaResult) vm.ClientAreaViewModel {
	status := varString(res.Vars, "status")

	buttons := application.ClientButtons()
	btnVMs := make([]vm.ButtonViewModel, 0, len(buttons))
	for _, b := range buttons {
		btnVMs = append(btnVMs, vm.ButtonViewModel{Label: b.Label, Function: b.Function})
	}

	return vm.ClientAreaViewModel{
		VMID:        varString(res.Vars, "vmid"),
		Node:        varString(res.Vars, "node"),
		Type:        varString(res.Vars, "type"),
		Status:      status,
		StatusLabel: varString(res.Vars, "status_label"),
		StatusClass: statusClass(status),
		Password:    varString(res.Vars, "password"),
		Cores:       varString(res.Vars, "cores"),
		MemoryMB:    varString(res.Vars, "memory"),
		DiskGB:      varString(res.Vars, "disk"),
		Bandwidth:   varString(res.Vars, "bandwidth"),
		IP:          varString(res.Vars, "ip"),
		NoticeHTML:  varString(res.Vars, "notice_html"),
		Buttons:     btnVMs,
	}
}

func toErrorViewModel(res model.ClientAreaResult) vm.ErrorViewModel {
	msg := varString(res.Vars, "error")
	if msg == "" {
		msg = application.MsgNotFound
	}
	return vm.ErrorViewModel{Message: msg}
}

func varString(vars map[string]any, key string) string {
	v, ok := vars[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// statusClass maps a guest status to its badge modifier.
func statusClass(status string) string {
	switch strings.ToLower(status) {
	case "running":
		return "pvm-status--running"
	case "stopped":
		return "pvm-status--stopped"
	default:
		return "pvm-status--unknown"
	}
}
