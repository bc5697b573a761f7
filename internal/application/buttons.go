package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

// AdminButtons returns the admin custom button array, in display order.
func AdminButtons() []model.Button {
	return []model.Button{
		{Label: "Start VM", Function: "AdminStartVM"},
		{Label: "Stop VM", Function: "AdminStopVM"},
		{Label: "Restart VM", Function: "AdminRestartVM"},
		{Label: "Get Status", Function: "AdminGetStatus"},
	}
}

// ClientButtons returns the client-area custom button array, in display order.
func ClientButtons() []model.Button {
	return []model.Button{
		{Label: "Start VM", Function: "ClientStartVM"},
		{Label: "Stop VM", Function: "ClientStopVM"},
		{Label: "Restart VM", Function: "ClientRestartVM"},
		{Label: "Console", Function: "ClientConsole"},
	}
}

// RunButton dispatches a custom button callback by function name.
// Start and stop buttons alias unsuspend and suspend.
func (s *ModuleService) RunButton(ctx context.Context, function string, params model.ModuleParams) (model.ButtonResult, error) {
	switch function {
	case "AdminStartVM", "ClientStartVM":
		return model.ButtonResult{Result: s.UnsuspendAccount(ctx, params)}, nil
	case "AdminStopVM", "ClientStopVM":
		return model.ButtonResult{Result: s.SuspendAccount(ctx, params)}, nil
	case "AdminRestartVM", "ClientRestartVM":
		return model.ButtonResult{Result: s.AdminRestartVM(ctx, params)}, nil
	case "AdminGetStatus":
		return s.AdminGetStatus(ctx, params), nil
	case "ClientConsole":
		sso := s.ServiceSingleSignOn(ctx, params)
		if !sso.Success {
			return model.ButtonResult{Result: sso.ErrorMsg}, nil
		}
		return model.ButtonResult{Result: model.ResultSuccess, RedirectTo: sso.RedirectTo}, nil
	default:
		return model.ButtonResult{}, fmt.Errorf("%w: %q", ErrUnknownButton, function)
	}
}
