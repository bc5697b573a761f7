// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

// ErrUnknownButton is returned by RunButton for a function name that is not
// in either button array.
var ErrUnknownButton = errors.New("unknown button function")

// DefaultTerminateSettle is the pause between stop and delete on termination.
const DefaultTerminateSettle = 2 * time.Second

// ModuleOptions holds deployment-wide settings of the module service.
type ModuleOptions struct {
	// DefaultServer fills host, user and password when the host leaves them
	// empty. Port, realm, TLS and timeout always come from here.
	DefaultServer model.Server

	Storage string
	Bridge  string

	TerminateSettle time.Duration

	// NoticeHTML is sanitised HTML shown on the client-area page.
	NoticeHTML string
}

// ModuleService implements the host's provisioning callbacks. Every call
// opens a fresh hypervisor session, so the service itself holds no session
// state and is safe for concurrent use.
type ModuleService struct {
	newSession driven.HypervisorFactory
	bindings   driven.BindingStore
	services   driven.ServiceStore
	opts       ModuleOptions
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewModuleService creates a ModuleService with all required dependencies.
func NewModuleService(
	newSession driven.HypervisorFactory,
	bindings driven.BindingStore,
	services driven.ServiceStore,
	opts ModuleOptions,
	logger *slog.Logger,
) *ModuleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModuleService{
		newSession: newSession,
		bindings:   bindings,
		services:   services,
		opts:       opts,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// CreateAccount provisions a guest for the service and records the binding.
func (s *ModuleService) CreateAccount(ctx context.Context, params model.ModuleParams) (result string) {
	const action = "CreateAccount"
	defer s.recoverCall(action, params, func(msg string) { result = msg })

	opts, err := parseOptions(params)
	if err != nil {
		s.logCall(action, params, err)
		return err.Error()
	}

	// The guest must not be created if its credential cannot be recorded.
	if err := s.bindings.CredentialsReady(); err != nil {
		s.logCall(action, params, err)
		return err.Error()
	}

	hv := s.newSession(s.serverFor(params))
	if err := hv.Login(ctx); err != nil {
		s.logger.Warn("hypervisor login failed", "action", action, "service_id", params.ServiceID, "error", err)
		return MsgConnectFailed
	}

	vmid := opts.VMID
	if vmid == 0 {
		vmid = hv.NextID(ctx)
	}

	password := params.Password
	if password == "" {
		password, err = generatePassword(generatedPasswordLen)
		if err != nil {
			s.logCall(action, params, err)
			return err.Error()
		}
	}

	hostname := params.Domain
	if hostname == "" {
		hostname = fmt.Sprintf("vm-%d", params.ServiceID)
	}

	spec := model.GuestSpec{
		Hostname:   hostname,
		OSTemplate: opts.OSTemplate,
		Cores:      opts.Cores,
		Memory:     opts.MemoryMB,
		Disk:       opts.DiskGB,
		IP:         opts.IP,
		Gateway:    opts.Gateway,
		Netmask:    opts.Netmask,
		Password:   password,
		Storage:    s.opts.Storage,
		Bridge:     s.opts.Bridge,
	}

	var upid string
	if opts.Kind == model.GuestKindVM {
		upid, err = hv.CreateVM(ctx, opts.Node, vmid, spec)
	} else {
		upid, err = hv.CreateContainer(ctx, opts.Node, vmid, spec)
	}
	if err != nil {
		s.logger.Warn("guest create failed",
			"service_id", params.ServiceID, "node", opts.Node, "vmid", vmid, "kind", opts.Kind, "error", err)
		return MsgCreateFailed
	}

	binding := model.VMBinding{
		ServiceID: params.ServiceID,
		VMID:      vmid,
		Node:      opts.Node,
		Kind:      opts.Kind,
		Password:  password,
	}
	if err := s.bindings.Create(ctx, binding); err != nil {
		// The guest exists on the node at this point and is left in place.
		s.logCall(action, params, fmt.Errorf("record binding for vmid %d: %w", vmid, err))
		return err.Error()
	}

	if err := s.services.SetUsername(ctx, params.ServiceID, strconv.Itoa(vmid)); err != nil {
		s.logCall(action, params, err)
		return err.Error()
	}

	s.logger.Info("guest provisioned",
		"service_id", params.ServiceID, "node", opts.Node, "vmid", vmid, "kind", opts.Kind, "upid", upid)
	return model.ResultSuccess
}

// SuspendAccount stops the bound guest.
func (s *ModuleService) SuspendAccount(ctx context.Context, params model.ModuleParams) string {
	return s.powerAction(ctx, "SuspendAccount", params, MsgSuspendFailed, driven.Hypervisor.Stop)
}

// UnsuspendAccount starts the bound guest.
func (s *ModuleService) UnsuspendAccount(ctx context.Context, params model.ModuleParams) string {
	return s.powerAction(ctx, "UnsuspendAccount", params, MsgUnsuspendFailed, driven.Hypervisor.Start)
}

// AdminRestartVM reboots the bound guest.
func (s *ModuleService) AdminRestartVM(ctx context.Context, params model.ModuleParams) string {
	return s.powerAction(ctx, "AdminRestartVM", params, MsgRestartFailed, driven.Hypervisor.Restart)
}

// TerminateAccount stops and deletes the bound guest, then drops the binding.
// The stop result is ignored; a guest that is already stopped still gets deleted.
func (s *ModuleService) TerminateAccount(ctx context.Context, params model.ModuleParams) (result string) {
	const action = "TerminateAccount"
	defer s.recoverCall(action, params, func(msg string) { result = msg })

	hv, binding, msg := s.openBound(ctx, action, params)
	if msg != "" {
		return msg
	}
	guest := binding.Guest()

	if _, err := hv.Stop(ctx, guest); err != nil {
		s.logger.Debug("stop before delete failed", "service_id", params.ServiceID, "vmid", guest.VMID, "error", err)
	}

	if err := s.sleep(ctx, s.opts.TerminateSettle); err != nil {
		s.logCall(action, params, err)
		return err.Error()
	}

	if _, err := hv.Delete(ctx, guest); err != nil {
		s.logger.Warn("guest delete failed", "service_id", params.ServiceID, "vmid", guest.VMID, "error", err)
		return MsgTerminateFailed
	}

	if err := s.bindings.DeleteByServiceID(ctx, params.ServiceID); err != nil {
		s.logCall(action, params, err)
		return err.Error()
	}

	s.logger.Info("guest terminated", "service_id", params.ServiceID, "node", guest.Node, "vmid", guest.VMID)
	return model.ResultSuccess
}

// ClientArea builds the template name and variables for the service page.
// The binding is read before any hypervisor call; status falls back to
// "Unknown" when the hypervisor cannot be asked.
func (s *ModuleService) ClientArea(ctx context.Context, params model.ModuleParams) (result model.ClientAreaResult) {
	const action = "ClientArea"
	defer s.recoverCall(action, params, func(msg string) { result = errorPage(msg) })

	binding, err := s.bindings.GetByServiceID(ctx, params.ServiceID)
	if err != nil {
		s.logCall(action, params, err)
		return errorPage(err.Error())
	}
	if binding == nil {
		return errorPage(MsgNotFound)
	}

	password, err := s.bindings.GetPassword(ctx, params.ServiceID)
	if err != nil {
		s.logCall(action, params, err)
		return errorPage(err.Error())
	}

	status := MsgStatusUnknown
	hv := s.newSession(s.serverFor(params))
	if err := hv.Login(ctx); err == nil {
		if st, err := hv.Status(ctx, binding.Guest()); err == nil && st.Status != "" {
			status = st.Status
		} else if err != nil {
			s.logger.Debug("guest status unavailable", "service_id", params.ServiceID, "error", err)
		}
	} else {
		s.logger.Debug("hypervisor login failed", "action", action, "service_id", params.ServiceID, "error", err)
	}

	return model.ClientAreaResult{
		TemplateFile: TemplateClientArea,
		Vars: map[string]any{
			"vmid":         binding.VMID,
			"node":         binding.Node,
			"type":         string(binding.Kind),
			"status":       status,
			"status_label": StatusLabel(status),
			"password":     password,
			"cores":        stringOr(params.ConfigOption4, strconv.Itoa(DefaultCores)),
			"memory":       stringOr(params.ConfigOption5, strconv.Itoa(DefaultMemoryMB)),
			"disk":         stringOr(params.ConfigOption6, strconv.Itoa(DefaultDiskGB)),
			"bandwidth":    stringOr(params.ConfigOption7, strconv.Itoa(DefaultBandwidth)),
			"ip":           stringOr(params.ConfigOption8, model.DHCP),
			"notice_html":  s.opts.NoticeHTML,
		},
	}
}

// ServiceSingleSignOn obtains a console ticket and returns the web console URL.
func (s *ModuleService) ServiceSingleSignOn(ctx context.Context, params model.ModuleParams) (result model.SSOResult) {
	const action = "ServiceSingleSignOn"
	defer s.recoverCall(action, params, func(msg string) { result = model.SSOResult{ErrorMsg: msg} })

	binding, err := s.bindings.GetByServiceID(ctx, params.ServiceID)
	if err != nil {
		s.logCall(action, params, err)
		return model.SSOResult{ErrorMsg: err.Error()}
	}
	if binding == nil {
		return model.SSOResult{ErrorMsg: MsgNotFound}
	}

	server := s.serverFor(params)
	hv := s.newSession(server)
	if err := hv.Login(ctx); err != nil {
		s.logger.Warn("hypervisor login failed", "action", action, "service_id", params.ServiceID, "error", err)
		return model.SSOResult{ErrorMsg: MsgConnectFailed}
	}

	guest := binding.Guest()
	if _, err := hv.ConsoleTicket(ctx, guest); err != nil {
		s.logger.Warn("console ticket failed", "service_id", params.ServiceID, "vmid", guest.VMID, "error", err)
		return model.SSOResult{ErrorMsg: MsgConsoleFailed}
	}

	return model.SSOResult{Success: true, RedirectTo: ConsoleURL(server, guest)}
}

// AdminGetStatus reports the bound guest's current status.
func (s *ModuleService) AdminGetStatus(ctx context.Context, params model.ModuleParams) (result model.ButtonResult) {
	const action = "AdminGetStatus"
	defer s.recoverCall(action, params, func(msg string) { result = model.ButtonResult{Result: msg} })

	hv, binding, msg := s.openBound(ctx, action, params)
	if msg != "" {
		return model.ButtonResult{Result: msg}
	}

	st, err := hv.Status(ctx, binding.Guest())
	if err != nil {
		s.logger.Warn("guest status failed", "service_id", params.ServiceID, "vmid", binding.VMID, "error", err)
		return model.ButtonResult{Result: MsgStatusFailed}
	}

	return model.ButtonResult{Result: model.ResultSuccess, Status: st.Status}
}

// ListBindings returns every recorded service-to-guest binding.
func (s *ModuleService) ListBindings(ctx context.Context) ([]model.VMBinding, error) {
	bindings, err := s.bindings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	return bindings, nil
}

type guestOp func(hv driven.Hypervisor, ctx context.Context, guest model.Guest) (string, error)

// powerAction runs login, binding lookup and one guest operation.
func (s *ModuleService) powerAction(ctx context.Context, action string, params model.ModuleParams, failMsg string, op guestOp) (result string) {
	defer s.recoverCall(action, params, func(msg string) { result = msg })

	hv, binding, msg := s.openBound(ctx, action, params)
	if msg != "" {
		return msg
	}

	guest := binding.Guest()
	upid, err := op(hv, ctx, guest)
	if err != nil {
		s.logger.Warn("guest action failed",
			"action", action, "service_id", params.ServiceID, "vmid", guest.VMID, "error", err)
		return failMsg
	}

	s.logger.Info("guest action issued", "action", action, "service_id", params.ServiceID, "vmid", guest.VMID, "upid", upid)
	return model.ResultSuccess
}

// openBound logs in and loads the binding, in that order. A non-empty
// message means the caller must return it unchanged.
func (s *ModuleService) openBound(ctx context.Context, action string, params model.ModuleParams) (driven.Hypervisor, *model.VMBinding, string) {
	hv := s.newSession(s.serverFor(params))
	if err := hv.Login(ctx); err != nil {
		s.logger.Warn("hypervisor login failed", "action", action, "service_id", params.ServiceID, "error", err)
		return nil, nil, MsgConnectFailed
	}

	binding, err := s.bindings.GetByServiceID(ctx, params.ServiceID)
	if err != nil {
		s.logCall(action, params, err)
		return nil, nil, err.Error()
	}
	if binding == nil {
		return nil, nil, MsgNotFound
	}

	return hv, binding, ""
}

// serverFor overlays the host-supplied server fields on the default server.
func (s *ModuleService) serverFor(params model.ModuleParams) model.Server {
	server := s.opts.DefaultServer
	if params.ServerHostname != "" {
		server.Host = params.ServerHostname
	}
	if params.ServerUsername != "" {
		server.User = params.ServerUsername
	}
	if params.ServerPassword != "" {
		server.Password = params.ServerPassword
	}
	return server
}

// logCall records a failed callback the way the host's module log expects.
func (s *ModuleService) logCall(action string, params model.ModuleParams, err error) {
	s.logger.Error("module call failed",
		"action", action,
		"service_id", params.ServiceID,
		"params", params.Redacted(),
		"error", err,
	)
}

// recoverCall turns a panic inside a callback into a logged failure message.
func (s *ModuleService) recoverCall(action string, params model.ModuleParams, setResult func(msg string)) {
	rec := recover()
	if rec == nil {
		return
	}

	msg := fmt.Sprintf("internal error: %v", rec)
	s.logger.Error("module call panicked",
		"action", action,
		"service_id", params.ServiceID,
		"params", params.Redacted(),
		"error", msg,
		"stack", string(debug.Stack()),
	)
	setResult(msg)
}

// ConsoleURL builds the noVNC console address on the node's web UI.
func ConsoleURL(server model.Server, guest model.Guest) string {
	port := server.Port
	if port == 0 {
		port = 8006
	}
	return fmt.Sprintf("https://%s:%d/?console=%s&vmid=%d&node=%s&novnc=1",
		server.Host, port, guest.Kind.ConsoleType(), guest.VMID, url.QueryEscape(guest.Node))
}

// StatusLabel title-cases a status string for display.
func StatusLabel(status string) string {
	return cases.Title(language.English).String(status)
}

func errorPage(msg string) model.ClientAreaResult {
	return model.ClientAreaResult{
		TemplateFile: TemplateError,
		Vars:         map[string]any{"error": msg},
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
