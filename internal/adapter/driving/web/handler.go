// Package web implements the HTML client-area driving adapter using templ components.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/proxmoxvm/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/proxmoxvm/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/proxmoxvm/internal/application"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// Handler is the web driving adapter that renders the client area as HTML.
type Handler struct {
	module *application.ModuleService
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(module *application.ModuleService, logger *slog.Logger) *Handler {
	return &Handler{
		module: module,
		logger: logger,
	}
}

// ClientArea renders the service page for the host params in the request body.
// Lookup and hypervisor failures still render a page, with the error template.
func (h *Handler) ClientArea(w http.ResponseWriter, r *http.Request) {
	var params model.ModuleParams
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.ServiceID <= 0 {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res := h.module.ClientArea(r.Context(), params)

	var body templ.Component
	if res.TemplateFile == application.TemplateClientArea {
		body = pages.ClientArea(toClientAreaViewModel(res))
	} else {
		body = pages.Error(toErrorViewModel(res))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Layout("Virtual server", body).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render client area", "service_id", params.ServiceID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
