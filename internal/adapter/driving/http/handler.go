package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/proxmoxvm/internal/application"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the module callback API.
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

// RegisterAPIRoutes registers the JSON API on mux. Every route except health
// goes through auth.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler, auth func(http.Handler) http.Handler) {
	protect := func(fn http.HandlerFunc) http.Handler { return auth(fn) }

	mux.Handle("POST /api/v1/module/create", protect(h.lifecycle(h.module.CreateAccount)))
	mux.Handle("POST /api/v1/module/suspend", protect(h.lifecycle(h.module.SuspendAccount)))
	mux.Handle("POST /api/v1/module/unsuspend", protect(h.lifecycle(h.module.UnsuspendAccount)))
	mux.Handle("POST /api/v1/module/terminate", protect(h.lifecycle(h.module.TerminateAccount)))
	mux.Handle("POST /api/v1/module/clientarea", protect(h.ClientArea))
	mux.Handle("POST /api/v1/module/sso", protect(h.SingleSignOn))
	mux.Handle("GET /api/v1/module/buttons", protect(h.ListButtons))
	mux.Handle("POST /api/v1/module/buttons/{function}", protect(h.RunButton))
	mux.Handle("GET /api/v1/bindings", protect(h.ListBindings))
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, token string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h, RequireToken(token))
	return ApplyMiddleware(mux, logger)
}

// lifecycle adapts a string-returning callback to a JSON endpoint.
func (h *Handler) lifecycle(fn func(context.Context, model.ModuleParams) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := h.decodeParams(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, ResultResponse{Result: fn(r.Context(), params)})
	}
}

// ClientArea returns the template name and variables for the service page.
func (h *Handler) ClientArea(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.module.ClientArea(r.Context(), params))
}

// SingleSignOn returns the console redirect for the service.
func (h *Handler) SingleSignOn(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.module.ServiceSingleSignOn(r.Context(), params))
}

// ListButtons returns the admin and client custom button arrays.
func (h *Handler) ListButtons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ButtonsResponse{
		Admin:  application.AdminButtons(),
		Client: application.ClientButtons(),
	})
}

// RunButton dispatches a custom button callback by function name.
func (h *Handler) RunButton(w http.ResponseWriter, r *http.Request) {
	function := r.PathValue("function")

	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	res, err := h.module.RunButton(r.Context(), function, params)
	if err != nil {
		if errors.Is(err, application.ErrUnknownButton) {
			writeError(w, http.StatusNotFound, "unknown button function")
			return
		}
		h.logger.Error("button failed", "function", function, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ListBindings returns every recorded binding without credentials.
func (h *Handler) ListBindings(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.module.ListBindings(r.Context())
	if err != nil {
		h.logger.Error("failed to list bindings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]BindingResponse, 0, len(bindings))
	for _, b := range bindings {
		resp = append(resp, toBindingResponse(b))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// decodeParams reads the host params body. On failure it writes a 400 and
// returns false.
func (h *Handler) decodeParams(w http.ResponseWriter, r *http.Request) (model.ModuleParams, bool) {
	var params model.ModuleParams
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return params, false
	}
	if params.ServiceID <= 0 {
		writeError(w, http.StatusBadRequest, "serviceid is required")
		return params, false
	}
	return params, true
}
