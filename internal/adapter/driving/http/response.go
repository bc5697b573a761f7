package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ResultResponse carries a lifecycle callback result: "success" or a message.
type ResultResponse struct {
	Result string `json:"result"`
}

// ButtonsResponse lists both custom button arrays.
type ButtonsResponse struct {
	Admin  []model.Button `json:"admin"`
	Client []model.Button `json:"client"`
}

// BindingResponse is the JSON representation of a binding. The guest
// password is never included.
type BindingResponse struct {
	ServiceID int64  `json:"service_id"`
	VMID      int    `json:"vmid"`
	Node      string `json:"node"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toBindingResponse converts a domain VMBinding to its JSON representation.
func toBindingResponse(b model.VMBinding) BindingResponse {
	return BindingResponse{
		ServiceID: b.ServiceID,
		VMID:      b.VMID,
		Node:      b.Node,
		Type:      string(b.Kind),
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
