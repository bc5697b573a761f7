package proxmox

import (
	"fmt"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

// APIError is returned when the API answers with a non-2xx status.
// It matches driven.ErrRejected under errors.Is.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("proxmox api: %s", e.Status)
	}
	return fmt.Sprintf("proxmox api: %s: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	return driven.ErrRejected
}
