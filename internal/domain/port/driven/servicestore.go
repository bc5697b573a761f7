package driven

import "context"

// ServiceStore defines the driven port for the host-owned service record.
type ServiceStore interface {
	// SetUsername overwrites the username field of the service record,
	// creating the record if the host has not written it yet.
	SetUsername(ctx context.Context, serviceID int64, username string) error
}
