package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

var (
	// ErrEncryptionKeyNotSet is returned when the stored guest credential cannot be
	// encrypted or decrypted because PROXMOXVM_SECRET_KEY has not been configured.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set PROXMOXVM_SECRET_KEY")

	// ErrBindingExists indicates the service already has a binding row.
	ErrBindingExists = errors.New("vm binding already exists for service")

	// ErrBindingNotFound indicates no binding row exists for the service.
	ErrBindingNotFound = errors.New("vm binding not found")
)

// BindingStore defines the driven port for the service-to-guest side table.
// The adapter encrypts Password before write. Lookups never decrypt it; only
// GetPassword does, so a missing or rotated key affects nothing but the
// credential itself.
type BindingStore interface {
	// CredentialsReady returns ErrEncryptionKeyNotSet when Create would be
	// unable to seal a password.
	CredentialsReady() error

	// Create inserts a binding. Returns ErrBindingExists when the service
	// already has one.
	Create(ctx context.Context, binding model.VMBinding) error

	// GetByServiceID returns (nil, nil) when no binding exists. Password is
	// left empty.
	GetByServiceID(ctx context.Context, serviceID int64) (*model.VMBinding, error)

	// GetPassword returns the decrypted guest password of the service's
	// binding, or ErrBindingNotFound.
	GetPassword(ctx context.Context, serviceID int64) (string, error)

	// DeleteByServiceID returns ErrBindingNotFound when nothing was deleted.
	DeleteByServiceID(ctx context.Context, serviceID int64) error

	// ListAll returns every binding ordered by service id, without passwords.
	ListAll(ctx context.Context) ([]model.VMBinding, error)
}
