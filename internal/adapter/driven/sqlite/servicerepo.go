package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ServiceStore = (*ServiceRepo)(nil)

// ServiceRepo is the SQLite implementation of the ServiceStore port.
type ServiceRepo struct {
	db *DB
}

// NewServiceRepo creates a new ServiceRepo backed by the given DB.
func NewServiceRepo(db *DB) *ServiceRepo {
	return &ServiceRepo{db: db}
}

// SetUsername upserts the username of the service record.
func (r *ServiceRepo) SetUsername(ctx context.Context, serviceID int64, username string) error {
	const query = `INSERT INTO services (id, username, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.Writer.ExecContext(ctx, query, serviceID, username); err != nil {
		return fmt.Errorf("set username for service %d: %w", serviceID, err)
	}
	return nil
}
