package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

var _ driven.ServiceStore = (*ServiceRepo)(nil)

// ServiceRepo is the PostgreSQL implementation of the ServiceStore port.
type ServiceRepo struct {
	db *sql.DB
}

// NewServiceRepo creates a new ServiceRepo backed by the given pool.
func NewServiceRepo(db *sql.DB) *ServiceRepo {
	return &ServiceRepo{db: db}
}

// SetUsername upserts the username of the service record.
func (r *ServiceRepo) SetUsername(ctx context.Context, serviceID int64, username string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO services (id, username, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET username=EXCLUDED.username, updated_at=now()
	`, serviceID, username)
	if err != nil {
		return fmt.Errorf("set username for service %d: %w", serviceID, err)
	}
	return nil
}
