package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ericfisherdev/proxmoxvm/internal/adapter/driven/secret"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

var _ driven.BindingStore = (*BindingRepo)(nil)

// BindingRepo is the PostgreSQL implementation of the BindingStore port.
type BindingRepo struct {
	db  *sql.DB
	box *secret.Box
}

// NewBindingRepo creates a BindingRepo. A box without a key makes Create and
// GetPassword fail with driven.ErrEncryptionKeyNotSet.
func NewBindingRepo(db *sql.DB, box *secret.Box) *BindingRepo {
	return &BindingRepo{db: db, box: box}
}

// CredentialsReady reports whether Create can seal a password.
func (r *BindingRepo) CredentialsReady() error {
	if !r.box.Enabled() {
		return driven.ErrEncryptionKeyNotSet
	}
	return nil
}

// Create inserts a binding row. A unique violation on service_id maps to
// driven.ErrBindingExists.
func (r *BindingRepo) Create(ctx context.Context, b model.VMBinding) error {
	sealed, err := r.box.Encrypt(b.Password)
	if err != nil {
		return err
	}

	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	kind := b.Kind
	if kind == "" {
		kind = model.GuestKindContainer
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO vm_bindings (service_id, vmid, node, guest_type, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, b.ServiceID, b.VMID, b.Node, string(kind), sealed, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create binding for service %d: %w", b.ServiceID, driven.ErrBindingExists)
		}
		return fmt.Errorf("create binding for service %d: %w", b.ServiceID, err)
	}
	return nil
}

// GetByServiceID returns the binding for the service, or nil, nil if none exists.
func (r *BindingRepo) GetByServiceID(ctx context.Context, serviceID int64) (*model.VMBinding, error) {
	b, err := scan(r.db.QueryRowContext(ctx, `
		SELECT id, service_id, vmid, node, guest_type, created_at, updated_at
		FROM vm_bindings WHERE service_id=$1
	`, serviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get binding for service %d: %w", serviceID, err)
	}
	return b, nil
}

// GetPassword opens the stored guest password of the service's binding.
func (r *BindingRepo) GetPassword(ctx context.Context, serviceID int64) (string, error) {
	var sealed string
	err := r.db.QueryRowContext(ctx, `SELECT password FROM vm_bindings WHERE service_id=$1`, serviceID).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get password for service %d: %w", serviceID, driven.ErrBindingNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get password for service %d: %w", serviceID, err)
	}

	password, err := r.box.Decrypt(sealed)
	if err != nil {
		return "", fmt.Errorf("decrypt password for service %d: %w", serviceID, err)
	}
	return password, nil
}

// DeleteByServiceID removes the binding row for the service.
func (r *BindingRepo) DeleteByServiceID(ctx context.Context, serviceID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vm_bindings WHERE service_id=$1`, serviceID)
	if err != nil {
		return fmt.Errorf("delete binding for service %d: %w", serviceID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete binding for service %d: %w", serviceID, driven.ErrBindingNotFound)
	}
	return nil
}

// ListAll returns every binding ordered by service id.
func (r *BindingRepo) ListAll(ctx context.Context) ([]model.VMBinding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, service_id, vmid, node, guest_type, created_at, updated_at
		FROM vm_bindings ORDER BY service_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	var bindings []model.VMBinding
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		bindings = append(bindings, *b)
	}
	return bindings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*model.VMBinding, error) {
	var b model.VMBinding
	var kind string
	if err := s.Scan(&b.ID, &b.ServiceID, &b.VMID, &b.Node, &kind, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Kind = model.GuestKind(kind)
	return &b, nil
}
