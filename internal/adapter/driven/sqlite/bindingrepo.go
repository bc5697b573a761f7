package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/proxmoxvm/internal/adapter/driven/secret"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BindingStore = (*BindingRepo)(nil)

// BindingRepo is the SQLite implementation of the BindingStore port.
// The guest password is sealed by box before write and opened after read.
type BindingRepo struct {
	db  *DB
	box *secret.Box
}

// NewBindingRepo creates a BindingRepo. A box without a key makes Create and
// GetPassword fail with driven.ErrEncryptionKeyNotSet; the other reads work.
func NewBindingRepo(db *DB, box *secret.Box) *BindingRepo {
	return &BindingRepo{db: db, box: box}
}

// CredentialsReady reports whether Create can seal a password.
func (r *BindingRepo) CredentialsReady() error {
	if !r.box.Enabled() {
		return driven.ErrEncryptionKeyNotSet
	}
	return nil
}

// Create inserts a binding row. Returns driven.ErrBindingExists if the service
// already has one.
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

	const query = `INSERT INTO vm_bindings (service_id, vmid, node, guest_type, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	ts := createdAt.UTC().Format(time.RFC3339)
	_, err = r.db.Writer.ExecContext(ctx, query, b.ServiceID, b.VMID, b.Node, string(kind), sealed, ts, ts)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("create binding for service %d: %w", b.ServiceID, driven.ErrBindingExists)
		}
		return fmt.Errorf("create binding for service %d: %w", b.ServiceID, err)
	}
	return nil
}

// GetByServiceID returns the binding for the service, or nil, nil if none exists.
func (r *BindingRepo) GetByServiceID(ctx context.Context, serviceID int64) (*model.VMBinding, error) {
	const query = `SELECT id, service_id, vmid, node, guest_type, created_at, updated_at
		FROM vm_bindings WHERE service_id = ?`

	b, err := scanBinding(r.db.Reader.QueryRowContext(ctx, query, serviceID))
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
	const query = `SELECT password FROM vm_bindings WHERE service_id = ?`

	var sealed string
	err := r.db.Reader.QueryRowContext(ctx, query, serviceID).Scan(&sealed)
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
	const query = `DELETE FROM vm_bindings WHERE service_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, serviceID)
	if err != nil {
		return fmt.Errorf("delete binding for service %d: %w", serviceID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete binding for service %d: %w", serviceID, driven.ErrBindingNotFound)
	}
	return nil
}

// ListAll returns every binding ordered by service id.
func (r *BindingRepo) ListAll(ctx context.Context) ([]model.VMBinding, error) {
	const query = `SELECT id, service_id, vmid, node, guest_type, created_at, updated_at
		FROM vm_bindings ORDER BY service_id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	var bindings []model.VMBinding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		bindings = append(bindings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}

	return bindings, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBinding(s scanner) (*model.VMBinding, error) {
	var b model.VMBinding
	var kind, createdAt, updatedAt string

	if err := s.Scan(&b.ID, &b.ServiceID, &b.VMID, &b.Node, &kind, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.Kind = model.GuestKind(kind)

	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &b, nil
}

// parseTime tries the datetime layouts SQLite and this package write.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
