package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/proxmoxvm/internal/adapter/driven/secret"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

func sampleBinding(serviceID int64) model.VMBinding {
	return model.VMBinding{
		ServiceID: serviceID,
		VMID:      140 + int(serviceID),
		Node:      "pve1",
		Kind:      model.GuestKindContainer,
		Password:  "Xy7!kP2@mQ9#",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBindingRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepo(db, testBox(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleBinding(7)))

	got, err := repo.GetByServiceID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, int64(7), got.ServiceID)
	assert.Equal(t, 147, got.VMID)
	assert.Equal(t, "pve1", got.Node)
	assert.Equal(t, model.GuestKindContainer, got.Kind)
	assert.Empty(t, got.Password, "lookups leave the credential sealed")
	assert.True(t, got.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.NotZero(t, got.ID)

	password, err := repo.GetPassword(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Xy7!kP2@mQ9#", password)
}

func TestBindingRepo_GetPasswordMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepo(db, testBox(t))

	_, err := repo.GetPassword(context.Background(), 99)
	assert.ErrorIs(t, err, driven.ErrBindingNotFound)
}

func TestBindingRepo_PasswordEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepo(db, testBox(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleBinding(1)))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT password FROM vm_bindings WHERE service_id = 1`).Scan(&stored)
	require.NoError(t, err)
	assert.NotEqual(t, "Xy7!kP2@mQ9#", stored)
	assert.NotContains(t, stored, "Xy7")
}

func TestBindingRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepo(db, testBox(t))

	got, err := repo.GetByServiceID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBindingRepo_DuplicateService(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepo(db, testBox(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleBinding(3)))

	err := repo.Create(ctx, sampleBinding(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrBindingExists)
}

func TestBindingRepo_DefaultsKindToContainer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepo(db, testBox(t))
	ctx := context.Background()

	b := sampleBinding(4)
	b.Kind = ""
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetByServiceID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, model.GuestKindContainer, got.Kind)
}

func TestBindingRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepo(db, testBox(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleBinding(5)))
	require.NoError(t, repo.DeleteByServiceID(ctx, 5))

	got, err := repo.GetByServiceID(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBindingRepo_DeleteMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepo(db, testBox(t))

	err := repo.DeleteByServiceID(context.Background(), 5)
	assert.ErrorIs(t, err, driven.ErrBindingNotFound)
}

func TestBindingRepo_ListAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepo(db, testBox(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleBinding(9)))
	require.NoError(t, repo.Create(ctx, sampleBinding(2)))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].ServiceID)
	assert.Equal(t, int64(9), all[1].ServiceID)
}

func TestBindingRepo_NoKeyRefusesWrites(t *testing.T) {
	db := setupTestDB(t)
	box, err := secret.NewBox(nil)
	require.NoError(t, err)
	repo := NewBindingRepo(db, box)

	assert.ErrorIs(t, repo.CredentialsReady(), driven.ErrEncryptionKeyNotSet)
	err = repo.Create(context.Background(), sampleBinding(1))
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestBindingRepo_KeyRemovedAfterWrite(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewBindingRepo(db, testBox(t)).Create(ctx, sampleBinding(1)))

	box, err := secret.NewBox(nil)
	require.NoError(t, err)
	repo := NewBindingRepo(db, box)

	got, err := repo.GetByServiceID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 141, got.VMID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.GetPassword(ctx, 1)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestBindingRepo_WrongKeyOnlyAffectsPassword(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewBindingRepo(db, testBox(t)).Create(ctx, sampleBinding(1)))

	other, err := secret.NewBox([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	repo := NewBindingRepo(db, other)

	got, err := repo.GetByServiceID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pve1", got.Node)

	_, err = repo.GetPassword(ctx, 1)
	assert.ErrorContains(t, err, "decrypt password")
}
