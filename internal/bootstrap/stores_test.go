package bootstrap

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/proxmoxvm/internal/application"
	"github.com/ericfisherdev/proxmoxvm/internal/config"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

func TestOpenStores_SQLite(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	cfg := &config.Config{
		DBDriver:  config.DriverSQLite,
		DBPath:    filepath.Join(t.TempDir(), "test.db"),
		SecretKey: key,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	stores, err := OpenStores(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	require.NoError(t, stores.Bindings.Create(ctx, model.VMBinding{
		ServiceID: 1, VMID: 100, Node: "pve1", Kind: model.GuestKindContainer, Password: "pw",
	}))
	require.NoError(t, stores.Services.SetUsername(ctx, 1, "100"))

	got, err := stores.Bindings.GetByServiceID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100, got.VMID)

	password, err := stores.Bindings.GetPassword(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "pw", password)
}

func TestOpenStores_BadKey(t *testing.T) {
	cfg := &config.Config{DBDriver: config.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "x.db"), SecretKey: []byte("short")}

	_, err := OpenStores(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, err)
}

// recordingHypervisor accepts every call and records its name.
type recordingHypervisor struct {
	driven.Hypervisor
	calls []string
}

func (h *recordingHypervisor) Login(context.Context) error {
	h.calls = append(h.calls, "Login")
	return nil
}

func (h *recordingHypervisor) NextID(context.Context) int {
	h.calls = append(h.calls, "NextID")
	return 150
}

func (h *recordingHypervisor) CreateContainer(context.Context, string, int, model.GuestSpec) (string, error) {
	h.calls = append(h.calls, "CreateContainer")
	return "UPID:create", nil
}

func (h *recordingHypervisor) Stop(context.Context, model.Guest) (string, error) {
	h.calls = append(h.calls, "Stop")
	return "UPID:stop", nil
}

func (h *recordingHypervisor) Delete(context.Context, model.Guest) (string, error) {
	h.calls = append(h.calls, "Delete")
	return "UPID:delete", nil
}

func openModule(t *testing.T, dbPath string, key []byte, hv *recordingHypervisor) *application.ModuleService {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores, err := OpenStores(context.Background(), &config.Config{
		DBDriver:  config.DriverSQLite,
		DBPath:    dbPath,
		SecretKey: key,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	factory := func(model.Server) driven.Hypervisor { return hv }
	return application.NewModuleService(factory, stores.Bindings, stores.Services, application.ModuleOptions{}, logger)
}

func moduleParams(serviceID int64) model.ModuleParams {
	return model.ModuleParams{ServiceID: serviceID, ServerHostname: "pve1.example.com", ConfigOption1: "pve1"}
}

func TestModule_KeylessCreateProvisionsNothing(t *testing.T) {
	hv := &recordingHypervisor{}
	svc := openModule(t, filepath.Join(t.TempDir(), "keyless.db"), nil, hv)

	result := svc.CreateAccount(context.Background(), moduleParams(8))

	assert.Equal(t, driven.ErrEncryptionKeyNotSet.Error(), result)
	assert.Empty(t, hv.calls)
}

func TestModule_RotatedKeyStillRunsLifecycle(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rotated.db")
	ctx := context.Background()

	first := &recordingHypervisor{}
	require.Equal(t, model.ResultSuccess, openModule(t, dbPath, bytes.Repeat([]byte{0xA1}, 32), first).CreateAccount(ctx, moduleParams(8)))

	hv := &recordingHypervisor{}
	svc := openModule(t, dbPath, bytes.Repeat([]byte{0xB2}, 32), hv)

	assert.Equal(t, model.ResultSuccess, svc.SuspendAccount(ctx, moduleParams(8)))
	assert.Equal(t, model.ResultSuccess, svc.TerminateAccount(ctx, moduleParams(8)))
	assert.Equal(t, []string{"Login", "Stop", "Login", "Stop", "Delete"}, hv.calls)
}
