package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every PROXMOXVM_ env var that Load() reads.
var allConfigKeys = []string{
	"PROXMOXVM_LISTEN_ADDR",
	"PROXMOXVM_DB_DRIVER",
	"PROXMOXVM_DB_PATH",
	"PROXMOXVM_DATABASE_URL",
	"PROXMOXVM_SECRET_KEY",
	"PROXMOXVM_API_TOKEN",
	"PROXMOXVM_SERVER_HOST",
	"PROXMOXVM_SERVER_PORT",
	"PROXMOXVM_SERVER_USER",
	"PROXMOXVM_SERVER_PASSWORD",
	"PROXMOXVM_SERVER_REALM",
	"PROXMOXVM_TLS_SKIP_VERIFY",
	"PROXMOXVM_HTTP_TIMEOUT",
	"PROXMOXVM_TERMINATE_SETTLE",
	"PROXMOXVM_STORAGE",
	"PROXMOXVM_BRIDGE",
	"PROXMOXVM_CLIENT_NOTICE",
}

// isolateConfigEnv saves and unsets all PROXMOXVM_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PROXMOXVM_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("PROXMOXVM_DB_PATH", "/tmp/test.db")
	t.Setenv("PROXMOXVM_API_TOKEN", "tok")
	t.Setenv("PROXMOXVM_SERVER_HOST", "pve.example.com")
	t.Setenv("PROXMOXVM_SERVER_PORT", "8443")
	t.Setenv("PROXMOXVM_SERVER_USER", "billing")
	t.Setenv("PROXMOXVM_SERVER_PASSWORD", "pw")
	t.Setenv("PROXMOXVM_SERVER_REALM", "pve")
	t.Setenv("PROXMOXVM_TLS_SKIP_VERIFY", "true")
	t.Setenv("PROXMOXVM_HTTP_TIMEOUT", "10s")
	t.Setenv("PROXMOXVM_TERMINATE_SETTLE", "0s")
	t.Setenv("PROXMOXVM_STORAGE", "ceph")
	t.Setenv("PROXMOXVM_BRIDGE", "vmbr1")
	t.Setenv("PROXMOXVM_CLIENT_NOTICE", "**hello**")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "tok", cfg.APIToken)
	assert.Equal(t, "pve.example.com", cfg.Server.Host)
	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, "billing", cfg.Server.User)
	assert.Equal(t, "pw", cfg.Server.Password)
	assert.Equal(t, "pve", cfg.Server.Realm)
	assert.True(t, cfg.Server.TLSSkipVerify)
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout)
	assert.Equal(t, time.Duration(0), cfg.TerminateSettle)
	assert.Equal(t, "ceph", cfg.Storage)
	assert.Equal(t, "vmbr1", cfg.Bridge)
	assert.Equal(t, "**hello**", cfg.ClientNotice)
	assert.True(t, cfg.HasServer())
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "proxmoxvm.db", cfg.DBPath)
	assert.Equal(t, 8006, cfg.Server.Port)
	assert.Equal(t, "pam", cfg.Server.Realm)
	assert.False(t, cfg.Server.TLSSkipVerify)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 2*time.Second, cfg.TerminateSettle)
	assert.Equal(t, "local-lvm", cfg.Storage)
	assert.Equal(t, "vmbr0", cfg.Bridge)
	assert.Empty(t, cfg.APIToken)
	assert.False(t, cfg.HasServer())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PROXMOXVM_SERVER_PORT", "eighty"},
		{"PROXMOXVM_SERVER_PORT", "-1"},
		{"PROXMOXVM_TLS_SKIP_VERIFY", "maybe"},
		{"PROXMOXVM_HTTP_TIMEOUT", "not-a-duration"},
		{"PROXMOXVM_TERMINATE_SETTLE", "soon"},
		{"PROXMOXVM_DB_DRIVER", "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PROXMOXVM_DB_DRIVER", "postgres")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROXMOXVM_DATABASE_URL")
}

func TestLoad_Postgres(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PROXMOXVM_DB_DRIVER", "postgres")
	t.Setenv("PROXMOXVM_DATABASE_URL", "postgres://u:p@localhost:5432/proxmoxvm")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@localhost:5432/proxmoxvm", cfg.DatabaseURL)
}

func TestLoad_SecretKey_Absent(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Nil(t, cfg.SecretKey)
}

func TestLoad_SecretKey_Valid(t *testing.T) {
	isolateConfigEnv(t)
	// 64 hex chars = 32 bytes
	t.Setenv("PROXMOXVM_SECRET_KEY", "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Len(t, cfg.SecretKey, 32)
}

func TestLoad_SecretKey_TooShort(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PROXMOXVM_SECRET_KEY", "deadbeef")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROXMOXVM_SECRET_KEY")
}

func TestLoad_SecretKey_NotHex(t *testing.T) {
	isolateConfigEnv(t)
	// 64 chars but not valid hex
	t.Setenv("PROXMOXVM_SECRET_KEY", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROXMOXVM_SECRET_KEY")
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	isolateConfigEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("PROXMOXVM_SERVER_HOST=from-dotenv\nPROXMOXVM_BRIDGE=vmbr7\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("PROXMOXVM_SERVER_HOST", "from-env")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Server.Host)
	assert.Equal(t, "vmbr7", cfg.Bridge)
}
