// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

// Database drivers accepted by PROXMOXVM_DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr  string
	DBDriver    string
	DBPath      string
	DatabaseURL string
	SecretKey   []byte // nil when PROXMOXVM_SECRET_KEY is unset
	APIToken    string

	Server model.Server

	TerminateSettle time.Duration
	Storage         string
	Bridge          string
	ClientNotice    string
}

// HasServer reports whether a default hypervisor endpoint is configured.
// Without one every callback must carry server fields in its params.
func (c *Config) HasServer() bool {
	return c.Server.Host != "" && c.Server.User != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// A .env file in the working directory is read first; it never overrides
// variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:   envOr("PROXMOXVM_LISTEN_ADDR", "127.0.0.1:8080"),
		DBDriver:     envOr("PROXMOXVM_DB_DRIVER", DriverSQLite),
		DBPath:       envOr("PROXMOXVM_DB_PATH", "proxmoxvm.db"),
		DatabaseURL:  os.Getenv("PROXMOXVM_DATABASE_URL"),
		APIToken:     os.Getenv("PROXMOXVM_API_TOKEN"),
		Storage:      envOr("PROXMOXVM_STORAGE", "local-lvm"),
		Bridge:       envOr("PROXMOXVM_BRIDGE", "vmbr0"),
		ClientNotice: os.Getenv("PROXMOXVM_CLIENT_NOTICE"),
		Server: model.Server{
			Host:     os.Getenv("PROXMOXVM_SERVER_HOST"),
			User:     os.Getenv("PROXMOXVM_SERVER_USER"),
			Password: os.Getenv("PROXMOXVM_SERVER_PASSWORD"),
			Realm:    envOr("PROXMOXVM_SERVER_REALM", "pam"),
		},
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PROXMOXVM_DATABASE_URL is required when PROXMOXVM_DB_DRIVER=%s", DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("PROXMOXVM_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.DBDriver)
	}

	port, err := intEnv("PROXMOXVM_SERVER_PORT", 8006)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = port

	if v, ok := os.LookupEnv("PROXMOXVM_TLS_SKIP_VERIFY"); ok && v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("PROXMOXVM_TLS_SKIP_VERIFY has invalid boolean %q: %w", v, err)
		}
		cfg.Server.TLSSkipVerify = skip
	}

	if cfg.Server.Timeout, err = durationEnv("PROXMOXVM_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.TerminateSettle, err = durationEnv("PROXMOXVM_TERMINATE_SETTLE", 2*time.Second); err != nil {
		return nil, err
	}

	if v := os.Getenv("PROXMOXVM_SECRET_KEY"); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("PROXMOXVM_SECRET_KEY must be hex encoded: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("PROXMOXVM_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s has invalid port %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return d, nil
}
