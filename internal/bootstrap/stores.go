// Package bootstrap opens the persistence adapters selected by configuration.
// Both binaries share it so the server and the operator CLI always see the
// same database.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	postgresadapter "github.com/ericfisherdev/proxmoxvm/internal/adapter/driven/postgres"
	"github.com/ericfisherdev/proxmoxvm/internal/adapter/driven/secret"
	sqliteadapter "github.com/ericfisherdev/proxmoxvm/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/proxmoxvm/internal/config"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

// Stores bundles the driven store ports and the function that releases them.
type Stores struct {
	Bindings driven.BindingStore
	Services driven.ServiceStore
	Close    func() error
}

// OpenStores opens the configured database, runs migrations and wires the
// binding and service repositories.
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	box, err := secret.NewBox(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("init secret box: %w", err)
	}
	if !box.Enabled() {
		logger.Warn("PROXMOXVM_SECRET_KEY not set; guest credentials cannot be stored or read")
	}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgresadapter.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgresadapter.RunMigrations(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("database opened", "driver", cfg.DBDriver)
		return &Stores{
			Bindings: postgresadapter.NewBindingRepo(db, box),
			Services: postgresadapter.NewServiceRepo(db),
			Close:    db.Close,
		}, nil

	default:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := sqliteadapter.RunMigrations(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("database opened", "driver", cfg.DBDriver, "path", db.Path())
		return &Stores{
			Bindings: sqliteadapter.NewBindingRepo(db, box),
			Services: sqliteadapter.NewServiceRepo(db),
			Close:    db.Close,
		}, nil
	}
}
