// Package app wires configuration into the counter store and the numbering service.
// It is shared by the HTTP server and the admin CLI.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"brewops/internal/config"
	"brewops/internal/core/numerator"
	"brewops/internal/core/tx"
	"brewops/internal/domain/numbering"
	"brewops/internal/infrastructure/metrics"
	"brewops/internal/infrastructure/storage/postgres"
	"brewops/internal/infrastructure/storage/sqlite"
	"brewops/pkg/logger"
)

// WarehouseRegistry adds warehouses to the sub-scope directory.
type WarehouseRegistry interface {
	numerator.Directory
	AddWarehouse(ctx context.Context, tenantID, warehouseID, code, name string) error
}

// Pinger reports database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store bundles one storage backend.
type Store struct {
	Driver     string
	Repo       numerator.Repository
	TxManager  tx.Manager
	Warehouses WarehouseRegistry
	DB         Pinger

	close func()
}

// Close releases the database connections.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore connects to the configured database and applies the schema when enabled.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DSN)
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("postgres schema applied")
	}

	txOpts := postgres.DefaultTxOptions()
	if cfg.QueryTimeout > 0 {
		txOpts.StatementTimeout = cfg.QueryTimeout
	}
	txOpts.LockTimeout = cfg.LockTimeout

	txm := postgres.NewTxManager(pool, txOpts)
	return &Store{
		Driver:     config.DriverPostgres,
		Repo:       postgres.NewCounterRepo(txm),
		TxManager:  txm,
		Warehouses: postgres.NewWarehouseDirectory(txm),
		DB:         txm,
		close:      pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	sqliteCfg := sqlite.DefaultConfig(cfg.Path)
	if cfg.BusyTimeout > 0 {
		sqliteCfg.BusyTimeout = cfg.BusyTimeout
	}

	db, err := sqlite.Open(ctx, sqliteCfg)
	if err != nil {
		return nil, err
	}
	log.Infow("sqlite database opened", "path", cfg.Path)

	txm := sqlite.NewTxManager(db)
	return &Store{
		Driver:     config.DriverSQLite,
		Repo:       sqlite.NewCounterRepo(txm),
		TxManager:  txm,
		Warehouses: sqlite.NewWarehouseDirectory(txm),
		DB:         txm,
		close: func() {
			if err := db.Close(); err != nil {
				log.Warnw("failed to close sqlite database", "error", err)
			}
		},
	}, nil
}

// NewNumberingService builds the numbering service on store. reg may be nil to disable metrics.
func NewNumberingService(cfg *config.Config, store *Store, reg prometheus.Registerer) *numbering.Service {
	var recorder numbering.Recorder
	if reg != nil {
		recorder = metrics.NewNumberingMetrics(reg)
	}

	return numbering.NewService(numbering.ServiceConfig{
		Repo:      store.Repo,
		TxManager: store.TxManager,
		Directory: store.Warehouses,
		Recorder:  recorder,
		Location:  cfg.Numbering.Location(),
	})
}
