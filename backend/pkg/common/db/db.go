// Package db opens the off-chain database behind gorm
package db

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Open connects to the database named by cfg.Driver
func Open(ctx context.Context, cfg common.DBConfig, logger *slog.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var gormDB *gorm.DB
	var err error
	switch cfg.Driver {
	case common.DriverPostgres:
		gormDB, err = openPostgres(ctx, cfg, logger)
	case common.DriverSqlite:
		gormDB, err = openSqlite(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown db driver %q", common.ErrInvalidConfig, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := gormDB.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		_ = Close(gormDB)
		return nil, fmt.Errorf("failed to enable db tracing: %w", err)
	}
	return gormDB, nil
}

// Close releases the connection pool
func Close(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
}
