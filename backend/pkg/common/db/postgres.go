package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common"
	_ "github.com/lib/pq" // Postgres driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	pingAttempts = 5
	pingInterval = 2 * time.Second
)

// openPostgres connects through lib/pq and waits for the server to accept
// connections before handing the pool to gorm
func openPostgres(ctx context.Context, cfg common.DBConfig, logger *slog.Logger) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		err = sqlDB.PingContext(ctx)
		if err == nil {
			break
		}
		logger.Warn(
			"waiting for database",
			"attempt", i+1,
			"attempts", pingAttempts,
			"host", cfg.Host,
			"error", err,
		)
		select {
		case <-time.After(pingInterval):
		case <-ctx.Done():
			_ = sqlDB.Close()
			return nil, ctx.Err()
		}
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		gormConfig(),
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("connected to database", "driver", common.DriverPostgres, "host", cfg.Host, "name", cfg.Name)
	return gormDB, nil
}
