package db

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// openSqlite opens the database file at cfg.Path, creating its directory.
// An empty path opens a private in-memory database.
func openSqlite(cfg common.DBConfig, logger *slog.Logger) (*gorm.DB, error) {
	dsn := "file::memory:"
	if cfg.Path != "" {
		dir := filepath.Dir(cfg.Path)
		if _, err := os.Stat(dir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", cfg.Path)
	}

	gormDB, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		// each connection to file::memory: is its own database
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	logger.Info("opened database", "driver", common.DriverSqlite, "path", cfg.Path)
	return gormDB, nil
}
