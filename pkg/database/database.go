// Package database opens the SIGEL relational store and migrates its schema.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sigel-gov/sigel/pkg/checklist"
	"github.com/sigel-gov/sigel/pkg/leilao"
)

// ErrUnknownType is returned for an unsupported database type.
var ErrUnknownType = errors.New("unknown database type")

// Open connects to the database described by cfg.
func Open(cfg *Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required (use --db-dsn or SIGEL_DB_DSN)")
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if isMemorySQLite(cfg) {
		// Every connection to ":memory:" is a separate database, so the
		// single connection must never be recycled.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		return db, nil
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

func dialectorFor(cfg *Config) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Type) {
	case TypeSQLite, "":
		return sqlite.Open(cfg.DSN), nil
	case TypePostgres, "postgresql":
		return postgres.Open(cfg.DSN), nil
	case TypeMySQL:
		dsn, err := NormalizeMySQLDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w %q (expected sqlite, postgres or mysql)", ErrUnknownType, cfg.Type)
	}
}

func isMemorySQLite(cfg *Config) bool {
	t := strings.ToLower(cfg.Type)
	return (t == TypeSQLite || t == "") && cfg.DSN == ":memory:"
}

// NormalizeMySQLDSN forces time parsing in UTC so timestamps round-trip
// into time.Time fields.
func NormalizeMySQLDSN(dsn string) (string, error) {
	c, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	c.ParseTime = true
	c.Loc = time.UTC
	return c.FormatDSN(), nil
}

// Migrate creates or updates every SIGEL table while holding the migration
// lock, so replicas starting together do not race on DDL.
func Migrate(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	err := NewMigrationLocker(db).WithLock(ctx, func() error {
		if err := leilao.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate leilao: %w", err)
		}
		if err := checklist.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate checklist: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("database migrated", "dialect", db.Dialector.Name(), "duration", time.Since(start).String())
	return nil
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
