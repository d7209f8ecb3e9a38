package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
)

// Dialect selects the DDL flavor; both drivers accept $N placeholders.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Config struct {
	DSN          string
	MaxOpenConns int
	DialTimeout  time.Duration
}

// ConfigFromCommon maps the application database config.
func ConfigFromCommon(c common.DatabaseConfig) Config {
	return Config{DSN: c.DSN, MaxOpenConns: c.MaxOpenConns, DialTimeout: c.DialTimeout}
}

// DB is a *sql.DB plus the dialect it speaks and the pgx pool behind it, if any.
type DB struct {
	SQL     *sql.DB
	Dialect Dialect
	pool    *pgxpool.Pool
}

// DialectFor picks postgres for postgres:// and postgresql:// DSNs and sqlite otherwise.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects, pings and creates the ledger schema if missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dialect := DialectFor(cfg.DSN)
	logger.Info("connecting to database", "dialect", dialect)

	ctx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	db := &DB{Dialect: dialect}
	switch dialect {
	case DialectPostgres:
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		if cfg.MaxOpenConns > 0 {
			pc.MaxConns = int32(cfg.MaxOpenConns)
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "ocr-extractor"
		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		db.pool = pool
		db.SQL = stdlib.OpenDBFromPool(pool)
	default:
		sqlDB, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		// one writer avoids SQLITE_BUSY between queue workers
		sqlDB.SetMaxOpenConns(1)
		db.SQL = sqlDB
	}

	if err := db.SQL.PingContext(ctx); err != nil {
		db.Close(logger)
		logger.Error("database ping failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close(logger)
		return nil, err
	}
	logger.Info("successfully connected to database")
	return db, nil
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if db.SQL != nil {
		if err := db.SQL.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database within timeout.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := common.WithTimeout(ctx, timeout)
	defer cancel()
	return db.SQL.PingContext(ctx)
}
