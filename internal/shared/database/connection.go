package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"cities-server/internal/shared/config"
	"cities-server/internal/shared/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type DB struct {
	*sqlx.DB
	prePing bool
}

type Tx struct {
	*sqlx.Tx
}

// Executor is satisfied by both *DB and *Tx so repositories can run inside or outside a transaction
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Transactor runs a unit of work inside a single transaction
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *Tx) error) error
}

var (
	_ Executor   = (*DB)(nil)
	_ Executor   = (*Tx)(nil)
	_ Transactor = (*DB)(nil)
)

// NewDB wraps an open pool. With prePing set every transaction starts with a liveness check.
func NewDB(db *sqlx.DB, prePing bool) *DB {
	return &DB{DB: db, prePing: prePing}
}

func (db *DB) BeginTxContext(ctx context.Context) (*Tx, error) {
	if db.prePing {
		if err := db.PingContext(ctx); err != nil {
			return nil, errors.WrapStorage("database is unreachable", err)
		}
	}

	tx, err := db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.WrapStorage("failed to begin transaction", err)
	}
	return &Tx{tx}, nil
}

// WithTx commits when fn succeeds and rolls back otherwise.
// A failed rollback is reported ahead of the error that caused it.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	logger := slog.With("component", "database", "operation", "transaction")

	tx, err := db.BeginTxContext(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !stderrors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Failed to roll back transaction", "error", rbErr, "cause", err)
			return stderrors.Join(errors.WrapStorage("failed to roll back transaction", rbErr), err)
		}
		logger.Debug("Transaction rolled back", "cause", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit transaction", "error", err)
		return errors.WrapStorage("failed to commit transaction", err)
	}

	return nil
}

func Connect() (*DB, error) {
	cfg := config.GlobalConfig
	logger := slog.With("component", "database", "operation", "connect")
	logger.Debug("Initializing database connection")

	logger.Info("Connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"user", cfg.Database.User,
		"database", cfg.Database.Name,
		"sslmode", cfg.Database.SSLMode,
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
		"conn_max_lifetime", cfg.Database.ConnMaxLifetime,
		"pre_ping", cfg.Database.PrePing,
		"keepalives", cfg.Database.Keepalive.Enabled,
	)

	connector, err := pq.NewConnector(cfg.ConnectionString())
	if err != nil {
		logger.Error("Failed to build database connector",
			"error", err, "host", cfg.Database.Host, "database", cfg.Database.Name)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	connector.Dialer(newKeepaliveDialer(cfg.Database.Keepalive))

	sqlDB := sql.OpenDB(connector)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	logger.Debug("Testing database connection with ping")
	if err := sqlDB.Ping(); err != nil {
		logger.Error("Failed to ping database",
			"error", err, "host", cfg.Database.Host, "database", cfg.Database.Name)
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close database after ping failure", "close_error", closeErr, "ping_error", err)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully",
		"host", cfg.Database.Host, "database", cfg.Database.Name)

	return NewDB(sqlx.NewDb(sqlDB, "postgres"), cfg.Database.PrePing), nil
}
