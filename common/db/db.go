package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lyzr/petstore/common/config"
	"github.com/lyzr/petstore/common/logger"
)

// Querier is the transactional query handle repositories operate on.
// Satisfied by *pgxpool.Pool and pgx.Tx, so the same repository code runs
// against a pool or inside an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps writer and reader pgx pools with common operations
type DB struct {
	writer *pgxpool.Pool
	reader *pgxpool.Pool
	log    *logger.Logger
}

// New creates writer and reader connection pools. The reader pool points at
// the configured replica and falls back to the primary when none is set.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DB, error) {
	writer, err := newPool(ctx, cfg, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("create writer pool: %w", err)
	}

	reader := writer
	if cfg.ReplicaURL() != cfg.DatabaseURL() {
		reader, err = newPool(ctx, cfg, cfg.ReplicaURL())
		if err != nil {
			writer.Close()
			return nil, fmt.Errorf("create reader pool: %w", err)
		}
	}

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := writer.Ping(pingCtx); err != nil {
		writer.Close()
		if reader != writer {
			reader.Close()
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connected",
		"host", cfg.Database.Host,
		"db", cfg.Database.Database,
		"replica", cfg.Database.ReplicaHost != "",
	)

	return &DB{
		writer: writer,
		reader: reader,
		log:    log,
	}, nil
}

func newPool(ctx context.Context, cfg *config.Config, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	// Configure connection pool
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxIdleTime

	return pgxpool.NewWithConfig(ctx, poolConfig)
}

// Writer returns the primary query handle
func (db *DB) Writer() Querier {
	return db.writer
}

// Reader returns the replica-tolerant query handle. Reads through it may lag
// the primary; write flows must use Writer or RunInTransaction.
func (db *DB) Reader() Querier {
	return db.reader
}

// RunInTransaction runs fn inside a single read-committed transaction on the
// primary. Any error from fn rolls the whole transaction back; commit happens
// only when fn returns nil. Context cancellation mid-transaction aborts via
// the driver's rollback semantics.
func (db *DB) RunInTransaction(ctx context.Context, fn func(q Querier) error) error {
	tx, err := db.writer.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		// No-op when the transaction already committed
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Close closes the connection pools
func (db *DB) Close() {
	db.log.Info("closing database connection pools")
	db.writer.Close()
	if db.reader != db.writer {
		db.reader.Close()
	}
}

// Health checks database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.writer.Ping(ctx)
}
