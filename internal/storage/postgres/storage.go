package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/pointsledger/internal/domain/repository"
)

const uniqueViolation = "23505"

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

var _ repository.Factory = (*Storage)(nil)

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Events() repository.EventStore {
	return &eventStore{storage: s}
}

func (s *Storage) Redemptions() repository.RedemptionRepository {
	return &redemptionRepository{storage: s}
}

func (s *Storage) Expirations() repository.ExpirationRepository {
	return &expirationRepository{storage: s}
}

func (s *Storage) Directory() repository.DirectoryRepository {
	return &directoryRepository{storage: s}
}

func (s *Storage) Sagas() repository.SagaRepository {
	return &sagaRepository{storage: s}
}

func (s *Storage) Interventions() repository.InterventionRepository {
	return &interventionRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
            event_id TEXT PRIMARY KEY,
            aggregate_id TEXT NOT NULL,
            aggregate_type TEXT NOT NULL,
            sequence BIGINT NOT NULL,
            event_type TEXT NOT NULL,
            correlation_id TEXT NOT NULL DEFAULT '',
            payload JSONB NOT NULL,
            occurred_at TIMESTAMPTZ NOT NULL,
            UNIQUE (aggregate_id, sequence)
        )`,
		`CREATE TABLE IF NOT EXISTS redemptions (
            payment_id TEXT PRIMARY KEY,
            loyalty_bank_id TEXT NOT NULL,
            authorized_points BIGINT NOT NULL,
            captured_points BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS point_batches (
            loyalty_bank_id TEXT NOT NULL,
            position INT NOT NULL,
            transaction_id TEXT NOT NULL,
            points BIGINT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY (loyalty_bank_id, position)
        )`,
		`CREATE TABLE IF NOT EXISTS directory_accounts (
            account_id TEXT PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT UNIQUE NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS directory_businesses (
            business_id TEXT PRIMARY KEY,
            name TEXT UNIQUE NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS directory_loyalty_banks (
            loyalty_bank_id TEXT PRIMARY KEY,
            account_id TEXT NOT NULL,
            business_id TEXT NOT NULL,
            UNIQUE (account_id, business_id)
        )`,
		`CREATE TABLE IF NOT EXISTS sagas (
            saga_type TEXT NOT NULL,
            id TEXT NOT NULL,
            phase TEXT NOT NULL,
            state JSONB NOT NULL,
            ended BOOLEAN NOT NULL DEFAULT FALSE,
            updated_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY (saga_type, id)
        )`,
		`CREATE TABLE IF NOT EXISTS interventions (
            seq BIGSERIAL PRIMARY KEY,
            id TEXT UNIQUE NOT NULL,
            source TEXT NOT NULL,
            subject TEXT NOT NULL,
            step TEXT NOT NULL,
            reason TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_point_batches_created ON point_batches(created_at, transaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sagas_active ON sagas(saga_type, id) WHERE NOT ended`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
