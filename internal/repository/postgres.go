// Package repository contains the Postgres-backed durable cart store.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/gameshop/gateway/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRepository stores one cart row per account. The row payload is
// the JSON-serialized ordered line sequence; writes are last-writer-wins.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the repository and initializes the schema
// through embedded migrations.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close closes the connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetCart loads the persisted cart for the account. A missing row or a
// payload that does not parse as a line sequence yields the empty cart;
// malformed state is recovered silently, never surfaced as an error.
func (r *PostgresRepository) GetCart(ctx context.Context, accountID string) (model.Cart, error) {
	var payload []byte

	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT payload FROM carts WHERE account_id = $1`,
			accountID,
		).Scan(&payload)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Cart{}, nil
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	return decodeCart(payload), nil
}

// decodeCart parses a persisted payload. Anything that does not parse as
// a line sequence is treated like absent state and recovered as the
// empty cart.
func decodeCart(payload []byte) model.Cart {
	var c model.Cart
	if err := json.Unmarshal(payload, &c); err != nil || c == nil {
		return model.Cart{}
	}
	return c
}

// SaveCart persists the full cart for the account, replacing whatever was
// stored before.
func (r *PostgresRepository) SaveCart(ctx context.Context, accountID string, c model.Cart) error {
	if c == nil {
		c = model.Cart{}
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	err = r.withRetry(ctx, func() error {
		_, execErr := r.pool.Exec(ctx,
			`INSERT INTO carts (account_id, payload, updated_at) VALUES ($1, $2, now())
			 ON CONFLICT (account_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
			accountID, payload,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	return nil
}
