package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maltedev/whey-ranker/internal/models"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		source_url TEXT NOT NULL
	)`

// Postgres stores products in a shared server database.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Postgres, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &StoreError{Op: "parse config", Err: err}
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, &StoreError{Op: "create pool", Err: err}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &StoreError{Op: "ping", Err: err}
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, &StoreError{Op: "create schema", Err: err}
	}

	return &Postgres{
		pool:   pool,
		logger: logger.With("component", "store", "driver", "postgres"),
	}, nil
}

// Transaction executes fn within a database transaction.
func (p *Postgres) Transaction(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) Reset(ctx context.Context) error {
	err := p.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS products`); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, postgresSchema)
		return err
	})
	if err != nil {
		return &StoreError{Op: "reset", Err: err}
	}
	p.logger.Info("database has been reset")
	return nil
}

func (p *Postgres) Insert(ctx context.Context, raw models.RawProduct) (bool, error) {
	name, price, err := validate(raw)
	if err != nil {
		p.logger.Warn("skipping invalid product", "name", raw.Name, "price", raw.Price, "error", err)
		return false, nil
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO products (name, price, source_url) VALUES ($1, $2, $3)`,
		name, price, raw.SourceURL)
	if err != nil {
		return false, &StoreError{Op: "insert", Err: err}
	}
	return true, nil
}

func (p *Postgres) All(ctx context.Context) ([]models.ProductRecord, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, price, source_url FROM products ORDER BY id`)
	if err != nil {
		return nil, &StoreError{Op: "scan", Err: err}
	}
	defer rows.Close()

	var records []models.ProductRecord
	for rows.Next() {
		var r models.ProductRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Price, &r.SourceURL); err != nil {
			return nil, &StoreError{Op: "scan", Err: err}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "scan", Err: err}
	}
	return records, nil
}

func (p *Postgres) UpdatePrice(ctx context.Context, id int64, price string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE products SET price = $1 WHERE id = $2`, price, id)
	if err != nil {
		return &StoreError{Op: "update price", Err: err}
	}
	if tag.RowsAffected() == 0 {
		p.logger.Warn("price update matched no row", "id", id)
	}
	return nil
}

func (p *Postgres) ReplaceAll(ctx context.Context, records []models.ProductRecord) error {
	err := p.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(`INSERT INTO products (name, price, source_url) VALUES ($1, $2, $3)`,
				r.Name, r.Price, r.SourceURL)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return &StoreError{Op: "replace", Err: err}
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
