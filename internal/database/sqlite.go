package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/maltedev/whey-ranker/internal/models"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		source_url TEXT NOT NULL
	)`

// SQLite is the default single-file store.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	if path == "" {
		path = "products.db"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StoreError{Op: "ping", Err: err}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, &StoreError{Op: "create schema", Err: err}
	}

	return &SQLite{
		db:     db,
		logger: logger.With("component", "store", "driver", "sqlite"),
	}, nil
}

// Transaction runs fn inside a transaction and rolls back on any error.
func (s *SQLite) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLite) Reset(ctx context.Context) error {
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS products`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, sqliteSchema)
		return err
	})
	if err != nil {
		return &StoreError{Op: "reset", Err: err}
	}
	s.logger.Info("database has been reset")
	return nil
}

func (s *SQLite) Insert(ctx context.Context, p models.RawProduct) (bool, error) {
	name, price, err := validate(p)
	if err != nil {
		s.logger.Warn("skipping invalid product", "name", p.Name, "price", p.Price, "error", err)
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO products (name, price, source_url) VALUES (?, ?, ?)`,
		name, price, p.SourceURL)
	if err != nil {
		return false, &StoreError{Op: "insert", Err: err}
	}
	return true, nil
}

func (s *SQLite) All(ctx context.Context) ([]models.ProductRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, price, source_url FROM products ORDER BY id`)
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

func (s *SQLite) UpdatePrice(ctx context.Context, id int64, price string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE products SET price = ? WHERE id = ?`, price, id); err != nil {
		return &StoreError{Op: "update price", Err: err}
	}
	return nil
}

func (s *SQLite) ReplaceAll(ctx context.Context, records []models.ProductRecord) error {
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO products (name, price, source_url) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.Name, r.Price, r.SourceURL); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &StoreError{Op: "replace", Err: err}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
