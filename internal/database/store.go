package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/parser"
)

// ErrUnknownDriver is returned by Open for drivers other than sqlite/postgres.
var ErrUnknownDriver = errors.New("unknown database driver")

// StoreError wraps schema or connection failures. Callers surface it verbatim.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store persists product rows of the fixed products schema.
type Store interface {
	// Reset drops and recreates the products table.
	Reset(ctx context.Context) error
	// Insert validates and appends one product. Invalid products are skipped
	// and reported as not inserted without an error.
	Insert(ctx context.Context, p models.RawProduct) (bool, error)
	// All returns every row in id order.
	All(ctx context.Context) ([]models.ProductRecord, error)
	UpdatePrice(ctx context.Context, id int64, price string) error
	// ReplaceAll swaps the table contents for the given rows atomically.
	ReplaceAll(ctx context.Context, records []models.ProductRecord) error
	Close() error
}

// Config selects and configures a store backend.
type Config struct {
	Driver string
	Path   string

	Host     string
	Port     int
	User     string
	Password string
	Database string
	MaxConns int32
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(ctx, cfg.Path, logger)
	case "postgres":
		return NewPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}

// validate normalizes a raw product for storage.
func validate(p models.RawProduct) (name, price string, err error) {
	if p.Name == "" {
		return "", "", errors.New("empty name")
	}
	d, err := parser.NormalizePrice(p.Price)
	if err != nil {
		return "", "", err
	}
	return p.Name, parser.FormatPrice(d), nil
}
