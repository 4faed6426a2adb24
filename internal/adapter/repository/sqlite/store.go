// Package sqlite provides a SQLite-backed listing repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradepost/tradepost-backend/internal/adapter/repository/sqlite/migrations"
	"github.com/tradepost/tradepost-backend/internal/domain"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists listings in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite listing store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get retrieves the listing for a key.
func (s *Store) Get(ctx context.Context, key domain.AssetKey) (domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return domain.Listing{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT price, seller FROM listings WHERE collection = ? AND item = ?`,
		key.Collection.String(),
		int64(key.Item),
	)

	var priceStr string
	var sellerStr string
	if err := row.Scan(&priceStr, &sellerStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotListed
		}
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("parse listing price: %w", err)
	}
	seller, err := uuid.Parse(sellerStr)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("parse listing seller: %w", err)
	}
	return domain.Listing{Price: price, Seller: seller}, nil
}

// Create inserts a new listing row.
func (s *Store) Create(ctx context.Context, key domain.AssetKey, listing domain.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC().UnixMilli()
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO listings (collection, item, price, seller, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key.Collection.String(),
		int64(key.Item),
		listing.Price.String(),
		listing.Seller.String(),
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyListed
		}
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

// SetPrice replaces the stored price only.
func (s *Store) SetPrice(ctx context.Context, key domain.AssetKey, price decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE listings SET price = ?, updated_at = ? WHERE collection = ? AND item = ?`,
		price.String(),
		time.Now().UTC().UnixMilli(),
		key.Collection.String(),
		int64(key.Item),
	)
	if err != nil {
		return fmt.Errorf("update listing price: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update listing price: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotListed
	}
	return nil
}

// Delete removes the listing row.
func (s *Store) Delete(ctx context.Context, key domain.AssetKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM listings WHERE collection = ? AND item = ?`,
		key.Collection.String(),
		int64(key.Item),
	)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotListed
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ domain.ListingRepository = (*Store)(nil)
