// Package geocache persists reverse geocoding results in a SQLite file keyed
// by exact coordinates, and decorates a domain.Geocoder with that cache.
package geocache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/jp-air-features/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	selectQuery = `SELECT prefecture, city, street, pincode FROM geocache WHERE lat = ? AND lon = ?`
	upsertQuery = `INSERT OR REPLACE INTO geocache (lat, lon, prefecture, city, street, pincode) VALUES (?, ?, ?, ?, ?, ?)`
	countQuery  = `SELECT COUNT(*) FROM geocache`
)

// Store is the persistent geocode cache.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache file at path and migrates it to
// the current schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)

	if err := migrateUp(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("geocache open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("geocache ping: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already-migrated database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// migrateUp applies the embedded migrations on a dedicated handle; the
// migrate driver closes it when done.
func migrateUp(dsn string) error {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("geocache migrate open: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("geocache migrate driver: %w", err)
	}
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("geocache migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("geocache migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("geocache migrate up: %w", err)
	}
	return nil
}

// Get looks up an exact coordinate. ok is false on a miss; a hit may carry an
// all-nil address for a coordinate the provider could not resolve.
func (s *Store) Get(ctx context.Context, lat, lon float64) (domain.Address, bool, error) {
	var prefecture, city, street, pincode sql.NullString
	err := s.db.QueryRowContext(ctx, selectQuery, lat, lon).Scan(&prefecture, &city, &street, &pincode)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, false, nil
	}
	if err != nil {
		return domain.Address{}, false, fmt.Errorf("geocache get (%f, %f): %w", lat, lon, err)
	}
	return domain.Address{
		Prefecture: fromNull(prefecture),
		City:       fromNull(city),
		Street:     fromNull(street),
		Postcode:   fromNull(pincode),
	}, true, nil
}

// Put stores addr under the exact coordinate, replacing any previous entry.
func (s *Store) Put(ctx context.Context, lat, lon float64, addr domain.Address) error {
	_, err := s.db.ExecContext(ctx, upsertQuery, lat, lon,
		toNull(addr.Prefecture), toNull(addr.City), toNull(addr.Street), toNull(addr.Postcode))
	if err != nil {
		return fmt.Errorf("geocache put (%f, %f): %w", lat, lon, err)
	}
	return nil
}

// Len returns the number of cached coordinates.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("geocache count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return domain.String(ns.String)
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
