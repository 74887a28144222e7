package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sawka/txwrap"

	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

func openDB(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, err
	}
	db.DB.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open panel db[%s]: %w", path, err)
	}
	return db, nil
}

// withTx runs fn in one transaction; the pool holds a single SQLite
// connection, so transactions are serialized.
func (s *Store) withTx(ctx context.Context, fn func(tx *txwrap.TxWrap) error) error {
	return txwrap.WithTx(ctx, s.db, fn)
}

func makeMigrate(db *sqlx.DB) (*migrate.Migrate, error) {
	fsVar, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("opening iofs: %w", err)
	}
	mdriver, err := sqlite3migrate.WithInstance(db.DB, &sqlite3migrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("making migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", fsVar, "sqlite3", mdriver)
	if err != nil {
		return nil, fmt.Errorf("making migration: %w", err)
	}
	return m, nil
}

// migrateUp applies pending migrations. The migrate instance is not closed
// because closing it would close the shared db handle.
func migrateUp(db *sqlx.DB) error {
	m, err := makeMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate panel db: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version; 0 when none ran.
func (s *Store) SchemaVersion() (uint, bool, error) {
	m, err := makeMigrate(s.db)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
