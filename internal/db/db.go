// Package db opens the delivery journal's Postgres pool and keeps its
// schema current.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/lot-vision/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const pingTimeout = 5 * time.Second

// DB wraps the sqlx pool used by the delivery journal.
type DB struct {
	*sqlx.DB
}

// NewDatabase connects to the journal database, verifies the connection and
// applies pending migrations. The returned cleanup closes the pool.
func NewDatabase(cfg *config.DBConfig, logger *slog.Logger) (*DB, func(), error) {
	pool, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("connect to journal database: %w", err)
	}
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, func() {}, fmt.Errorf("ping journal database: %w", err)
	}

	db := &DB{DB: pool}
	if err := db.migrateUp(); err != nil {
		_ = pool.Close()
		return nil, func() {}, err
	}
	logger.Info("delivery journal schema is up to date")

	cleanup := func() {
		if err := pool.Close(); err != nil {
			logger.Error("failed to close journal database", "error", err)
		}
	}
	return db, cleanup, nil
}

// migrateUp applies the embedded migrations. A dirty schema version aborts
// startup; it needs a manual 'migrate force' before the service can run.
func (db *DB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}

	_, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return errors.New("journal schema is dirty, run 'migrate force <version>' before starting")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply journal migrations: %w", err)
	}
	return nil
}
