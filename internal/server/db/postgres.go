// Package db wires the backend's PostgreSQL repositories and runs schema
// migrations on startup.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/server/migrations"
	"github.com/brightfield/sitesurvey/internal/server/repositories/assets"
	"github.com/brightfield/sitesurvey/internal/server/repositories/devices"
	"github.com/brightfield/sitesurvey/internal/server/repositories/records"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
	db      *sql.DB
	devices devices.Repository
	records records.Repository
	assets  assets.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Devices() devices.Repository {
	return m.devices
}

func (m *PostgresRepositoryManager) Records() records.Repository {
	return m.records
}

func (m *PostgresRepositoryManager) Assets() assets.Repository {
	return m.assets
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:      db,
		devices: devices.NewPostgresRepository(db),
		records: records.NewPostgresRepository(db),
		assets:  assets.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
