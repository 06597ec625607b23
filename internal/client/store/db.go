package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brightfield/sitesurvey/internal/client/migrations"
	"github.com/brightfield/sitesurvey/internal/client/repositories/attachments"
	"github.com/brightfield/sitesurvey/internal/client/repositories/drafts"
	"github.com/brightfield/sitesurvey/internal/client/repositories/settings"
	"github.com/brightfield/sitesurvey/internal/client/repositories/syncqueue"
	"github.com/pressly/goose/v3"
)

// Repositories bundles the aggregate repositories bound to one database.
type Repositories struct {
	Drafts      drafts.Repository
	Attachments attachments.Repository
	Queue       syncqueue.Repository
	Settings    settings.Repository
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the local SQLite database at dsn,
// applies migrations, and returns the database handle with repositories.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, *Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	// Writes from the form layer and the sync drain interleave; a single
	// connection keeps SQLite from returning busy errors between them.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	repos := &Repositories{
		Drafts:      drafts.NewSQLiteRepository(db),
		Attachments: attachments.NewSQLiteRepository(db),
		Queue:       syncqueue.NewSQLiteRepository(db),
		Settings:    settings.NewSQLiteRepository(db),
	}

	// A crash mid-drain leaves entries at processing with no drain to finish
	// them; return them to pending so the queue surface sees them again.
	if _, err := repos.Queue.ResetProcessing(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, repos, nil
}
