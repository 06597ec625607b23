package db

import (
	"context"
	"database/sql"

	"github.com/brightfield/sitesurvey/internal/server/repositories/assets"
	"github.com/brightfield/sitesurvey/internal/server/repositories/devices"
	"github.com/brightfield/sitesurvey/internal/server/repositories/records"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Devices() devices.Repository
	Records() records.Repository
	Assets() assets.Repository
	Close() error
}
