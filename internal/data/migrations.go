package data

import (
	"context"
	"database/sql"

	"github.com/target/balancedesk/internal/migrate"
)

// RunMigrations creates or upgrades the ledger schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
