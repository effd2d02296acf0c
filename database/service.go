package database

import (
	"context"
	"errors"
	"io/fs"

	"gorm.io/gorm"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/database/migration"
)

// ErrVersionedMigrationsUnsupported is returned by MigrateFS for sqlite.
var ErrVersionedMigrationsUnsupported = errors.New("versioned sql migrations require the pg client")

var _ core.DatabaseService = (*PluginDatabase)(nil)

// PluginDatabase is the core.DatabaseService of one plugin.
type PluginDatabase struct {
	manager  *Manager
	pluginID string
}

// NewPluginDatabase binds manager to pluginID.
func NewPluginDatabase(manager *Manager, pluginID string) *PluginDatabase {
	return &PluginDatabase{manager: manager, pluginID: pluginID}
}

// Client returns the plugin's database, connecting on first call.
func (d *PluginDatabase) Client(ctx context.Context) (*gorm.DB, error) {
	return d.manager.Client(ctx, d.pluginID)
}

// Transaction runs fn inside a transaction on the plugin's database.
func (d *PluginDatabase) Transaction(ctx context.Context, fn TransactionFunc) error {
	db, err := d.Client(ctx)
	if err != nil {
		return err
	}
	return WithTransaction(ctx, db, d.manager.log.WithPlugin(d.pluginID), fn)
}

// Migrate applies programmatic migrations to the plugin's database.
// Migrations already recorded are skipped.
func (d *PluginDatabase) Migrate(ctx context.Context, migrations ...migration.Migration) error {
	db, err := d.Client(ctx)
	if err != nil {
		return err
	}
	return migration.NewRunner(db, d.manager.log.WithPlugin(d.pluginID)).Add(migrations...).Up(ctx)
}

// MigrateFS applies versioned SQL files from dir in fsys. The version
// table lives in the plugin schema, so statements should qualify their
// tables with SchemaName.
func (d *PluginDatabase) MigrateFS(ctx context.Context, fsys fs.FS, dir string) error {
	if d.manager.Config().Client != ClientPostgres {
		return ErrVersionedMigrationsUnsupported
	}
	db, err := d.Client(ctx)
	if err != nil {
		return err
	}
	return migration.MigrateUp(db, fsys, dir, migration.PostgresSchema(d.SchemaName()))
}

// SchemaName is the postgres schema of the plugin.
func (d *PluginDatabase) SchemaName() string {
	return d.manager.SchemaName(d.pluginID)
}
