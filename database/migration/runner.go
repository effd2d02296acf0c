package migration

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/backendkit/logger"
)

// TableName is the table that records applied programmatic migrations.
const TableName = "backend_migrations"

// Migration is a single programmatic schema change.
type Migration struct {
	ID          string
	Description string
	Up          func(*gorm.DB) error
	Down        func(*gorm.DB) error
}

type appliedMigration struct {
	ID        string    `gorm:"primaryKey;size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// Runner applies migrations in registration order, each in its own
// transaction, skipping those already recorded.
type Runner struct {
	db         *gorm.DB
	log        *logger.Logger
	migrations []Migration
}

// NewRunner creates a runner bound to db.
func NewRunner(db *gorm.DB, log *logger.Logger) *Runner {
	return &Runner{db: db, log: log.WithComponent("migration")}
}

// Add registers migrations to be applied.
func (r *Runner) Add(migrations ...Migration) *Runner {
	r.migrations = append(r.migrations, migrations...)
	return r
}

// Up applies all pending migrations.
func (r *Runner) Up(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.Table(TableName).AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range r.migrations {
		applied, err := r.isApplied(db, m.ID)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.ID, err)
		}
		if applied {
			r.log.Debug("Migration already applied", map[string]interface{}{"id": m.ID})
			continue
		}

		r.log.Info("Applying migration", map[string]interface{}{
			"id":          m.ID,
			"description": m.Description,
		})
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Table(TableName).Create(&appliedMigration{ID: m.ID}).Error
		}); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.ID, err)
		}
	}
	return nil
}

// Down reverts the most recently applied migration that has a Down func.
func (r *Runner) Down(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	for i := len(r.migrations) - 1; i >= 0; i-- {
		m := r.migrations[i]
		applied, err := r.isApplied(db, m.ID)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.ID, err)
		}
		if !applied {
			continue
		}
		if m.Down == nil {
			return fmt.Errorf("migration %s cannot be reverted", m.ID)
		}
		r.log.Info("Reverting migration", map[string]interface{}{"id": m.ID})
		return db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Table(TableName).Where("id = ?", m.ID).Delete(&appliedMigration{}).Error
		})
	}
	return nil
}

// Applied returns the IDs of applied migrations in the order they ran.
func (r *Runner) Applied(ctx context.Context) ([]string, error) {
	var rows []appliedMigration
	if err := r.db.WithContext(ctx).Table(TableName).Order("applied_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

func (r *Runner) isApplied(db *gorm.DB, id string) (bool, error) {
	var count int64
	err := db.Table(TableName).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreateIndexIfNotExists creates an index unless it exists. Works on sqlite
// and postgres.
func CreateIndexIfNotExists(tx *gorm.DB, table, index, columns string) error {
	return tx.Exec(fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", index, table, columns)).Error
}

// DropIndexIfExists drops an index if it exists.
func DropIndexIfExists(tx *gorm.DB, index string) error {
	return tx.Exec(fmt.Sprintf("DROP INDEX IF EXISTS %s", index)).Error
}

// AddColumnIfNotExists adds a column unless the table already has it.
func AddColumnIfNotExists(tx *gorm.DB, table, column, dataType string) error {
	if tx.Migrator().HasColumn(table, column) {
		return nil
	}
	return tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, dataType)).Error
}
