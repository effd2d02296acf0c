package migration

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/stub"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/backendkit/logger"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestRunner_UpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	calls := 0
	newRunner := func() *Runner {
		return NewRunner(db, logger.Nop()).Add(
			Migration{
				ID: "001_items",
				Up: func(tx *gorm.DB) error {
					calls++
					return tx.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)").Error
				},
				Down: func(tx *gorm.DB) error { return tx.Exec("DROP TABLE items").Error },
			},
			Migration{
				ID: "002_items_name_index",
				Up: func(tx *gorm.DB) error {
					calls++
					return CreateIndexIfNotExists(tx, "items", "idx_items_name", "name")
				},
				Down: func(tx *gorm.DB) error { return DropIndexIfExists(tx, "idx_items_name") },
			},
		)
	}

	if err := newRunner().Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := newRunner().Up(ctx); err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if calls != 2 {
		t.Errorf("Up funcs ran %d times, want 2", calls)
	}

	applied, err := newRunner().Applied(ctx)
	if err != nil {
		t.Fatalf("Applied: %v", err)
	}
	if len(applied) != 2 || applied[0] != "001_items" {
		t.Errorf("Applied = %v", applied)
	}

	if err := newRunner().Down(ctx); err != nil {
		t.Fatalf("Down: %v", err)
	}
	applied, _ = newRunner().Applied(ctx)
	if len(applied) != 1 {
		t.Errorf("Applied after Down = %v, want one entry", applied)
	}
}

func TestRunner_FailedMigrationIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	boom := errors.New("boom")

	r := NewRunner(db, logger.Nop()).Add(Migration{
		ID: "001_broken",
		Up: func(tx *gorm.DB) error {
			if err := tx.Exec("CREATE TABLE half (id INTEGER)").Error; err != nil {
				return err
			}
			return boom
		},
	})
	if err := r.Up(ctx); !errors.Is(err, boom) {
		t.Fatalf("Up error = %v, want boom", err)
	}
	applied, err := r.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("Applied = %v, want none", applied)
	}
	if db.Migrator().HasTable("half") {
		t.Error("table from failed migration should be rolled back")
	}
}

func TestRunner_DownWithoutDownFunc(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	r := NewRunner(db, logger.Nop()).Add(Migration{
		ID: "001_noop",
		Up: func(*gorm.DB) error { return nil },
	})
	if err := r.Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := r.Down(ctx); err == nil {
		t.Fatal("expected error reverting a migration without Down")
	}
}

func TestAddColumnIfNotExists(t *testing.T) {
	db := openMemory(t)
	if err := db.Exec("CREATE TABLE items (id INTEGER)").Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := AddColumnIfNotExists(db, "items", "name", "TEXT"); err != nil {
			t.Fatalf("AddColumnIfNotExists #%d: %v", i, err)
		}
	}
	if !db.Migrator().HasColumn("items", "name") {
		t.Error("expected column name")
	}
}

func TestMigrateUp_VersionedFiles(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"migrations/1_items.up.sql":    {Data: []byte("CREATE TABLE items (id INTEGER);")},
		"migrations/1_items.down.sql":  {Data: []byte("DROP TABLE items;")},
		"migrations/2_labels.up.sql":   {Data: []byte("CREATE TABLE labels (id INTEGER);")},
		"migrations/2_labels.down.sql": {Data: []byte("DROP TABLE labels;")},
	}

	driver, err := stub.WithInstance(nil, &stub.Config{})
	if err != nil {
		t.Fatalf("stub driver: %v", err)
	}
	driverFunc := func(*sql.DB) (database.Driver, error) { return driver, nil }

	version, _, err := MigrateVersion(db, fsys, "migrations", driverFunc)
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if version != 0 {
		t.Errorf("initial version = %d, want 0", version)
	}

	if err := MigrateUp(db, fsys, "migrations", driverFunc); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if err := MigrateUp(db, fsys, "migrations", driverFunc); err != nil {
		t.Fatalf("MigrateUp with nothing to apply: %v", err)
	}
	version, dirty, err := MigrateVersion(db, fsys, "migrations", driverFunc)
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("version = %d dirty = %v, want 2 false", version, dirty)
	}

	if err := MigrateSteps(db, fsys, "migrations", -1, driverFunc); err != nil {
		t.Fatalf("MigrateSteps: %v", err)
	}
	version, _, _ = MigrateVersion(db, fsys, "migrations", driverFunc)
	if version != 1 {
		t.Errorf("version after step down = %d, want 1", version)
	}
}

func TestMigrateUp_MissingDirectory(t *testing.T) {
	db := openMemory(t)
	driverFunc := func(*sql.DB) (database.Driver, error) { return stub.WithInstance(nil, &stub.Config{}) }
	if err := MigrateUp(db, fstest.MapFS{}, "missing", driverFunc); err == nil {
		t.Fatal("expected error for missing migrations directory")
	}
}
