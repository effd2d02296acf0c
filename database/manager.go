package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/kbukum/backendkit/component"
	"github.com/kbukum/backendkit/logger"
)

// ErrClosed is returned by Client after the manager has been closed.
var ErrClosed = errors.New("database manager is closed")

var _ component.HealthChecker = (*Manager)(nil)

// Manager hands out one database per plugin. Sqlite plugins get their own
// database, in memory or as a file. Postgres plugins share one pool and
// get their own schema.
type Manager struct {
	cfg      Config
	log      *logger.Logger
	instance string

	mu      sync.Mutex
	shared  *DB
	owned   map[string]*DB
	clients map[string]*gorm.DB
	closed  bool
}

// NewManager validates cfg. Connections are opened on first use.
func NewManager(cfg Config, log *logger.Logger) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}
	return &Manager{
		cfg:      cfg,
		log:      log.WithComponent("database"),
		instance: uuid.NewString(),
		owned:    make(map[string]*DB),
		clients:  make(map[string]*gorm.DB),
	}, nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// Client returns the database of pluginID, connecting on first use.
func (m *Manager) Client(ctx context.Context, pluginID string) (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if db, ok := m.clients[pluginID]; ok {
		return db.WithContext(ctx), nil
	}

	var (
		db  *gorm.DB
		err error
	)
	switch m.cfg.Client {
	case ClientPostgres:
		db, err = m.connectSchema(ctx, pluginID)
	default:
		db, err = m.connectSQLite(ctx, pluginID)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database for plugin %s: %w", pluginID, err)
	}
	m.clients[pluginID] = db
	return db.WithContext(ctx), nil
}

func (m *Manager) connectSQLite(ctx context.Context, pluginID string) (*gorm.DB, error) {
	var dsn string
	if m.cfg.InMemory() {
		dsn = fmt.Sprintf("file:%s-%s?mode=memory&cache=shared", m.instance, identifier(pluginID))
	} else {
		if err := os.MkdirAll(m.cfg.Connection, 0o755); err != nil {
			return nil, err
		}
		path := filepath.Join(m.cfg.Connection, identifier(pluginID)+".sqlite")
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := Open(ctx, pluginID, sqlite.Open(dsn), m.cfg, m.log)
	if err != nil {
		return nil, err
	}
	m.owned[pluginID] = db
	return db.GormDB, nil
}

// connectSchema creates the plugin schema and returns a gorm handle on the
// shared pool whose table names are qualified with that schema.
func (m *Manager) connectSchema(ctx context.Context, pluginID string) (*gorm.DB, error) {
	if m.shared == nil {
		db, err := Open(ctx, "postgres", postgres.Open(m.cfg.Connection), m.cfg, m.log)
		if err != nil {
			return nil, err
		}
		m.shared = db
	}

	name := m.SchemaName(pluginID)
	if err := m.shared.WithContext(ctx).Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, name)).Error; err != nil {
		return nil, fmt.Errorf("create schema %s: %w", name, err)
	}

	sqlDB, err := m.shared.GormDB.DB()
	if err != nil {
		return nil, err
	}
	log := m.log.WithPlugin(pluginID)
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         newGormLogger(log, m.cfg.SlowQueryThreshold, parseLogLevel(m.cfg.LogLevel)),
		NamingStrategy: schema.NamingStrategy{TablePrefix: name + "."},
	})
}

// SchemaName is the postgres schema that holds the tables of pluginID.
func (m *Manager) SchemaName(pluginID string) string {
	return m.cfg.SchemaPrefix + identifier(pluginID)
}

// Plugins returns the IDs of plugins that have connected, sorted.
func (m *Manager) Plugins() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Health implements component.HealthChecker over every open pool.
func (m *Manager) Health(ctx context.Context) component.Health {
	m.mu.Lock()
	pools := make([]*DB, 0, len(m.owned)+1)
	if m.shared != nil {
		pools = append(pools, m.shared)
	}
	for _, db := range m.owned {
		pools = append(pools, db)
	}
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return component.Health{Name: "database", Status: component.StatusUnhealthy, Message: ErrClosed.Error()}
	}
	for _, db := range pools {
		if h := db.Health(ctx); h.Status != component.StatusHealthy {
			return component.Health{Name: "database", Status: h.Status, Message: h.Message}
		}
	}
	return component.Health{Name: "database", Status: component.StatusHealthy}
}

// Close closes every pool. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	for id, db := range m.owned {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	if m.shared != nil {
		if err := m.shared.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.owned = nil
	m.clients = nil
	m.shared = nil
	return errors.Join(errs...)
}

// identifier maps a plugin ID to a name usable as a file, schema or
// in-memory database name.
func identifier(pluginID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(pluginID) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
