package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/server/migrations"
	"github.com/clione/sikre/internal/server/repositories/groups"
	"github.com/clione/sikre/internal/server/repositories/items"
	"github.com/clione/sikre/internal/server/repositories/services"
	"github.com/clione/sikre/internal/server/repositories/sharetokens"
	"github.com/clione/sikre/internal/server/repositories/users"
)

const pingTimeout = 5 * time.Second

// SQLRepositoryManager serves both engines; only the driver, goose dialect,
// and migration set differ.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect string

	users       users.Repository
	groups      groups.Repository
	items       items.Repository
	services    services.Repository
	shareTokens sharetokens.Repository
}

func (m *SQLRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}

func (m *SQLRepositoryManager) Users() users.Repository             { return m.users }
func (m *SQLRepositoryManager) Groups() groups.Repository           { return m.groups }
func (m *SQLRepositoryManager) Items() items.Repository             { return m.items }
func (m *SQLRepositoryManager) Services() services.Repository       { return m.services }
func (m *SQLRepositoryManager) ShareTokens() sharetokens.Repository { return m.shareTokens }

func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	dialect := "postgres"
	dir := "postgres"
	if m.dialect == EngineSQLite {
		dialect = "sqlite3"
		dir = "sqlite"
	}

	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	return goose.UpContext(ctx, m.db, dir)
}

// NewPostgres opens a PostgreSQL-backed manager via the pgx stdlib driver,
// verifies connectivity, and applies migrations. An unreachable store is
// reported as common.ErrorStoreUnavailable.
func NewPostgres(ctx context.Context, dsn string) (RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	return newManager(ctx, db, EnginePostgres)
}

// NewSQLite opens a SQLite-backed manager via the modernc driver. Foreign
// keys are enforced through a connection pragma, and the pool is limited to
// one connection so writes serialize instead of failing with SQLITE_BUSY.
func NewSQLite(ctx context.Context, dsn string) (RepositoryManager, error) {
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	return newManager(ctx, db, EngineSQLite)
}

func newManager(ctx context.Context, db *sql.DB, dialect string) (RepositoryManager, error) {

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	m := &SQLRepositoryManager{
		db:          db,
		dialect:     dialect,
		users:       users.NewSQLRepository(db),
		groups:      groups.NewSQLRepository(db),
		items:       items.NewSQLRepository(db),
		services:    services.NewSQLRepository(db),
		shareTokens: sharetokens.NewSQLRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
