// Package repomanager wires the entity repositories to a database handle,
// selects the storage engine, and runs the embedded schema migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clione/sikre/internal/server/repositories/groups"
	"github.com/clione/sikre/internal/server/repositories/items"
	"github.com/clione/sikre/internal/server/repositories/services"
	"github.com/clione/sikre/internal/server/repositories/sharetokens"
	"github.com/clione/sikre/internal/server/repositories/users"
)

// Supported storage engines.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Close() error
	Users() users.Repository
	Groups() groups.Repository
	Items() items.Repository
	Services() services.Repository
	ShareTokens() sharetokens.Repository
}

// New selects the repository manager for the configured engine.
func New(ctx context.Context, engine, dsn string) (RepositoryManager, error) {
	switch engine {
	case EnginePostgres:
		return NewPostgres(ctx, dsn)
	case EngineSQLite:
		return NewSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown database engine %q", engine)
	}
}
