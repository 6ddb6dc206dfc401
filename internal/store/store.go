// Package store persists build runs and their output tables.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bestres/internal/model"
)

// ErrNotFound is returned when a run or row does not exist.
var ErrNotFound = eris.New("store: not found")

// DefaultListLimit caps ListBest when no limit is given.
const DefaultListLimit = 100

// Store defines the persistence interface for dataset builds.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, run *model.Run, flat []model.FlatRow, best []model.ReducedRow) error
	LatestRun(ctx context.Context) (*model.Run, error)
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// All-entries table, in build order
	FlatRows(ctx context.Context, runID string) ([]model.FlatRow, error)

	// Best-resolution table
	ListBest(ctx context.Context, runID string, limit, offset int) ([]model.ReducedRow, error)
	GetBest(ctx context.Context, runID, uniprotID string) (*model.ReducedRow, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by driver. It does not migrate.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = "bestres.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

func clampLimit(limit, offset int) (int, int) {
	if limit <= 0 || limit > 10*DefaultListLimit {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
