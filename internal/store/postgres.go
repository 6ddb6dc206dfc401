package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/bestres/internal/db"
	"github.com/sells-group/bestres/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var (
	flatColumns = []string{"run_id", "seq", "pdb_id", "resolution", "uniprot_id"}
	bestColumns = []string{"run_id", "uniprot_id", "pdb_id", "resolution"}
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	summary     JSONB NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS pdb_entries (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	pdb_id     TEXT NOT NULL,
	resolution TEXT NOT NULL,
	uniprot_id TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS best_entries (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	uniprot_id TEXT NOT NULL,
	pdb_id     TEXT NOT NULL,
	resolution DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, uniprot_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_pdb_entries_uniprot ON pdb_entries(run_id, uniprot_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveRun stores the run summary and COPYs both tables in one transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run, flat []model.FlatRow, best []model.ReducedRow) error {
	summary, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO runs (id, status, summary, started_at, finished_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, string(run.Status), summary, run.StartedAt, run.FinishedAt,
	); err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	flatRows := make([][]any, len(flat))
	for i, r := range flat {
		flatRows[i] = []any{run.ID, i, r.PDBID, r.Resolution, r.UniProtID}
	}
	if _, err := db.CopyFrom(ctx, tx, "pdb_entries", flatColumns, flatRows); err != nil {
		return eris.Wrap(err, "postgres: copy pdb entries")
	}

	bestRows := make([][]any, len(best))
	for i, r := range best {
		bestRows[i] = []any{run.ID, r.UniProtID, r.PDBID, r.Resolution}
	}
	if _, err := db.CopyFrom(ctx, tx, "best_entries", bestColumns, bestRows); err != nil {
		return eris.Wrap(err, "postgres: copy best entries")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit run")
}

func (s *PostgresStore) LatestRun(ctx context.Context) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT summary FROM runs ORDER BY started_at DESC LIMIT 1`)
	return scanPostgresRun(row, "latest")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT summary FROM runs WHERE id = $1`, runID)
	return scanPostgresRun(row, runID)
}

func scanPostgresRun(row pgx.Row, label string) (*model.Run, error) {
	var summary []byte
	if err := row.Scan(&summary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: run %s", label)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", label)
	}
	var r model.Run
	if err := json.Unmarshal(summary, &r); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal run")
	}
	return &r, nil
}

func (s *PostgresStore) FlatRows(ctx context.Context, runID string) ([]model.FlatRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT pdb_id, resolution, uniprot_id FROM pdb_entries WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pdb entries")
	}
	defer rows.Close()

	var out []model.FlatRow
	for rows.Next() {
		var r model.FlatRow
		if err := rows.Scan(&r.PDBID, &r.Resolution, &r.UniProtID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pdb entry")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list pdb entries iterate")
}

func (s *PostgresStore) ListBest(ctx context.Context, runID string, limit, offset int) ([]model.ReducedRow, error) {
	limit, offset = clampLimit(limit, offset)
	rows, err := s.pool.Query(ctx,
		`SELECT uniprot_id, pdb_id, resolution FROM best_entries WHERE run_id = $1 ORDER BY uniprot_id LIMIT $2 OFFSET $3`,
		runID, limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list best")
	}
	defer rows.Close()

	var out []model.ReducedRow
	for rows.Next() {
		var r model.ReducedRow
		if err := rows.Scan(&r.UniProtID, &r.PDBID, &r.Resolution); err != nil {
			return nil, eris.Wrap(err, "postgres: scan best")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list best iterate")
}

func (s *PostgresStore) GetBest(ctx context.Context, runID, uniprotID string) (*model.ReducedRow, error) {
	var r model.ReducedRow
	err := s.pool.QueryRow(ctx,
		`SELECT uniprot_id, pdb_id, resolution FROM best_entries WHERE run_id = $1 AND uniprot_id = $2`,
		runID, uniprotID,
	).Scan(&r.UniProtID, &r.PDBID, &r.Resolution)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: best entry %s", uniprotID)
		}
		return nil, eris.Wrapf(err, "postgres: get best %s", uniprotID)
	}
	return &r, nil
}
