package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/bestres/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	summary     TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL
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
	resolution REAL NOT NULL,
	PRIMARY KEY (run_id, uniprot_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_pdb_entries_uniprot ON pdb_entries(run_id, uniprot_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun stores the run summary and both tables in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run, flat []model.FlatRow, best []model.ReducedRow) error {
	summary, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, status, summary, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Status), string(summary),
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	flatStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pdb_entries (run_id, seq, pdb_id, resolution, uniprot_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare pdb_entries insert")
	}
	defer flatStmt.Close() //nolint:errcheck
	for i, r := range flat {
		if _, err := flatStmt.ExecContext(ctx, run.ID, i, r.PDBID, r.Resolution, r.UniProtID); err != nil {
			return eris.Wrap(err, "sqlite: insert pdb entry")
		}
	}

	bestStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO best_entries (run_id, uniprot_id, pdb_id, resolution) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare best_entries insert")
	}
	defer bestStmt.Close() //nolint:errcheck
	for _, r := range best {
		if _, err := bestStmt.ExecContext(ctx, run.ID, r.UniProtID, r.PDBID, r.Resolution); err != nil {
			return eris.Wrap(err, "sqlite: insert best entry")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit run")
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT summary FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	return scanSQLiteRun(row, "latest")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT summary FROM runs WHERE id = ?`, runID)
	return scanSQLiteRun(row, runID)
}

func scanSQLiteRun(row *sql.Row, label string) (*model.Run, error) {
	var summary string
	if err := row.Scan(&summary); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", label)
		}
		return nil, eris.Wrapf(err, "sqlite: get run %s", label)
	}
	var r model.Run
	if err := json.Unmarshal([]byte(summary), &r); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal run")
	}
	return &r, nil
}

func (s *SQLiteStore) ListBest(ctx context.Context, runID string, limit, offset int) ([]model.ReducedRow, error) {
	limit, offset = clampLimit(limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT uniprot_id, pdb_id, resolution FROM best_entries WHERE run_id = ? ORDER BY uniprot_id LIMIT ? OFFSET ?`,
		runID, limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list best")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ReducedRow
	for rows.Next() {
		var r model.ReducedRow
		if err := rows.Scan(&r.UniProtID, &r.PDBID, &r.Resolution); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan best")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list best iterate")
}

func (s *SQLiteStore) GetBest(ctx context.Context, runID, uniprotID string) (*model.ReducedRow, error) {
	var r model.ReducedRow
	err := s.db.QueryRowContext(ctx,
		`SELECT uniprot_id, pdb_id, resolution FROM best_entries WHERE run_id = ? AND uniprot_id = ?`,
		runID, uniprotID,
	).Scan(&r.UniProtID, &r.PDBID, &r.Resolution)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: best entry %s", uniprotID)
		}
		return nil, eris.Wrapf(err, "sqlite: get best %s", uniprotID)
	}
	return &r, nil
}

// FlatRows returns the all-entries table of a run in its original order.
func (s *SQLiteStore) FlatRows(ctx context.Context, runID string) ([]model.FlatRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pdb_id, resolution, uniprot_id FROM pdb_entries WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pdb entries")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.FlatRow
	for rows.Next() {
		var r model.FlatRow
		if err := rows.Scan(&r.PDBID, &r.Resolution, &r.UniProtID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pdb entry")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list pdb entries iterate")
}
