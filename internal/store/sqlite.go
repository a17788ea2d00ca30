package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/civicdata/policy-atlas/internal/model"
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	year       INTEGER NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	path       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS benefit_stats (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	benefit    TEXT NOT NULL,
	no_id_pct  REAL NOT NULL,
	id_req_pct REAL NOT NULL,
	odds_ratio REAL NOT NULL,
	p_value    REAL NOT NULL,
	PRIMARY KEY (run_id, benefit)
);

CREATE TABLE IF NOT EXISTS trend_tests (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	benefit TEXT NOT NULL,
	slope   REAL NOT NULL,
	p_trend REAL NOT NULL,
	PRIMARY KEY (run_id, benefit)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_year ON runs(year);
CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, year int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, year, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, year, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Year:      year,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	resultJSON, err := json.Marshal(&model.RunResult{Error: errMsg})
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal failure")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, year, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, year, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Year != 0 {
		query += ` AND year = ?`
		args = append(args, filter.Year)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) AddArtifact(ctx context.Context, artifact model.Artifact) (*model.Artifact, error) {
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, run_id, name, path, kind, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		artifact.ID, artifact.RunID, artifact.Name, artifact.Path, artifact.Kind, artifact.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert artifact for run %s", artifact.RunID)
	}
	return &artifact, nil
}

func (s *SQLiteStore) ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, name, path, kind, created_at FROM artifacts WHERE run_id = ? ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list artifacts")
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		var a model.Artifact
		if err := rows.Scan(&a.ID, &a.RunID, &a.Name, &a.Path, &a.Kind, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan artifact")
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, eris.Wrap(rows.Err(), "sqlite: list artifacts iterate")
}

func (s *SQLiteStore) SaveBenefitStats(ctx context.Context, runID string, stats []model.BenefitStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin benefit stats")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, st := range stats {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO benefit_stats (run_id, benefit, no_id_pct, id_req_pct, odds_ratio, p_value)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, st.Benefit, st.NoIDPct, st.IDReqPct, st.OddsRatio, st.PValue,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert benefit stat %s", st.Benefit)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit benefit stats")
}

func (s *SQLiteStore) ListBenefitStats(ctx context.Context, runID string) ([]model.BenefitStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, benefit, no_id_pct, id_req_pct, odds_ratio, p_value
		 FROM benefit_stats WHERE run_id = ? ORDER BY benefit`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list benefit stats")
	}
	defer rows.Close()

	var stats []model.BenefitStat
	for rows.Next() {
		var st model.BenefitStat
		if err := rows.Scan(&st.RunID, &st.Benefit, &st.NoIDPct, &st.IDReqPct, &st.OddsRatio, &st.PValue); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan benefit stat")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: list benefit stats iterate")
}

func (s *SQLiteStore) SaveTrendTests(ctx context.Context, runID string, tests []model.TrendTest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin trend tests")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, tt := range tests {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO trend_tests (run_id, benefit, slope, p_trend) VALUES (?, ?, ?, ?)`,
			runID, tt.Benefit, tt.Slope, tt.PTrend,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert trend test %s", tt.Benefit)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit trend tests")
}

func (s *SQLiteStore) ListTrendTests(ctx context.Context, runID string) ([]model.TrendTest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, benefit, slope, p_trend FROM trend_tests WHERE run_id = ? ORDER BY benefit`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list trend tests")
	}
	defer rows.Close()

	var tests []model.TrendTest
	for rows.Next() {
		var tt model.TrendTest
		if err := rows.Scan(&tt.RunID, &tt.Benefit, &tt.Slope, &tt.PTrend); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan trend test")
		}
		tests = append(tests, tt)
	}
	return tests, eris.Wrap(rows.Err(), "sqlite: list trend tests iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &r.Year, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if resultJSON.Valid {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}
