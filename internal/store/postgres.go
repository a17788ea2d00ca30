package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/civicdata/policy-atlas/internal/db"
	"github.com/civicdata/policy-atlas/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO runs (id, year, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_run_status": `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"update_run_result": `UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_run":           `SELECT id, year, status, result, created_at, updated_at FROM runs WHERE id = $1`,
	"insert_artifact":   `INSERT INTO artifacts (id, run_id, name, path, kind, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"list_artifacts":    `SELECT id, run_id, name, path, kind, created_at FROM artifacts WHERE run_id = $1 ORDER BY created_at`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
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

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	year       INTEGER NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	path       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS benefit_stats (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	benefit    TEXT NOT NULL,
	no_id_pct  DOUBLE PRECISION NOT NULL,
	id_req_pct DOUBLE PRECISION NOT NULL,
	odds_ratio DOUBLE PRECISION NOT NULL,
	p_value    DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, benefit)
);

CREATE TABLE IF NOT EXISTS trend_tests (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	benefit TEXT NOT NULL,
	slope   DOUBLE PRECISION NOT NULL,
	p_trend DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, benefit)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_year ON runs(year);
CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, year int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, year, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, year, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Year:      year,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	resultJSON, err := json.Marshal(&model.RunResult{Error: errMsg})
	if err != nil {
		return eris.Wrap(err, "postgres: marshal failure")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var resultNull *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, year, status, result, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Year, &r.Status, &resultNull, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if resultNull != nil {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(*resultNull, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, year, status, result, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Year != 0 {
		query += fmt.Sprintf(` AND year = $%d`, argIdx)
		args = append(args, filter.Year)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var resultNull *[]byte

		if err := rows.Scan(&r.ID, &r.Year, &r.Status, &resultNull, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if resultNull != nil {
			r.Result = &model.RunResult{}
			if err := json.Unmarshal(*resultNull, r.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal result")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) AddArtifact(ctx context.Context, artifact model.Artifact) (*model.Artifact, error) {
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO artifacts (id, run_id, name, path, kind, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		artifact.ID, artifact.RunID, artifact.Name, artifact.Path, artifact.Kind, artifact.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert artifact for run %s", artifact.RunID)
	}
	return &artifact, nil
}

func (s *PostgresStore) ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, name, path, kind, created_at FROM artifacts WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list artifacts")
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		var a model.Artifact
		if err := rows.Scan(&a.ID, &a.RunID, &a.Name, &a.Path, &a.Kind, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan artifact")
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, eris.Wrap(rows.Err(), "postgres: list artifacts iterate")
}

// SaveBenefitStats upserts one row per benefit via the shared bulk
// upsert helper, so a rerun of the same analysis replaces its stats.
func (s *PostgresStore) SaveBenefitStats(ctx context.Context, runID string, stats []model.BenefitStat) error {
	rows := make([][]any, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []any{runID, string(st.Benefit), st.NoIDPct, st.IDReqPct, st.OddsRatio, st.PValue})
	}

	_, err := db.Upsert(ctx, s.pool, db.Batch{
		Table:   "benefit_stats",
		Columns: []string{"run_id", "benefit", "no_id_pct", "id_req_pct", "odds_ratio", "p_value"},
		Keys:    []string{"run_id", "benefit"},
		Rows:    rows,
	})
	return eris.Wrap(err, "postgres: save benefit stats")
}

func (s *PostgresStore) ListBenefitStats(ctx context.Context, runID string) ([]model.BenefitStat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, benefit, no_id_pct, id_req_pct, odds_ratio, p_value
		 FROM benefit_stats WHERE run_id = $1 ORDER BY benefit`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list benefit stats")
	}
	defer rows.Close()

	var stats []model.BenefitStat
	for rows.Next() {
		var st model.BenefitStat
		if err := rows.Scan(&st.RunID, &st.Benefit, &st.NoIDPct, &st.IDReqPct, &st.OddsRatio, &st.PValue); err != nil {
			return nil, eris.Wrap(err, "postgres: scan benefit stat")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: list benefit stats iterate")
}

// SaveTrendTests replaces the run's trend rows and reloads them with COPY.
func (s *PostgresStore) SaveTrendTests(ctx context.Context, runID string, tests []model.TrendTest) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM trend_tests WHERE run_id = $1`, runID); err != nil {
		return eris.Wrapf(err, "postgres: clear trend tests %s", runID)
	}

	rows := make([][]any, 0, len(tests))
	for _, tt := range tests {
		rows = append(rows, []any{runID, string(tt.Benefit), tt.Slope, tt.PTrend})
	}

	_, err := db.CopyFrom(ctx, s.pool, "trend_tests", []string{"run_id", "benefit", "slope", "p_trend"}, rows)
	return eris.Wrap(err, "postgres: save trend tests")
}

func (s *PostgresStore) ListTrendTests(ctx context.Context, runID string) ([]model.TrendTest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, benefit, slope, p_trend FROM trend_tests WHERE run_id = $1 ORDER BY benefit`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list trend tests")
	}
	defer rows.Close()

	var tests []model.TrendTest
	for rows.Next() {
		var tt model.TrendTest
		if err := rows.Scan(&tt.RunID, &tt.Benefit, &tt.Slope, &tt.PTrend); err != nil {
			return nil, eris.Wrap(err, "postgres: scan trend test")
		}
		tests = append(tests, tt)
	}
	return tests, eris.Wrap(rows.Err(), "postgres: list trend tests iterate")
}

var _ Store = (*PostgresStore)(nil)
var _ Store = (*SQLiteStore)(nil)
