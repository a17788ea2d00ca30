package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Batch is one staged upsert into a target table. Rows carry the values
// in Columns order; Keys name the unique constraint, and every other
// column is refreshed from the incoming row on conflict. Rerunning an
// analysis therefore replaces its stats instead of erroring.
type Batch struct {
	Table   string   // target table, optionally schema-qualified
	Columns []string // insert columns, e.g. run_id, benefit, odds_ratio
	Keys    []string // conflict target, e.g. run_id + benefit
	Rows    [][]any
}

func (b Batch) validate() error {
	if b.Table == "" {
		return eris.New("db: upsert: no table specified")
	}
	if len(b.Columns) == 0 {
		return eris.New("db: upsert: no columns specified")
	}
	if len(b.Keys) == 0 {
		return eris.New("db: upsert: no conflict keys specified")
	}
	return nil
}

// refreshColumns returns the non-key columns, the ones rewritten from
// EXCLUDED on conflict.
func (b Batch) refreshColumns() []string {
	keys := make(map[string]bool, len(b.Keys))
	for _, k := range b.Keys {
		keys[k] = true
	}
	var out []string
	for _, c := range b.Columns {
		if !keys[c] {
			out = append(out, c)
		}
	}
	return out
}

// stageName derives the per-table staging table name.
func (b Batch) stageName() string {
	return "stage_" + strings.ReplaceAll(b.Table, ".", "_")
}

// mergeSQL builds the INSERT ... SELECT ... ON CONFLICT statement that
// folds the staging table into the target.
func (b Batch) mergeSQL() string {
	cols := quoteList(b.Columns)
	var set strings.Builder
	for i, c := range b.refreshColumns() {
		if i > 0 {
			set.WriteString(", ")
		}
		q := pgx.Identifier{c}.Sanitize()
		fmt.Fprintf(&set, "%s = EXCLUDED.%s", q, q)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		quoteTable(b.Table), cols, cols,
		pgx.Identifier{b.stageName()}.Sanitize(),
		quoteList(b.Keys), set.String(),
	)
}

// Upsert loads the batch through a session-local staging table: COPY the
// rows in, then merge them into the target with ON CONFLICT DO UPDATE.
// COPY keeps the wide benefit and trend batches off the bind-parameter
// path, and the staging table drops itself on commit.
func Upsert(ctx context.Context, pool Pool, b Batch) (int64, error) {
	if len(b.Rows) == 0 {
		return 0, nil
	}
	if err := b.validate(); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stage := b.stageName()
	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{stage}.Sanitize(), quoteTable(b.Table),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: stage %s", b.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stage}, b.Columns, pgx.CopyFromRows(b.Rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into stage for %s", b.Table)
	}

	tag, err := tx.Exec(ctx, b.mergeSQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", b.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

// quoteTable quotes a possibly schema-qualified table name.
func quoteTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// quoteList quotes each identifier and joins with commas.
func quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
