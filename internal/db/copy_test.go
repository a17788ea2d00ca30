package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "benefit_stats", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"run_id", "benefit", "odds_ratio"}
	mock.ExpectCopyFrom(pgx.Identifier{"benefit_stats"}, cols).WillReturnResult(2)

	rows := [][]any{
		{"run-1", "food", 12.7},
		{"run-1", "eitc", 6.1},
	}
	n, err := CopyFrom(context.Background(), mock, "benefit_stats", cols, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"run_id", "benefit"}
	mock.ExpectCopyFrom(pgx.Identifier{"benefit_stats"}, cols).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "benefit_stats", cols, [][]any{{"run-1", "food"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO benefit_stats")
}
