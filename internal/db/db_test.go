package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "tract_summaries", []string{"geoid", "count"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"tract_summaries"}, []string{"geoid", "count"}).WillReturnResult(2)

	rows := [][]any{{"36047000200", 12}, {"36061000100", 3}}
	n, err := CopyFrom(context.Background(), mock, "tract_summaries", []string{"geoid", "count"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"tract_summaries"}, []string{"geoid"}).
		WillReturnError(assert.AnError)

	_, err = CopyFrom(context.Background(), mock, "tract_summaries", []string{"geoid"}, [][]any{{"36047000200"}})
	assert.Error(t, err)
}
