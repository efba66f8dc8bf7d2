package db

import (
	"context"
	"errors"
	"testing"

	"backend-snapgraph/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestWithTxCommit(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM follows`).WithArgs(int64(1), int64(2)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), mock, func(tx pgx.Tx) error {
		_, err := tx.Exec(context.Background(), `DELETE FROM follows WHERE follower_id=$1 AND following_id=$2`, int64(1), int64(2))
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollbackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	errFn := errors.New("fn failed")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = WithTx(context.Background(), mock, func(pgx.Tx) error { return errFn })
	require.ErrorIs(t, err, errFn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxBeginAndCommitErrors(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))
	err = WithTx(context.Background(), mock, func(pgx.Tx) error { return nil })
	require.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))
	err = WithTx(context.Background(), mock, func(pgx.Tx) error { return nil })
	require.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
