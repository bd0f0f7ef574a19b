package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "test",
		IsSuccessful: func(err error) bool {
			return err == nil || err == ErrNotFound
		},
	})
	return newStore(db, breaker, zap.NewNop()), mock
}

func TestPutIssuesUpsert(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs("a", "1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Put(context.Background(), "a", "1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReturnsValueOnHit(t *testing.T) {
	s, mock := newTestStore(t)
	rows := sqlmock.NewRows([]string{"value"}).AddRow("1")
	mock.ExpectQuery("SELECT value FROM kv_store").
		WithArgs("a").
		WillReturnRows(rows)

	v, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, "1", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReturnsNotFoundOnMiss(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery("SELECT value FROM kv_store").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec("DELETE FROM kv_store").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSucceedsWhenRowAffected(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec("DELETE FROM kv_store").
		WithArgs("a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Delete(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
