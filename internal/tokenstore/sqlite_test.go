package tokenstore

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicspot/internal/domain"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newSQLiteStore(db, mustOrigin(t, "http://localhost:5000")), mock
}

func TestSQLiteStoreSaveError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO credentials").
		WithArgs("http://localhost:5000", "abc123").
		WillReturnError(errors.New("database is locked"))

	err := s.Save("abc123")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTokenStore)
	assert.Contains(t, err.Error(), "save")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreLoadError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT token FROM credentials").
		WithArgs("http://localhost:5000").
		WillReturnError(errors.New("disk I/O error"))

	_, ok, err := s.Load()
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, domain.IsInfrastructureError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreLoadRow(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT token FROM credentials").
		WithArgs("http://localhost:5000").
		WillReturnRows(sqlmock.NewRows([]string{"token"}).AddRow("abc123"))

	token, ok, err := s.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreClearError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM credentials").
		WithArgs("http://localhost:5000").
		WillReturnError(errors.New("readonly database"))

	err := s.Clear()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTokenStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
