package geocache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/jp-air-features/internal/domain"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache", "geocache.sqlite")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func shinjuku() domain.Address {
	return domain.Address{
		Prefecture: domain.String("Tokyo"),
		City:       domain.String("Shinjuku"),
		Postcode:   domain.String("160-0023"),
	}
}

func TestStore_PutGet(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, 35.6895, 139.6917)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, 35.6895, 139.6917, shinjuku()))

	addr, ok, err := s.Get(ctx, 35.6895, 139.6917)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, shinjuku(), addr)
	assert.Nil(t, addr.Street)
}

func TestStore_ExactKey(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, 35.6895, 139.6917, shinjuku()))

	_, ok, err := s.Get(ctx, 35.68951, 139.6917)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_NullEntryIsHit(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, 0, -160, domain.Address{}))

	addr, ok, err := s.Get(ctx, 0, -160)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, addr.IsZero())
}

func TestStore_PutReplaces(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, 1, 2, domain.Address{}))
	require.NoError(t, s.Put(ctx, 1, 2, shinjuku()))

	addr, ok, err := s.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Tokyo", *addr.Prefecture)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_ReopenKeepsEntries(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, 1, 2, shinjuku()))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	addr, ok, err := reopened.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, shinjuku(), addr)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestStore_GetQueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(selectQuery).WithArgs(1.0, 2.0).WillReturnError(errors.New("disk I/O error"))

	_, ok, err := s.Get(context.Background(), 1, 2)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetScansNulls(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"prefecture", "city", "street", "pincode"}).
		AddRow("Osaka", nil, nil, "530-0001")
	mock.ExpectQuery(selectQuery).WithArgs(34.7, 135.5).WillReturnRows(rows)

	addr, ok, err := s.Get(context.Background(), 34.7, 135.5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Osaka", *addr.Prefecture)
	assert.Nil(t, addr.City)
	assert.Equal(t, "530-0001", *addr.Postcode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PutExecError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(upsertQuery).
		WithArgs(1.0, 2.0, "Tokyo", "Shinjuku", nil, "160-0023").
		WillReturnError(errors.New("database is locked"))

	err := s.Put(context.Background(), 1, 2, shinjuku())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}
