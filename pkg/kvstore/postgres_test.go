package kvstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectQuery("SELECT value, version FROM kv_entries").
		WithArgs("user-activities").
		WillReturnRows(sqlmock.NewRows([]string{"value", "version"}).AddRow(`[]`, int64(5)))

	entry, err := store.Get(context.Background(), "user-activities")

	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), entry.Value)
	assert.Equal(t, int64(5), entry.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetMissingKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectQuery("SELECT value, version FROM kv_entries").
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{"value", "version"}))

	_, err = store.Get(context.Background(), "absent")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutUnconditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectQuery("INSERT INTO kv_entries").
		WithArgs("k", "[]").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(2)))

	version, err := store.Put(context.Background(), "k", []byte("[]"), VersionAny)

	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutCreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	// ON CONFLICT DO NOTHING returns no row when the key already exists.
	mock.ExpectQuery("INSERT INTO kv_entries").
		WithArgs("k", "[]").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	_, err = store.Put(context.Background(), "k", []byte("[]"), 0)

	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutConditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectQuery("UPDATE kv_entries").
		WithArgs("k", "[]", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))

	version, err := store.Put(context.Background(), "k", []byte("[]"), 4)

	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutConditionalConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectQuery("UPDATE kv_entries").
		WithArgs("k", "[]", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	_, err = store.Put(context.Background(), "k", []byte("[]"), 4)

	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectExec("DELETE FROM kv_entries").
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.Delete(context.Background(), "k")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_entries").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.Migrate(context.Background())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
