package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"storefront-bridge/migrations"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorClassSerialization, ClassifyError(&pq.Error{Code: "40001"}))
	assert.Equal(t, ErrorClassDeadlock, ClassifyError(&pq.Error{Code: "40P01"}))
	assert.Equal(t, ErrorClassTransient, ClassifyError(&pq.Error{Code: "55P03"}))
	assert.Equal(t, ErrorClassPermanent, ClassifyError(&pq.Error{Code: "23505"}))
	assert.Equal(t, ErrorClassPermanent, ClassifyError(errors.New("boom")))
	assert.Equal(t, ErrorClassPermanent, ClassifyError(nil))

	assert.True(t, IsRetryable(&pq.Error{Code: "40P01"}))
	assert.False(t, IsRetryable(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
}

func TestWithTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("commits on success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE products").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := WithTransaction(context.Background(), db, DefaultTxOptions(), func(tx *sql.Tx) error {
			_, err := tx.Exec("UPDATE products SET title = 'x'")
			return err
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := WithTransaction(context.Background(), db, DefaultTxOptions(), func(tx *sql.Tx) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWithRetry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("retries serialization failures", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectCommit()

		attempts := 0
		err := WithRetry(context.Background(), db, DefaultTxOptions(), func(tx *sql.Tx) error {
			attempts++
			if attempts == 1 {
				return &pq.Error{Code: "40001"}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		attempts := 0
		err := WithRetry(context.Background(), db, DefaultTxOptions(), func(tx *sql.Tx) error {
			attempts++
			return &pq.Error{Code: "23505"}
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		opts := DefaultTxOptions()
		opts.MaxRetries = 1
		for i := 0; i < 2; i++ {
			mock.ExpectBegin()
			mock.ExpectRollback()
		}

		err := WithRetry(context.Background(), db, opts, func(tx *sql.Tx) error {
			return &pq.Error{Code: "40P01"}
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries (1) exceeded")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	source, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	defer source.Close()

	var versions []uint
	version, err := source.First()
	for err == nil {
		versions = append(versions, version)

		up, _, upErr := source.ReadUp(version)
		require.NoError(t, upErr, "version %d has no up migration", version)
		up.Close()
		down, _, downErr := source.ReadDown(version)
		require.NoError(t, downErr, "version %d has no down migration", version)
		down.Close()

		version, err = source.Next(version)
	}
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, []uint{1, 2, 3}, versions)
}

type unreadableFS struct{}

func (unreadableFS) Open(string) (fs.File, error) { return nil, fs.ErrPermission }

func TestNewMigratorRejectsUnreadableSource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewMigrator(context.Background(), db, unreadableFS{}, zerolog.Nop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open migration source")
	require.NoError(t, mock.ExpectationsWereMet())
}
