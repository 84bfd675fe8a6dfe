package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tush00nka/filehub/internal/model"
)

var fileColumns = []string{"id", "filename", "mimetype", "size", "storage_key", "user_id", "created_at"}

func TestFileRepository_Create(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewFileRepository(db)

	mock.ExpectExec(`^INSERT INTO "files" \("id","filename","mimetype","size","storage_key","user_id","created_at"\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	f := &model.File{Filename: "a.txt", Mimetype: "text/plain", Size: 5, Key: "u-1/x-a.txt", UserID: "u-1"}
	require.NoError(t, repo.Create(context.Background(), f))
	assert.NotEmpty(t, f.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_FindByUser_NewestFirst(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewFileRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(fileColumns).
		AddRow("f-2", "b.txt", "text/plain", 7, "u-1/2-b.txt", "u-1", now).
		AddRow("f-1", "a.txt", "text/plain", 5, "u-1/1-a.txt", "u-1", now.Add(-time.Hour))
	mock.ExpectQuery(`SELECT \* FROM "files" WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs("u-1").
		WillReturnRows(rows)

	files, err := repo.FindByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "f-2", files[0].ID)
	assert.Equal(t, "u-1/1-a.txt", files[1].Key)
	assert.EqualValues(t, 5, files[1].Size)
}

func TestFileRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewFileRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "files" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(fileColumns))

	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileRepository_Delete(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewFileRepository(db)

	mock.ExpectExec(`DELETE FROM "files" WHERE id = \$1`).
		WithArgs("f-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "f-1"))

	mock.ExpectExec(`DELETE FROM "files" WHERE id = \$1`).
		WithArgs("f-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "f-2"), ErrNotFound)
}

func TestFileRepository_MalformedIDIsNotFound(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewFileRepository(db)

	badUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	mock.ExpectQuery(`SELECT \* FROM "files" WHERE id = \$1`).
		WillReturnError(badUUID)
	mock.ExpectExec(`DELETE FROM "files" WHERE id = \$1`).
		WithArgs("abc").
		WillReturnError(badUUID)

	_, err := repo.FindByID(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Delete(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
