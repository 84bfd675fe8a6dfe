package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tush00nka/filehub/internal/model"
)

func TestUserRepository_Create_AssignsID(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`^INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	u := &model.User{Email: "alice@example.com", Password: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`^INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &model.User{Email: "alice@example.com", Password: "hash"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password", "created_at", "updated_at"}).
		AddRow("u-1", "alice@example.com", "hash", now, now)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "hash", got.Password)
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_FindByID_MalformedID(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnError(&pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "ghost"`})

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_DBError(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(errors.New("db down"))

	_, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
