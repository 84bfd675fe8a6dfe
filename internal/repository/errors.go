package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// invalid_text_representation: an id that is not a valid uuid cannot match any row
const pgInvalidTextRepresentation = "22P02"

func translate(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation:
		return ErrNotFound
	default:
		return err
	}
}
