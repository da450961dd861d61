package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrAdminNotFound     = errors.New("admin not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrRefreshTokenStale = errors.New("refresh token hash changed")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategorySlugTaken = errors.New("category slug already exists")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// validID filters ids postgres would reject with an invalid_text_representation error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
