package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

const uniqueViolation = "23505"

func mapWriteError(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperrors.NewConflict(what+" already exists", map[string]any{"constraint": pgErr.ConstraintName})
	}
	return err
}
