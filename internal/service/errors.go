package service

import (
	"errors"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// storeError maps repository failures onto the error taxonomy. DomainErrors
// pass through, missing rows become NOT_FOUND, anything else is a
// persistence failure the client may retry.
func storeError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewPersistenceError(err)
}
