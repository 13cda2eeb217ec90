package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"retailops/internal/core/apperror"
)

// SQLSTATE codes the storage layer translates.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateCheckViolation       = "23514"
)

// MapError translates PostgreSQL errors into application errors. Errors
// that are already application errors, and unknown errors, pass through.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return apperror.NewConflict("concurrent update, retry the operation").
			WithDetail("sqlstate", pgErr.Code).
			WithCause(err)
	case sqlStateUniqueViolation:
		return apperror.NewDuplicate(pgErr.TableName, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	case sqlStateForeignKeyViolation:
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case sqlStateCheckViolation:
		return apperror.NewValidation("value violates a constraint").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return apperror.NewDatabase(err)
}
