package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/perpusgo/lending-api/pkg/apperr"
)

// Postgres error codes for integrity violations.
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// mapError translates driver-level integrity failures into the constraint
// branch of the error taxonomy so the violated rule stays identifiable.
// Anything that is not an integrity violation passes through untouched; the
// caller's transaction has already been rolled back by the unit of work.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeForeignKeyViolation:
		return apperr.ConstraintViolation(pgErr.ConstraintName,
			"foreign key violation on "+pgErr.ConstraintName, err)
	case codeUniqueViolation:
		return apperr.ConstraintViolation(pgErr.ConstraintName,
			"unique violation on "+pgErr.ConstraintName, err)
	case codeCheckViolation:
		return apperr.ConstraintViolation(pgErr.ConstraintName,
			"check violation on "+pgErr.ConstraintName, err)
	case codeNotNullViolation:
		return apperr.ConstraintViolation(pgErr.ColumnName,
			"null value in column "+pgErr.ColumnName, err)
	}
	return err
}
